package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every configuration environment variable
const EnvPrefix = "DEVSTACK"

// EnvVar is a scalar configuration field that can be set from the
// environment. The key joins the yaml names along the field's path, so
// proxy.http.port is DEVSTACK_PROXY_HTTP_PORT and
// repositories.internalMirror is DEVSTACK_REPOSITORIES_INTERNALMIRROR.
type EnvVar struct {
	Key string
	// Default is the embedded default, "" when there is none
	Default string

	index []int
}

// EnvVars lists the configuration variables in declaration order. Lists and
// maps (proxy.routes with their pathRewrite, tracing headers) are file-only;
// USE_LOCAL_MAVEN_MIRRORS is read by the repository resolver, not here.
func EnvVars() []EnvVar {
	def, err := LoadDefault()
	if err != nil {
		def = &Config{}
	}
	var vars []EnvVar
	collectEnvVars(reflect.ValueOf(def).Elem(), EnvPrefix, nil, &vars)
	return vars
}

func collectEnvVars(v reflect.Value, prefix string, index []int, vars *[]EnvVar) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := prefix + "_" + strings.ToUpper(name)
		idx := append(slices.Clone(index), i)

		field := v.Field(i)
		switch field.Kind() {
		case reflect.String, reflect.Int, reflect.Float64, reflect.Bool:
			*vars = append(*vars, EnvVar{Key: key, Default: fmt.Sprint(field.Interface()), index: idx})
		case reflect.Struct:
			collectEnvVars(field, key, idx, vars)
		case reflect.Pointer:
			// optional sections, e.g. proxy.http.tls
			if field.Type().Elem().Kind() != reflect.Struct {
				continue
			}
			if field.IsNil() {
				field = reflect.New(field.Type().Elem())
			}
			collectEnvVars(field.Elem(), key, idx, vars)
		}
	}
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already set are left untouched.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// LoadEnv applies the non-empty DEVSTACK_* variables to cfg. An optional
// section is allocated only when one of its variables is set.
func LoadEnv(cfg *Config) error {
	root := reflect.ValueOf(cfg).Elem()
	for _, ev := range EnvVars() {
		val := os.Getenv(ev.Key)
		if val == "" {
			continue
		}
		if err := setScalar(fieldByIndex(root, ev.index), val); err != nil {
			return fmt.Errorf("%s: %w", ev.Key, err)
		}
	}
	return nil
}

func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for _, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

func setScalar(field reflect.Value, val string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Int:
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int value %q", val)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float value %q", val)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool value %q", val)
		}
		field.SetBool(b)
	}
	return nil
}
