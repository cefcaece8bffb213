// Package settings reads the machine-local Gradle properties file.
package settings

import (
	"path/filepath"
	"strings"

	apperrors "devstack/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// DefaultFile is the conventional properties file name.
	DefaultFile = "local.properties"

	// FlutterSDKKey is the one required property.
	FlutterSDKKey = "flutter.sdk"

	androidSDKKey      = "sdk.dir"
	versionNameKey     = "flutter.versionName"
	versionCodeKey     = "flutter.versionCode"
	buildModeKey       = "flutter.buildMode"
	flutterToolsGradle = "packages/flutter_tools/gradle"
)

// Settings are the values the build consumes from local.properties.
type Settings struct {
	Path        string `json:"path" yaml:"path"`
	FlutterSDK  string `json:"flutterSdk" yaml:"flutterSdk"`
	AndroidSDK  string `json:"androidSdk,omitempty" yaml:"androidSdk,omitempty"`
	VersionName string `json:"versionName,omitempty" yaml:"versionName,omitempty"`
	VersionCode string `json:"versionCode,omitempty" yaml:"versionCode,omitempty"`
	BuildMode   string `json:"buildMode,omitempty" yaml:"buildMode,omitempty"`
}

// IncludedBuild is the Flutter tooling build the settings script includes.
func (s *Settings) IncludedBuild() string {
	return filepath.Join(s.FlutterSDK, filepath.FromSlash(flutterToolsGradle))
}

// Load reads path as a Java properties file. A missing file or a missing
// flutter.sdk value is a fatal configuration error.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultFile
	}

	v := viper.NewWithOptions(viper.WithDecoderRegistry(codecs{}))
	v.SetConfigFile(path)
	v.SetConfigType(propertiesFormat)
	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.NewError(apperrors.ErrorTypeConfig, "failed to read "+filepath.Base(path)).
			WithCause(err).
			WithDetail("path", path)
	}

	sdk := strings.TrimSpace(v.GetString(FlutterSDKKey))
	if sdk == "" {
		return nil, apperrors.NewError(apperrors.ErrorTypeConfig, FlutterSDKKey+" not set in "+filepath.Base(path)).
			WithDetail("path", path)
	}

	return &Settings{
		Path:        path,
		FlutterSDK:  sdk,
		AndroidSDK:  v.GetString(androidSDKKey),
		VersionName: v.GetString(versionNameKey),
		VersionCode: v.GetString(versionCodeKey),
		BuildMode:   v.GetString(buildModeKey),
	}, nil
}
