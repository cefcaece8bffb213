package repository

import (
	"os"
	"strings"
)

// MirrorsEnvVar toggles the mirror endpoints.
const MirrorsEnvVar = "USE_LOCAL_MAVEN_MIRRORS"

// ParseMirrorsEnabled interprets the toggle value. Only a case-insensitive
// "true" enables mirrors; anything else, including "1" or "yes", disables them.
func ParseMirrorsEnabled(value string) bool {
	return strings.EqualFold(value, "true")
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ResolverConfig is the process-wide resolver input. It is built once at
// startup and passed by value; it is never mutated afterwards.
type ResolverConfig struct {
	MirrorsEnabled bool
	// InternalMirrorURL overrides the private mirror location for both contexts.
	InternalMirrorURL string
}

// ConfigFromEnv builds a ResolverConfig from the environment. An absent or
// unparseable toggle yields a config with mirrors disabled.
func ConfigFromEnv(lookup LookupFunc, internalMirrorURL string) ResolverConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, ok := lookup(MirrorsEnvVar)
	return ResolverConfig{
		MirrorsEnabled:    ok && ParseMirrorsEnabled(value),
		InternalMirrorURL: internalMirrorURL,
	}
}
