// Package layout maps Gradle build outputs to the relocated build tree.
//
// The Android project builds into the Flutter project's top-level build
// directory instead of android/build, and every subproject gets its own
// directory below it.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultAndroidDir is the Android project directory inside the Flutter project.
	DefaultAndroidDir = "android"
	// DefaultRelativeBuildDir is resolved against the root project's default
	// build directory (<androidDir>/build).
	DefaultRelativeBuildDir = "../../build"
)

// Layout holds the relocated directories.
type Layout struct {
	AndroidDir   string `json:"androidDir" yaml:"androidDir"`
	RootBuildDir string `json:"rootBuildDir" yaml:"rootBuildDir"`
}

// New computes the layout for androidDir. relBuildDir is resolved against the
// root project's default build directory, <androidDir>/build; an absolute
// relBuildDir is used as is.
func New(androidDir, relBuildDir string) Layout {
	if androidDir == "" {
		androidDir = DefaultAndroidDir
	}
	if relBuildDir == "" {
		relBuildDir = DefaultRelativeBuildDir
	}

	root := filepath.FromSlash(relBuildDir)
	if !filepath.IsAbs(root) {
		root = filepath.Join(androidDir, "build", root)
	}
	return Layout{
		AndroidDir:   filepath.Clean(androidDir),
		RootBuildDir: filepath.Clean(root),
	}
}

// ProjectBuildDir returns the build directory of a subproject. Gradle
// project paths such as ":feature:login" are accepted; the directory is
// named after the project itself, the last path segment.
func (l Layout) ProjectBuildDir(project string) (string, error) {
	segments := strings.Split(strings.TrimPrefix(project, ":"), ":")
	for _, s := range segments {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return "", fmt.Errorf("invalid project path %q", project)
		}
	}
	return filepath.Join(l.RootBuildDir, segments[len(segments)-1]), nil
}

// Clean removes the root build directory, mirroring the Gradle clean task.
// A missing directory is not an error.
func (l Layout) Clean() error {
	if l.RootBuildDir == "" || l.RootBuildDir == "." || l.RootBuildDir == string(filepath.Separator) {
		return fmt.Errorf("refusing to clean %q", l.RootBuildDir)
	}
	if err := os.RemoveAll(l.RootBuildDir); err != nil {
		return fmt.Errorf("removing %s: %w", l.RootBuildDir, err)
	}
	return nil
}
