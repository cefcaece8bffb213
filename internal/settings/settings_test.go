package settings

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "devstack/pkg/errors"
)

func writeProperties(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing properties: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeProperties(t, `# generated by flutter
sdk.dir=/opt/android-sdk
flutter.sdk=/opt/flutter
flutter.buildMode=debug
flutter.versionName=1.0.0
flutter.versionCode=1
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"flutter sdk", s.FlutterSDK, "/opt/flutter"},
		{"android sdk", s.AndroidSDK, "/opt/android-sdk"},
		{"build mode", s.BuildMode, "debug"},
		{"version name", s.VersionName, "1.0.0"},
		{"version code", s.VersionCode, "1"},
		{"included build", s.IncludedBuild(), filepath.Join("/opt/flutter", "packages", "flutter_tools", "gradle")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestLoadMissingFlutterSDK(t *testing.T) {
	path := writeProperties(t, "sdk.dir=/opt/android-sdk\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail without flutter.sdk")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeConfig) {
		t.Errorf("error type = %v, want config", err)
	}
	if got, want := err.Error(), "config: flutter.sdk not set in local.properties"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLoadBlankFlutterSDK(t *testing.T) {
	path := writeProperties(t, "flutter.sdk=   \n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail for a blank flutter.sdk")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeConfig) {
		t.Errorf("error type = %v, want config", err)
	}
}
