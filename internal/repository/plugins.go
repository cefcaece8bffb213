package repository

import "fmt"

// KotlinAndroidPluginID is requested by the app module but published only as
// part of the Kotlin Gradle plugin artifact.
const KotlinAndroidPluginID = "org.jetbrains.kotlin.android"

// PluginRequest is a plugin declared in the settings plugins block.
type PluginRequest struct {
	ID      string `json:"id" yaml:"id"`
	Version string `json:"version" yaml:"version"`
	Apply   bool   `json:"apply" yaml:"apply"`
}

// DeclaredPlugins are the plugins the Android settings script declares.
var DeclaredPlugins = []PluginRequest{
	{ID: "dev.flutter.flutter-plugin-loader", Version: "1.0.0", Apply: true},
	{ID: "com.android.application", Version: "8.3.0", Apply: false},
	{ID: KotlinAndroidPluginID, Version: "1.9.23", Apply: false},
}

// PluginModule returns the module coordinates a plugin request is
// substituted with, and false when the plugin resolves through the portal
// marker artifact as usual.
func PluginModule(req PluginRequest) (string, bool) {
	if req.ID == KotlinAndroidPluginID {
		return fmt.Sprintf("org.jetbrains.kotlin:kotlin-gradle-plugin:%s", req.Version), true
	}
	return "", false
}
