package repository

// DefaultInternalMirrorURL is the private repository manager group used when
// none is configured.
const DefaultInternalMirrorURL = "http://127.0.0.1:8081/repository/android-group/"

// Canonical endpoints.
var (
	Google = Endpoint{
		Name:           "google",
		URL:            "https://dl.google.com/dl/android/maven2/",
		Kind:           KindGoogle,
		MetadataPolicy: MetadataPOMAndArtifact,
	}
	MavenCentral = Endpoint{
		Name:           "mavenCentral",
		URL:            "https://repo.maven.apache.org/maven2/",
		Kind:           KindCentral,
		MetadataPolicy: MetadataPOMAndArtifact,
	}
	GradlePluginPortal = Endpoint{
		Name:           "gradlePluginPortal",
		URL:            "https://plugins.gradle.org/m2/",
		Kind:           KindPluginPortal,
		MetadataPolicy: MetadataPOMAndArtifact,
	}
)

// Public mirror endpoints.
var (
	AliyunGoogle       = mirror("aliyun-google", "https://maven.aliyun.com/repository/google")
	AliyunCentral      = mirror("aliyun-central", "https://maven.aliyun.com/repository/central")
	AliyunGradlePlugin = mirror("aliyun-gradle-plugin", "https://maven.aliyun.com/repository/gradle-plugin")
	HuaweiGoogle       = mirror("huaweicloud-google", "https://mirrors.huaweicloud.com/repository/maven/google")
)

func mirror(name, url string) Endpoint {
	return Endpoint{
		Name:           name,
		URL:            url,
		Kind:           KindCustomMirror,
		MetadataPolicy: MetadataPOMAndArtifact,
	}
}

// InternalMirror returns the private mirror endpoint for the given URL.
func InternalMirror(url string) Endpoint {
	if url == "" {
		url = DefaultInternalMirrorURL
	}
	return mirror("internal", url)
}

// profile is the fixed endpoint shape of one resolution context.
type profile struct {
	publicMirrors []Endpoint
	canonical     []Endpoint
}

var profiles = map[Context]profile{
	ContextDependencies: {
		publicMirrors: []Endpoint{AliyunGoogle, AliyunCentral, HuaweiGoogle},
		canonical:     []Endpoint{Google, MavenCentral},
	},
	ContextPlugins: {
		publicMirrors: []Endpoint{AliyunGoogle, AliyunGradlePlugin, AliyunCentral, HuaweiGoogle},
		canonical:     []Endpoint{Google, GradlePluginPortal, MavenCentral},
	},
}

// Canonical returns the canonical endpoints of a context in lookup order.
func Canonical(c Context) []Endpoint {
	p, ok := profiles[c]
	if !ok {
		return nil
	}
	return append([]Endpoint(nil), p.canonical...)
}
