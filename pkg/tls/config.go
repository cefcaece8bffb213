// Package tls builds crypto/tls configurations for the proxy listener.
package tls

import (
	"crypto/tls"
	"fmt"
)

// ParseTLSVersion maps "1.0" to "1.3" to the crypto/tls constants.
// Anything else yields TLS 1.2.
func ParseTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

// ServerConfig loads the certificate pair and returns a server config
func ServerConfig(certFile, keyFile, minVersion string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   ParseTLSVersion(minVersion),
	}, nil
}
