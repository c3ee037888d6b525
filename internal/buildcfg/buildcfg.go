// Package buildcfg assembles the build settings for the site: the framework
// plugin set, the public base path deployed assets live under, and the
// host/port bindings for the dev and preview servers.
package buildcfg

import (
	"net"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/assets/react"
)

const (
	// BasePath is the public URL prefix for built assets, matching the
	// GitHub Pages deployment subdirectory for this project.
	BasePath = "/NASASpaceAppsChallenge2024/"

	// DefaultPort is used when the environment does not supply a PORT
	// override.
	DefaultPort = 3000

	// allInterfaces binds the dev and preview servers on every interface so
	// the site is reachable from other devices on the local network.
	allInterfaces = "0.0.0.0"

	portVar = "PORT"
)

// Server holds the bind settings for one of the serve modes.
type Server struct {
	Host string
	Port int
}

// Addr returns the host:port string an HTTP server can listen on.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Config is the build configuration handed to the asset pipeline. It is
// constructed once at startup and never mutated, so it can be read from both
// serve paths without synchronization.
type Config struct {
	// Plugins are opaque engine plugin handles applied in order. The order
	// is preserved verbatim; this layer never interprets them.
	Plugins []api.Plugin

	// BasePath is the public URL prefix for built assets. Begins and ends
	// with "/".
	BasePath string

	Dev     Server
	Preview Server
}

// Load builds the Config from the supplied environment mapping. The
// environment is an explicit parameter so callers and tests control exactly
// what the loader sees, rather than reading process globals.
//
// PORT overrides the listen port for both serve modes. When it is absent or
// empty both modes fall back to DefaultPort. A PORT value that is present but
// not an integer in [0,65535] is a fatal misconfiguration and returns a
// ConfigurationError; the caller is expected to abort startup.
func Load(environ map[string]string) (Config, error) {
	devPort, err := resolvePort(environ)
	if err != nil {
		return Config{}, err
	}

	previewPort, err := resolvePort(environ)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Plugins:  []api.Plugin{react.Plugin(react.Options{BaseURL: BasePath})},
		BasePath: BasePath,
		Dev:      Server{Host: allInterfaces, Port: devPort},
		Preview:  Server{Host: allInterfaces, Port: previewPort},
	}, nil
}

// resolvePort reads the PORT override. The dev and preview ports resolve
// independently even though both currently read the same variable, so they
// can diverge later without touching the callers.
func resolvePort(environ map[string]string) (int, error) {
	raw, ok := environ[portVar]
	if !ok || raw == "" {
		return DefaultPort, nil
	}

	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigurationError{Var: portVar, Value: raw, Reason: "not an integer"}
	}

	if port < 0 || port > 65535 {
		return 0, &ConfigurationError{Var: portVar, Value: raw, Reason: "out of range"}
	}

	return port, nil
}

// Environ converts entries in the "KEY=value" form returned by os.Environ
// into the mapping Load expects.
func Environ(entries []string) map[string]string {
	environ := make(map[string]string, len(entries))
	for _, entry := range entries {
		if key, value, ok := strings.Cut(entry, "="); ok {
			environ[key] = value
		}
	}
	return environ
}
