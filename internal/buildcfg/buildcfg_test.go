package buildcfg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, 3000, cfg.Dev.Port)
	require.Equal(t, 3000, cfg.Preview.Port)
	require.Equal(t, "0.0.0.0", cfg.Dev.Host)
	require.Equal(t, "0.0.0.0", cfg.Preview.Host)
	require.Equal(t, "/NASASpaceAppsChallenge2024/", cfg.BasePath)
}

func TestLoadPortOverride(t *testing.T) {
	tests := []struct {
		name     string
		environ  map[string]string
		expected int
	}{
		{
			name:     "absent",
			environ:  map[string]string{},
			expected: 3000,
		},
		{
			name:     "present but empty",
			environ:  map[string]string{"PORT": ""},
			expected: 3000,
		},
		{
			name:     "unrelated keys only",
			environ:  map[string]string{"HOME": "/home/app"},
			expected: 3000,
		},
		{
			name:     "override",
			environ:  map[string]string{"PORT": "8080"},
			expected: 8080,
		},
		{
			name:     "lowest valid",
			environ:  map[string]string{"PORT": "0"},
			expected: 0,
		},
		{
			name:     "highest valid",
			environ:  map[string]string{"PORT": "65535"},
			expected: 65535,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.environ)
			require.NoError(t, err)
			require.Equal(t, tt.expected, cfg.Dev.Port)
			require.Equal(t, tt.expected, cfg.Preview.Port)
		})
	}
}

func TestLoadInvalidPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{
			name:  "not a number",
			value: "not-a-number",
		},
		{
			name:  "alpha",
			value: "abc",
		},
		{
			name:  "negative",
			value: "-1",
		},
		{
			name:  "above range",
			value: "99999",
		},
		{
			name:  "float",
			value: "3000.5",
		},
		{
			name:  "trailing garbage",
			value: "8080x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(map[string]string{"PORT": tt.value})
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, "PORT", cfgErr.Var)
			require.Equal(t, tt.value, cfgErr.Value)
			require.Contains(t, err.Error(), tt.value)
			require.Contains(t, err.Error(), "between 0 and 65535")
		})
	}
}

func TestLoadHostIsFixed(t *testing.T) {
	cfg, err := Load(map[string]string{"PORT": "4000", "HOST": "127.0.0.1"})
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Dev.Host)
	require.Equal(t, "0.0.0.0", cfg.Preview.Host)
}

func TestLoadBasePath(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	require.NotEmpty(t, cfg.BasePath)
	require.True(t, strings.HasPrefix(cfg.BasePath, "/"))
	require.True(t, strings.HasSuffix(cfg.BasePath, "/"))
}

func TestLoadPluginSet(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Len(t, cfg.Plugins, 1)
	require.Equal(t, "react", cfg.Plugins[0].Name)
}

func TestLoadIdempotent(t *testing.T) {
	environ := map[string]string{"PORT": "8123"}

	first, err := Load(environ)
	require.NoError(t, err)
	second, err := Load(environ)
	require.NoError(t, err)

	require.Equal(t, first.BasePath, second.BasePath)
	require.Equal(t, first.Dev, second.Dev)
	require.Equal(t, first.Preview, second.Preview)

	// Plugin handles hold function values, so compare by count, order and
	// name rather than deep equality.
	require.Len(t, second.Plugins, len(first.Plugins))
	for i := range first.Plugins {
		require.Equal(t, first.Plugins[i].Name, second.Plugins[i].Name)
	}
}

func TestServerAddr(t *testing.T) {
	s := Server{Host: "0.0.0.0", Port: 3000}
	require.Equal(t, "0.0.0.0:3000", s.Addr())
}

func TestEnviron(t *testing.T) {
	environ := Environ([]string{"PORT=8080", "EMPTY=", "MALFORMED"})

	require.Equal(t, "8080", environ["PORT"])
	require.Equal(t, "", environ["EMPTY"])
	_, ok := environ["MALFORMED"]
	require.False(t, ok)
}
