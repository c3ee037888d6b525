package react

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
)

func TestPluginProvidesAppEnv(t *testing.T) {
	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   `import { BASE_URL, MODE } from "virtual:app-env"; console.log(BASE_URL, MODE);`,
			ResolveDir: t.TempDir(),
			Loader:     api.LoaderJS,
		},
		Bundle:  true,
		Write:   false,
		Outdir:  "out",
		Define:  map[string]string{"process.env.NODE_ENV": `"development"`},
		Plugins: []api.Plugin{Plugin(Options{BaseURL: "/app/"})},
	})

	require.Empty(t, result.Errors)
	require.Len(t, result.OutputFiles, 1)

	bundle := string(result.OutputFiles[0].Contents)
	require.Contains(t, bundle, "/app/")
	require.Contains(t, bundle, "development")
}

func TestPluginLoadsJSXFromPlainJS(t *testing.T) {
	dir := t.TempDir()
	widget := []byte("export const widget = <span>ok</span>;\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.js"), widget, 0600))

	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   `import { widget } from "./widget.js"; console.log(widget);`,
			ResolveDir: dir,
			Loader:     api.LoaderJS,
		},
		Bundle:  true,
		Write:   false,
		Outdir:  "out",
		Plugins: []api.Plugin{Plugin(Options{BaseURL: "/app/"})},
	})

	require.Empty(t, result.Errors)
}

func TestPluginDefaultsToProductionMode(t *testing.T) {
	require.Equal(t, "production", mode(nil))
	require.Equal(t, "production", mode(&api.BuildOptions{}))
	require.Equal(t, "test", mode(&api.BuildOptions{Define: map[string]string{"process.env.NODE_ENV": `"test"`}}))
}
