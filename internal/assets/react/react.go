// Package react wires the React framework integration into the build
// pipeline: plain .js application sources are loaded as JSX, and a virtual
// module exposes the app environment (base URL, mode) to client code.
package react

import (
	"fmt"
	"os"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Options configures the framework plugin.
type Options struct {
	// BaseURL is the public URL prefix exported to the app through the
	// virtual:app-env module.
	BaseURL string
}

const envModule = "virtual:app-env"

// Plugin returns the framework integration plugin. Keep it first in the
// plugin list so later plugins see the rewritten loads.
func Plugin(opts Options) api.Plugin {
	return api.Plugin{
		Name: "react",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + envModule + "$"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: "app-env"}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: "app-env"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := envModuleSource(opts.BaseURL, mode(build.InitialOptions))
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})

			// Application .js sources may contain JSX, so load them with the
			// JSX loader. node_modules stay on the default loader.
			build.OnLoad(api.OnLoadOptions{Filter: `\.js$`},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					if strings.Contains(args.Path, "node_modules") {
						return api.OnLoadResult{}, nil
					}

					source, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					contents := string(source)
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJSX}, nil
				})
		},
	}
}

func envModuleSource(baseURL, mode string) string {
	return fmt.Sprintf("export const BASE_URL = %q;\nexport const MODE = %q;\n", baseURL, mode)
}

// mode derives the runtime mode from the NODE_ENV define the pipeline sets.
func mode(opts *api.BuildOptions) string {
	if opts == nil {
		return "production"
	}
	if v, ok := opts.Define["process.env.NODE_ENV"]; ok {
		return strings.Trim(v, `"`)
	}
	return "production"
}
