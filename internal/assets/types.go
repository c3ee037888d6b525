package assets

import (
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/buildcfg"
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Pipeline drives the build engine for the site: one shot production builds,
// incremental rebuilds for the dev server, and lookup of built asset URLs for
// page rendering. The engine itself (bundling, transforms, chunking) is
// esbuild; the pipeline only assembles its options from the site Config and
// mounts its output.
type Pipeline struct {
	site     buildcfg.Config
	config   Config
	metadata *BuildMetadata
	context  api.BuildContext
	mu       sync.RWMutex
}

// New creates a pipeline for the given site and engine configuration
func New(site buildcfg.Config, config Config) *Pipeline {
	return &Pipeline{
		site:   site,
		config: config,
	}
}
