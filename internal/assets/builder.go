package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// Build runs a one shot production build: clear the output directory, bundle
// the entry point, persist the metafile, copy the public directory and render
// index.html against the fresh metadata.
func (p *Pipeline) Build() error {
	if err := p.emptyOutDir(); err != nil {
		return err
	}

	log.Info().Str("entrypoint", p.config.entryPath()).Msg("Building assets")

	result := api.Build(p.buildOptions())
	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		return errors.New("esbuild failed with errors")
	}

	// The OnEnd hook already cached the parsed metadata; keep the raw
	// metafile next to the output for preview and debugging.
	if err := os.WriteFile(p.config.metafilePath(), []byte(result.Metafile), 0600); err != nil {
		return err
	}

	if err := p.copyPublic(); err != nil {
		return err
	}

	return p.writeIndex()
}

// Watch starts an incremental build context and rebuilds whenever a source
// file changes. The first build completes before Watch returns so the dev
// server never serves an empty tree. Cancelling ctx disposes the context and
// stops the watcher.
func (p *Pipeline) Watch(ctx context.Context) error {
	if err := p.emptyOutDir(); err != nil {
		return err
	}

	buildCtx, ctxErr := api.Context(p.buildOptions())
	if ctxErr != nil {
		return ctxErr
	}

	result := buildCtx.Rebuild()
	if len(result.Errors) > 0 {
		buildCtx.Dispose()
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		return errors.New("esbuild failed with errors")
	}

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		buildCtx.Dispose()
		return err
	}

	p.mu.Lock()
	p.context = buildCtx
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		buildCtx.Dispose()
	}()

	log.Info().Str("entrypoint", p.config.entryPath()).Msg("Watching assets")
	return nil
}

func (p *Pipeline) buildOptions() api.BuildOptions {
	define := map[string]string{
		"process.env.NODE_ENV": cond(p.config.Minify, `"production"`, `"development"`),
	}
	maps.Copy(define, p.config.Define)

	return api.BuildOptions{
		EntryPoints:       []string{p.config.entryPath()},
		Bundle:            true,
		Splitting:         true,
		Write:             true,
		JSX:               api.JSXAutomatic,
		Outdir:            p.config.outDirPath(),
		EntryNames:        "[name]-[hash]",
		ChunkNames:        "chunks/[name]-[hash]",
		AssetNames:        "assets/[name]-[hash]",
		PublicPath:        strings.TrimSuffix(p.site.BasePath, "/"),
		Format:            api.FormatESModule,
		MinifyWhitespace:  p.config.Minify,
		MinifyIdentifiers: p.config.Minify,
		MinifySyntax:      p.config.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(p.config.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:          true,
		Define:            define,
		Loader: map[string]api.Loader{
			".png":   api.LoaderFile,
			".jpg":   api.LoaderFile,
			".jpeg":  api.LoaderFile,
			".gif":   api.LoaderFile,
			".svg":   api.LoaderFile,
			".webp":  api.LoaderFile,
			".ico":   api.LoaderFile,
			".woff":  api.LoaderFile,
			".woff2": api.LoaderFile,
		},
		Plugins: append(slices.Clone(p.site.Plugins), p.metadataPlugin()),
	}
}

// metadataPlugin refreshes the cached metadata after every successful build,
// including incremental rebuilds in watch mode, so rendered asset URLs always
// point at chunks that exist on disk.
func (p *Pipeline) metadataPlugin() api.Plugin {
	return api.Plugin{
		Name: "pipeline-metadata",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}

				metadata, err := parseMetadata(result.Metafile)
				if err != nil {
					return api.OnEndResult{}, err
				}

				p.mu.Lock()
				p.metadata = metadata
				p.mu.Unlock()

				return api.OnEndResult{}, nil
			})
		},
	}
}

func parseMetadata(metafile string) (*BuildMetadata, error) {
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(metafile), &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// Assets returns the built entry module URL plus the module preloads and
// stylesheets it needs, all prefixed with the public base path.
func (p *Pipeline) Assets() (entry string, preloads []string, styles []string, err error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return "", nil, nil, errors.New("assets not built yet, call Build or Watch first")
	}

	// Single entry pipeline: the one output with an entryPoint is ours.
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == "" {
			continue
		}

		entry = p.assetURL(outputPath)
		if info.CSSBundle != "" {
			styles = append(styles, p.assetURL(info.CSSBundle))
		}

		visited := map[string]bool{outputPath: true}
		p.addPreloads(info, &preloads, visited)

		return entry, preloads, styles, nil
	}

	return "", nil, nil, errors.New("entrypoint not found in build metadata")
}

func (p *Pipeline) addPreloads(output OutputInfo, preloads *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.Kind != "import-statement" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true
		*preloads = append(*preloads, p.assetURL(imp.Path))

		if chunk, exists := p.metadata.Outputs[imp.Path]; exists {
			p.addPreloads(chunk, preloads, visited)
		}
	}
}

// assetURL maps a metafile output path (relative to the working directory)
// onto its public URL under the base path.
func (p *Pipeline) assetURL(outputPath string) string {
	out, err := filepath.Abs(p.config.outDirPath())
	if err != nil {
		return p.site.BasePath + path.Base(outputPath)
	}

	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return p.site.BasePath + path.Base(outputPath)
	}

	rel, err := filepath.Rel(out, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p.site.BasePath + path.Base(outputPath)
	}

	return p.site.BasePath + filepath.ToSlash(rel)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>{{ .Title }}</title>
{{- range .Styles }}
    <link rel="stylesheet" href="{{ . }}" />
{{- end }}
{{- range .Preloads }}
    <link rel="modulepreload" href="{{ . }}" />
{{- end }}
  </head>
  <body>
    <div id="root"></div>
{{- range .Scripts }}
    <script type="module" src="{{ . }}"></script>
{{- end }}
  </body>
</html>
`))

type indexData struct {
	Title    string
	Base     string
	Styles   []string
	Preloads []string
	Scripts  []string
}

func (p *Pipeline) renderIndex(w io.Writer) error {
	entry, preloads, styles, err := p.Assets()
	if err != nil {
		return err
	}

	return indexTemplate.Execute(w, indexData{
		Title:    p.config.Title,
		Base:     p.site.BasePath,
		Styles:   styles,
		Preloads: preloads,
		Scripts:  []string{entry},
	})
}

func (p *Pipeline) writeIndex() error {
	var buf bytes.Buffer
	if err := p.renderIndex(&buf); err != nil {
		return err
	}
	return os.WriteFile(p.config.indexPath(), buf.Bytes(), 0600)
}

// copyPublic copies the public directory verbatim into the output directory.
// A missing public directory is not an error.
func (p *Pipeline) copyPublic() error {
	public := p.config.publicDirPath()

	info, err := os.Stat(public)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return os.CopyFS(p.config.outDirPath(), os.DirFS(public))
}

// emptyOutDir clears previous build output. It refuses to delete a directory
// that is not strictly inside the project root.
func (p *Pipeline) emptyOutDir() error {
	root, err := filepath.Abs(p.config.Root)
	if err != nil {
		return err
	}

	out, err := filepath.Abs(p.config.outDirPath())
	if err != nil {
		return err
	}

	if !strings.HasPrefix(out, root+string(filepath.Separator)) {
		return fmt.Errorf("output directory %s is outside the project root %s", out, root)
	}

	if err := os.RemoveAll(out); err != nil {
		return err
	}

	return os.MkdirAll(out, 0750)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
