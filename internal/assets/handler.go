package assets

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Handler serves the app under the configured base path: "/" redirects into
// it, built assets come from the output directory, public files are served
// verbatim, and unknown paths fall back to the index page so client side
// routes resolve.
//
// The same handler backs both serve modes. In dev the index page is rendered
// from the live build metadata; in preview no build has run in-process, so
// the index.html written by the last production build is served from disk.
func (p *Pipeline) Handler() http.Handler {
	base := p.site.BasePath

	app := &appHandler{
		pipeline: p,
		out:      http.FileServer(http.Dir(p.config.outDirPath())),
		public:   http.FileServer(http.Dir(p.config.publicDirPath())),
	}

	mux := http.NewServeMux()
	if base != "/" {
		mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, base, http.StatusFound)
		})
	}
	mux.Handle(base, http.StripPrefix(strings.TrimSuffix(base, "/"), app))

	return mux
}

type appHandler struct {
	pipeline *Pipeline
	out      http.Handler
	public   http.Handler
}

func (h *appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	if name == "" || name == "index.html" {
		h.pipeline.serveIndex(w, r)
		return
	}

	if fileExists(filepath.Join(h.pipeline.config.outDirPath(), name)) {
		h.out.ServeHTTP(w, r)
		return
	}

	if fileExists(filepath.Join(h.pipeline.config.publicDirPath(), name)) {
		h.public.ServeHTTP(w, r)
		return
	}

	// Client side routes resolve to the index page.
	h.pipeline.serveIndex(w, r)
}

func (p *Pipeline) serveIndex(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	built := p.metadata != nil
	p.mu.RUnlock()

	if !built {
		http.ServeFile(w, r, p.config.indexPath())
		return
	}

	var buf bytes.Buffer
	if err := p.renderIndex(&buf); err != nil {
		log.Error().Err(err).Msg("Failed to render index")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// VerifyBuilt confirms a production build exists in the output directory.
// Preview serves only what build wrote, so a missing index page means build
// has not run yet.
func (p *Pipeline) VerifyBuilt() error {
	if !fileExists(p.config.indexPath()) {
		return fmt.Errorf("%s not found, run build first", p.config.indexPath())
	}
	return nil
}

func fileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}
