package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/assets"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/buildcfg"
)

type Globals struct {
	Debug   bool
	Version string
}

// SiteFlags configure the front-end project layout, shared by all commands.
type SiteFlags struct {
	Root       string `help:"front-end project root" default:"." env:"SITE_ROOT"`
	EntryPoint string `help:"bundle entry point relative to root" default:"src/main.jsx"`
	Minify     bool   `help:"minify built output" default:"true" negatable:""`
	SourceMap  bool   `help:"emit source maps" default:"true" negatable:""`
}

func (f SiteFlags) assetsConfig() assets.Config {
	cfg := assets.DefaultConfig()
	cfg.Root = f.Root
	cfg.EntryPoint = f.EntryPoint
	cfg.Minify = f.Minify
	cfg.SourceMap = f.SourceMap
	return cfg
}

// loadPipeline resolves the site configuration from the process environment
// and constructs the asset pipeline. A bad PORT value aborts startup here,
// before any build runs or socket opens.
func loadPipeline(flags SiteFlags) (*assets.Pipeline, buildcfg.Config, error) {
	site, err := buildcfg.Load(buildcfg.Environ(os.Environ()))
	if err != nil {
		return nil, buildcfg.Config{}, err
	}
	return assets.New(site, flags.assetsConfig()), site, nil
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	// Create HTTP server
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// runServer serves until the process receives SIGINT or SIGTERM, then drains
// in-flight requests before returning.
func runServer(log zerolog.Logger, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
