package commands

import (
	"context"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/logger"
)

type DevCmd struct {
	Site SiteFlags `embed:""`
}

func (c *DevCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	pipeline, site, err := loadPipeline(c.Site)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pipeline.Watch(ctx); err != nil {
		return err
	}

	log.Info().
		Str("addr", site.Dev.Addr()).
		Str("base_path", site.BasePath).
		Msg("Dev server listening")

	return runServer(log, configureHTTPServer(site.Dev.Addr(), pipeline.Handler()))
}
