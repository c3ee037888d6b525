package commands

import (
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/logger"
)

type PreviewCmd struct {
	Site SiteFlags `embed:""`
}

func (c *PreviewCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	pipeline, site, err := loadPipeline(c.Site)
	if err != nil {
		return err
	}

	// Preview never rebuilds, it serves what the last build wrote.
	if err := pipeline.VerifyBuilt(); err != nil {
		return err
	}

	log.Info().
		Str("addr", site.Preview.Addr()).
		Str("base_path", site.BasePath).
		Msg("Preview server listening")

	return runServer(log, configureHTTPServer(site.Preview.Addr(), pipeline.Handler()))
}
