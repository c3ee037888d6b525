package commands

import (
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/logger"
)

type BuildCmd struct {
	Site SiteFlags `embed:""`
}

func (c *BuildCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	pipeline, site, err := loadPipeline(c.Site)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", globals.Version).
		Str("base_path", site.BasePath).
		Msg("Building site")

	return pipeline.Build()
}
