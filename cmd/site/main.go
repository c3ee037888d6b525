package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/syang0624/NASASpaceAppsChallenge2024/cmd/site/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag
		Build   commands.BuildCmd   `cmd:"" help:"Build the production bundle"`
		Dev     commands.DevCmd     `cmd:"" help:"Serve the app, rebuilding as sources change"`
		Preview commands.PreviewCmd `cmd:"" help:"Serve the output of the last build"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
