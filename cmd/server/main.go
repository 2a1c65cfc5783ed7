package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/wolfeidau/staffdesk/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag
		Serve   commands.ServeCmd   `cmd:"" default:"withargs" help:"Start the web server"`
		Migrate commands.MigrateCmd `cmd:"" help:"Apply PostgreSQL migrations"`
		Seed    commands.SeedCmd    `cmd:"" help:"Load a YAML seed file into the store"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("staffdesk"),
		kong.Description("User and employee management."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
