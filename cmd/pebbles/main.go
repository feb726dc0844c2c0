package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the pebbles game server"`
	Play     PlayCmd          `cmd:"" help:"Play against a remote server"`
	Local    LocalCmd         `cmd:"" help:"Play against the automated player in this process"`
	Simulate SimulateCmd      `cmd:"" help:"Play many automated games and report win rates"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pebbles"),
		kong.Description("Take-away pebble game against an automated opponent"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
