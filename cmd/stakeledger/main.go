package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" default:"stakeledger.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	NoColor  bool   `help:"Disable colored output"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Serve    ServeCmd         `cmd:"" help:"Run the HTTP API"`
	Sessions SessionsCmd      `cmd:"" help:"List saved sessions"`
	Show     ShowCmd          `cmd:"" help:"Show a saved session"`
	Delete   DeleteCmd        `cmd:"" help:"Delete a saved session"`
	Replay   ReplayCmd        `cmd:"" help:"Replay a file of session commands"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("stakeledger"),
		kong.Description("Round settlement ledger for card game sessions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
