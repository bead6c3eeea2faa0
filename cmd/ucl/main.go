package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
)

var version = "dev"

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	NoColor bool
}

// CLI defines the command line structure
type CLI struct {
	Config  string           `help:"Configuration file path" short:"c" type:"path"`
	Verbose bool             `help:"Enable verbose output" short:"v"`
	NoColor bool             `help:"Disable colored output"`
	Version kong.VersionFlag `help:"Show version"`

	Check   CheckCmd   `cmd:"" help:"Parse UCL files and report errors"`
	Convert ConvertCmd `cmd:"" help:"Convert a UCL file to YAML or JSON"`
	Tokens  TokensCmd  `cmd:"" help:"Dump the token stream of a UCL file"`
}

func main() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("ucl"),
		kong.Description("UCL configuration language tool"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	appCtx := &Context{
		Config:  cli.Config,
		Verbose: cli.Verbose,
		NoColor: cli.NoColor,
	}
	if cli.NoColor {
		color.NoColor = true
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
