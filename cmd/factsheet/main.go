// Command factsheet builds per-fund factsheet reports.
//
//	factsheet init             write a deployment root with samples
//	factsheet run -funds ALL   run the pipeline from the command line
//	factsheet sheet            run with settings read from the control workbook
//	factsheet serve            start the web front end
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "", "path to a factsheet.yaml or factsheet.toml file")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(commander *subcommands.Commander) {
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&initCmd{}, "")
	commander.Register(&runCmd{}, "")
	commander.Register(&sheetCmd{}, "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&versionCmd{}, "")
}
