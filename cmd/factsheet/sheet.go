package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/subcommands"

	"factsheet/internal/bootstrap"
	reporterrors "factsheet/internal/errors"
	"factsheet/internal/pipeline"
	"factsheet/internal/workbook"
)

type sheetCmd struct {
	workbook string
}

func (*sheetCmd) Name() string     { return "sheet" }
func (*sheetCmd) Synopsis() string { return "run with the settings of the control workbook" }
func (*sheetCmd) Usage() string {
	return `factsheet sheet [-workbook <path>]

  Reads Fund Selection, Open PDFs and Upload PDFs from the control workbook
  and writes the run status into its status cell. The status cell is
  cleared when the run ends.
`
}

func (c *sheetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.workbook, "workbook", "", "control workbook (default <root>/"+bootstrap.ControlWorkbookName+")")
}

func (c *sheetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := loadEnvironment(*configPath)
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	defer env.close()

	path := c.workbook
	if path == "" {
		path = filepath.Join(env.cfg.Paths.Root, bootstrap.ControlWorkbookName)
	}
	book, err := workbook.Open(path, env.logger)
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	defer book.Close()

	settings, err := book.Settings()
	if err != nil {
		stderr("%v", reporterrors.InvalidSettings(err))
		return subcommands.ExitFailure
	}
	status, err := book.StatusCell()
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}

	if err := env.withTelemetry(); err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	p, err := env.pipeline(pipeline.MultiSink{status, pipeline.NewLogSink(env.logger)})
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx, settings)
	printResult(os.Stdout, result)
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
