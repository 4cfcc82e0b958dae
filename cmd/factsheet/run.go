package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"factsheet/internal/pipeline"
	"factsheet/pkg/contracts/domain"
)

type runCmd struct {
	funds     string
	open      bool
	upload    bool
	keepGoing bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "build the factsheets of the selected funds" }
func (*runCmd) Usage() string {
	return `factsheet run [-funds <name>|ALL] [-open] [-upload] [-continue]

  Builds the workbook and PDF of every selected fund below data/funds,
  printing status lines as the run progresses.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.funds, "funds", domain.AllFunds, "fund directory name, or ALL")
	f.BoolVar(&c.open, "open", false, "open each exported PDF")
	f.BoolVar(&c.upload, "upload", false, "upload each exported PDF")
	f.BoolVar(&c.keepGoing, "continue", false, "keep going after a fund fails")
}

func (c *runCmd) settings() (domain.Settings, error) {
	s := domain.Settings{
		FundSelection:          c.funds,
		OpenExportedDocument:   c.open,
		UploadExportedDocument: c.upload,
	}
	return s, s.Validate()
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	settings, err := c.settings()
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitUsageError
	}

	env, err := loadEnvironment(*configPath)
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	defer env.close()
	if c.keepGoing {
		env.cfg.Batch.ContinueOnError = true
	}
	if err := env.withTelemetry(); err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}

	p, err := env.pipeline(pipeline.NewWriterSink(os.Stdout))
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
