package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"factsheet/internal/bootstrap"
)

type initCmd struct {
	force     bool
	noSamples bool
	out       io.Writer
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "write a deployment root with a template and sample funds" }
func (*initCmd) Usage() string {
	return `factsheet init [-force] [-no-samples]

  Writes template/template.xlsx, data/common/intro.docx,
  data/common/disclaimer.md, the control workbook and the sample funds
  "Fund A" and "Fund B" below the configured root. Existing files are
  kept unless -force is given.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "overwrite existing files")
	f.BoolVar(&c.noSamples, "no-samples", false, "do not write the sample funds")
}

func (c *initCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	out := c.out
	if out == nil {
		out = os.Stdout
	}

	env, err := loadEnvironment(*configPath)
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	defer env.close()

	summary, err := bootstrap.Init(env.cfg, bootstrap.Options{Force: c.force, SkipSamples: c.noSamples}, env.logger)
	if summary != nil {
		for _, p := range summary.Written {
			fmt.Fprintf(out, "wrote  %s\n", p)
		}
		for _, p := range summary.Skipped {
			fmt.Fprintf(out, "kept   %s\n", p)
		}
	}
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
