package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"factsheet/internal/app"
)

type serveCmd struct {
	port int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "start the web front end" }
func (*serveCmd) Usage() string {
	return `factsheet serve [-port <port>]

  Serves POST /api/runs, GET /api/status, GET /api/runs/last, GET /ws,
  GET /healthz and GET /metrics until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "listen port (overrides the configuration)")
}

func (c *serveCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := loadEnvironment(*configPath)
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	defer env.close()
	if c.port > 0 {
		env.cfg.Server.Port = c.port
	}

	application, err := app.NewApplication(env.cfg, env.logger)
	if err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	if err := application.Run(); err != nil {
		stderr("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
