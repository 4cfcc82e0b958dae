package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"factsheet/pkg/contracts"
)

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print version information" }
func (*versionCmd) Usage() string          { return "factsheet version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Println(contracts.GetFullVersionString())
	return subcommands.ExitSuccess
}
