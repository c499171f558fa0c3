package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/zeta-vcs/zeta-subset/pkg/command"
)

type App struct {
	command.Globals
	Rewrite        command.Rewrite        `cmd:"" default:"withargs" help:"Rewrite a history down to a whitelisted set of paths"`
	ValidateFilter command.ValidateFilter `cmd:"validate-filter" help:"Parse and compile a filter file without running a rewrite"`
}

func main() {
	var app App
	ctx := kong.Parse(&app,
		kong.Name("zeta-subset"),
		kong.Description("zeta-subset - rewrite a zeta repository's history down to a whitelisted subset of paths"),
		kong.UsageOnError(),
		kong.Vars{
			"version": "devel",
		},
	)

	now := time.Now()
	err := ctx.Run(&app.Globals)
	if app.Verbose {
		app.DbgPrint("time spent: %v", time.Since(now))
	}
	if err == nil {
		return
	}
	if e, ok := err.(*command.ErrExitCode); ok {
		os.Exit(e.ExitCode)
	}
	fmt.Fprintln(os.Stderr, "zeta-subset:", err)
	os.Exit(127)
}
