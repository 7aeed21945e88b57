package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/matheus3301/mingle/internal/app"
	"github.com/matheus3301/mingle/internal/lock"
	"github.com/matheus3301/mingle/internal/tui"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	params, err := app.LoadParams(*profileFlag, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var core app.Core
	fxApp := fx.New(
		app.Module(params),
		app.WithZapLogger(),
		app.Populate(&core),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		var held *lock.HeldError
		if errors.As(err, &held) {
			fmt.Fprintf(os.Stderr, "profile %q is already open in %s (PID %d)\n", params.Profile, held.Program, held.PID)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}

	ui := tui.NewApp(tui.Options{
		Profile:  params.Profile,
		BaseURL:  core.Client.BaseURL(),
		AssetURL: core.Client.AssetURL,
		Account:  core.Account,
		Screens:  core.Screens,
		Machine:  core.Machine,
		Bus:      core.Bus,
		Log:      core.Log,
	})
	runErr := ui.Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
