package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/matheus3301/mingle/internal/app"
	"github.com/matheus3301/mingle/internal/session"
)

var (
	profileFlag string
	verboseFlag bool
	jsonFlag    bool
)

func main() {
	root := &cobra.Command{
		Use:           "minglectl",
		Short:         "Scriptable Mingle client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&profileFlag, "profile", "", "profile name (overrides config default)")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log to stderr")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")

	root.AddCommand(
		identifyCmd(),
		signUpCmd(),
		signInCmd(),
		logoutCmd(),
		whoamiCmd(),
		chatsCmd(),
		groupsCmd(),
		contactsCmd(),
		showCmd(),
		sendCmd(),
		watchCmd(),
		mkgroupCmd(),
		profileCmd(),
		outboxCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// withCore starts the client core for the selected profile, runs fn, and
// shuts the core down again. fn's context is cancelled on SIGINT/SIGTERM.
func withCore(fn func(ctx context.Context, core *app.Core) error) error {
	params, err := app.LoadParams(profileFlag, verboseFlag)
	if err != nil {
		return err
	}

	var core app.Core
	opts := []fx.Option{app.Module(params), app.Populate(&core)}
	if verboseFlag {
		opts = append(opts, app.WithZapLogger())
	} else {
		opts = append(opts, fx.NopLogger)
	}
	fxApp := fx.New(opts...)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = fxApp.Stop(stopCtx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, &core)
}

// signedIn runs fn with the core, failing early when the profile has no session.
func signedIn(fn func(ctx context.Context, core *app.Core) error) error {
	return withCore(func(ctx context.Context, core *app.Core) error {
		if _, ok := core.Account.Current(); !ok {
			return fmt.Errorf("%w: run 'minglectl signin' first", session.ErrNoSession)
		}
		return fn(ctx, core)
	})
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exactArgs is cobra.ExactArgs with a usage hint.
func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.New("usage: minglectl " + usage)
		}
		return nil
	}
}
