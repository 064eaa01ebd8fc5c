package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/odysseus0/rssant/internal/api"
	"github.com/odysseus0/rssant/internal/config"
)

// Execute loads configuration and runs the command tree until it finishes or
// the process is interrupted.
func Execute() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(cfg).ExecuteContext(ctx)
}

func NewRootCmd(cfg config.Config) *cobra.Command {
	var output string
	var outFmt OutputFormat
	var verbose bool
	var app *App
	var log *zap.Logger

	output = string(OutputTable)

	getApp := func() *App { return app }
	getOutput := func() OutputFormat { return outFmt }
	closeApp := func() error {
		if app == nil {
			return nil
		}
		err := app.Close()
		app = nil
		return err
	}

	cmd := &cobra.Command{
		Use:           "rssant",
		Short:         "Command-line client for an RSSAnt server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			parsedFmt, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			outFmt = parsedFmt

			if log == nil {
				if log, err = newLogger(verbose); err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
			}
			if !requiresApp(cmd) || app != nil {
				return nil
			}
			if err := config.ValidateBaseURL(cfg.BaseURL); err != nil {
				return fmt.Errorf("%w: base url: %v", api.ErrValidation, err)
			}
			a, err := NewApp(cmd.Context(), cfg, log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfg.StatePath, "state", cfg.StatePath, "SQLite state file path")
	cmd.PersistentFlags().StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "RSSAnt server base URL")
	cmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "Report failed API calls and server timing")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", output, "Output format: table, json, wide")

	cmd.AddCommand(newGetCmd(getApp, getOutput))
	cmd.AddCommand(newAddCmd(getApp, getOutput))
	cmd.AddCommand(newUpdateCmd(getApp, getOutput))
	cmd.AddCommand(newRemoveCmd(getApp, getOutput))
	cmd.AddCommand(newSelectCmd(getApp, getOutput))
	cmd.AddCommand(newCurrentCmd(getApp, getOutput))
	cmd.AddCommand(newImportCmd(getApp, getOutput))
	cmd.AddCommand(newExportCmd(getApp, getOutput))

	closeAfterRun(cmd, closeApp)
	return cmd
}

// closeAfterRun wraps every RunE in the tree so the app is closed, and its
// state saved, whether or not the command succeeded.
func closeAfterRun(root *cobra.Command, closeApp func() error) {
	for _, c := range root.Commands() {
		closeAfterRun(c, closeApp)
	}
	if root.RunE == nil {
		return
	}
	run := root.RunE
	root.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		return errors.Join(err, closeApp())
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

func parseOutputFormat(raw string) (OutputFormat, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch OutputFormat(s) {
	case OutputTable, OutputJSON, OutputWide:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("%w: invalid output format %q (expected table|json|wide)", api.ErrValidation, raw)
	}
}

func requiresApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		name := c.Name()
		if name == "help" || name == "completion" {
			return false
		}
	}
	return true
}

func requireApp(getApp func() *App) (*App, error) {
	app := getApp()
	if app == nil {
		return nil, errors.New("app not initialized")
	}
	return app, nil
}
