// Package cmd provides the CLI commands for wikisearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/copetopi/wikisearch/internal/config"
	apperrors "github.com/copetopi/wikisearch/internal/errors"
	"github.com/copetopi/wikisearch/internal/logging"
	"github.com/copetopi/wikisearch/pkg/version"
)

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip_config"

// app holds state shared by the commands of one invocation.
type app struct {
	configPath string
	debug      bool

	cfg     *config.Config
	logger  *slog.Logger
	cleanup func()
}

// NewRootCmd creates the root command for the wikisearch CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "wikisearch",
		Short: "Keyword search over a Confluence wiki",
		Long: `wikisearch crawls every page of every global space of a Confluence wiki
into a local full-text index and answers keyword queries against it.

Build the index once with 'wikisearch build', then query it with
'wikisearch search <words>'. Queries match stemmed words, so "ranking"
finds pages that mention "ranked" or "ranks".`,
		Version:       version.Version,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("wikisearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: .wikisearch.yaml in the working directory)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to ~/.wikisearch/logs/")

	cmd.PersistentPreRunE = a.start
	cmd.PersistentPostRunE = a.stop

	cmd.AddCommand(newBuildCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newInfoCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// start loads configuration and installs the logger.
func (a *app) start(cmd *cobra.Command, _ []string) error {
	// Arguments are valid once we get here; runtime failures need no usage dump.
	cmd.SilenceUsage = true

	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load(".")
	}
	if err != nil {
		return err
	}

	if a.debug {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		a.logger = logger
		a.cleanup = cleanup
		a.logger.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	} else {
		a.logger = logging.NewStderrLogger(cmd.ErrOrStderr(), a.cfg.Logging.Level)
	}
	slog.SetDefault(a.logger)

	return nil
}

// stop flushes and closes the debug log.
func (a *app) stop(_ *cobra.Command, _ []string) error {
	if a.cleanup != nil {
		a.logger.Info("debug_logging_stopped")
		a.cleanup()
		a.cleanup = nil
	}
	return nil
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		printError(root, err)
	}
	return err
}

func printError(cmd *cobra.Command, err error) {
	if _, ok := apperrors.As(err); ok {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), apperrors.FormatForCLI(err))
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}
