package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pomodoro/internal/app"
	"pomodoro/internal/config"
	"pomodoro/internal/console"
	"pomodoro/internal/tcellui"
	"pomodoro/internal/tui"
)

// cli holds what one invocation of the binary shares between commands.
type cli struct {
	logFile *os.File
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pomodoro",
		Short:         "Terminal Pomodoro timer",
		Long:          `Runs work sessions and breaks back to back in the terminal. Press 'p' to pause or resume and 'q' to quit.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		// The timer options are parsed by config.Parse so that help and bad
		// flags come back as errors before any timer starts.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Parse(args)
			if err != nil {
				return err
			}
			if err := c.startLogging(cfg); err != nil {
				return err
			}
			frontend, err := newFrontend(cfg)
			if err != nil {
				return err
			}
			if err := app.NewApp(*cfg, frontend).Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Exiting Pomodoro Timer. Goodbye!")
			return nil
		},
	}
	// Subcommands still parse these through cobra.
	config.RegisterFlags(root.PersistentFlags())

	root.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _, err := root.Find(args)
			if err != nil || target == root {
				_, err := config.Parse([]string{"--help"})
				return err
			}
			return target.Help()
		},
	})
	root.AddCommand(c.newConfigCmd())
	root.AddCommand(c.newCtlCmd())
	return root
}

func (c *cli) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// loadConfig resolves the configuration for a subcommand and starts logging
// where it says to.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := c.startLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// startLogging sends log output to cfg.LogPath, which may come from --log,
// POMODORO_LOG or the log key of a config file.
func (c *cli) startLogging(cfg *config.Config) error {
	f, err := setupLogging(cfg.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	log.Printf("Configuration: %+v", *cfg)
	return nil
}

func (c *cli) close() {
	if c.logFile != nil {
		c.logFile.Close()
		c.logFile = nil
	}
}

// setupLogging configures the log output destination. The terminal is the
// status display, so without a path log output is discarded.
func setupLogging(logFilePath string) (*os.File, error) {
	if logFilePath == "" {
		log.SetOutput(io.Discard) // Nothing may write over the status line
		return nil, nil
	}

	// Create the parent directory on first use
	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	// Append so that consecutive sessions share one file
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logFilePath, err)
	}

	log.SetOutput(file)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile) // Timestamps down to the microsecond plus the caller
	log.Printf("Logging to file: %s", logFilePath)
	return file, nil
}

func newFrontend(cfg *config.Config) (app.Frontend, error) {
	switch cfg.Frontend {
	case config.FrontendPlain:
		return console.NewTerminal(os.Stdin, os.Stdout), nil
	case config.FrontendTUI:
		return tui.New(os.Stdin, os.Stdout, tui.WithAltScreen()), nil
	case config.FrontendTcell:
		return tcellui.New(nil), nil
	default:
		return nil, fmt.Errorf("%w: unknown ui %q", config.ErrInvalidConfig, cfg.Frontend)
	}
}

// run executes the command line and returns the process exit code: 0 after
// a normal quit, 1 for a help request, a configuration error or a failure
// while running.
func run(args []string, stdout, stderr io.Writer) int {
	// Config loading logs before the destination is known
	log.SetOutput(io.Discard)

	c := &cli{}
	defer c.close()

	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	switch {
	case err == nil:
		return 0
	case errors.Is(err, config.ErrHelp):
		fmt.Fprint(stderr, err.Error())
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
