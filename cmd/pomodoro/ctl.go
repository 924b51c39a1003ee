package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pomodoro/internal/console"
	"pomodoro/internal/ipc"
)

const ctlTimeout = 5 * time.Second

func (c *cli) newCtlCmd() *cobra.Command {
	ctl := &cobra.Command{
		Use:   "ctl",
		Short: "Control a timer started with --control",
		Long:  `Sends commands to a running timer over its Unix socket (see --socket).`,
	}
	for _, sub := range []struct {
		use, short, name string
	}{
		{"status", "Show the running timer's phase and remaining time", ipc.CmdGetStatus},
		{"pause", "Pause the running timer", ipc.CmdPause},
		{"resume", "Resume the running timer", ipc.CmdResume},
		{"toggle", "Toggle pause on the running timer", ipc.CmdTogglePause},
		{"quit", "Stop the running timer", ipc.CmdQuit},
		{"ping", "Check that a timer is listening", ipc.CmdPing},
	} {
		name := sub.name
		ctl.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := c.loadConfig(cmd)
				if err != nil {
					return err
				}
				return sendCommand(cmd.Context(), cmd.OutOrStdout(), cfg.SocketPath, ipc.Command{Name: name})
			},
		})
	}
	return ctl
}

func sendCommand(ctx context.Context, out io.Writer, socketPath string, cmd ipc.Command) error {
	ctx, cancel := context.WithTimeout(ctx, ctlTimeout)
	defer cancel()

	resp, err := ipc.Send(ctx, socketPath, cmd)
	if err != nil {
		return err
	}
	if !resp.Success {
		return errors.New(resp.Message)
	}
	if resp.Data != nil {
		return printStatus(out, resp.Data)
	}
	fmt.Fprintln(out, resp.Message)
	return nil
}

func printStatus(out io.Writer, s *ipc.StatusData) error {
	phase, err := s.CurrentPhase()
	if err != nil {
		return fmt.Errorf("failed to read timer status: %w", err)
	}
	state := "running"
	if s.Paused {
		state = "paused"
	}
	fmt.Fprintf(out, "Phase:     %s (%s)\n", phase.Label(), state)
	fmt.Fprintf(out, "Remaining: %s\n", console.FormatDuration(time.Duration(s.RemainingSecs*float64(time.Second))))
	fmt.Fprintf(out, "Cycles:    %d\n", s.CyclesCompleted)
	return nil
}
