// Package cmd provides Warden's command-line subcommands.
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"warden/config"
	"warden/core"
	"warden/correlate"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// maxReplayLineBytes bounds a single JSONL record during replay.
const maxReplayLineBytes = 1 << 20

// NewReplayCmd builds the `warden replay` command: feed a recorded event
// stream (one ValidatedEvent JSON object per line) through a fresh engine
// and print the resulting detections as JSON, one per line. Replaying the
// same file with the same configuration reproduces the identical detection
// sequence, evidence hashes included; that is the audit contract.
func NewReplayCmd() *cobra.Command {
	var (
		cfgPath string
		quiet   bool
	)

	replayCmd := &cobra.Command{
		Use:   "replay <events.jsonl>",
		Short: "Replay a recorded event stream through a fresh correlation engine",
		Long: `Replay reads validated events from a JSONL file, runs each through a
fresh correlation engine and prints every detection result as a JSON line.
Dropped events (ordering violations, rejected transitions, resource limits)
are reported on stderr and do not stop the replay; state corruption halts it,
exactly as it halts the live engine.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args[0], cfgPath, quiet)
		},
	}
	replayCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to warden config file")
	replayCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-event drop reports")
	return replayCmd
}

func runReplay(ctx context.Context, eventsPath, cfgPath string, quiet bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	engine, err := correlate.New(cfg.Engine, nil, zap.NewNop().Sugar())
	if err != nil {
		return err
	}

	f, err := os.Open(eventsPath)
	if err != nil {
		return fmt.Errorf("opening event stream %s: %w", eventsPath, err)
	}
	defer f.Close()

	enc := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLineBytes)

	line := 0
	detections := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var ev core.ValidatedEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("line %d: malformed event: %w", line, err)
		}

		res, err := engine.Process(ctx, &ev)
		if err != nil {
			var halted *core.HaltedError
			if errors.As(err, &halted) {
				return fmt.Errorf("line %d: %w", line, halted)
			}
			if !quiet {
				fmt.Fprintf(os.Stderr, "line %d: %v\n", line, err)
			}
			continue
		}
		if res != nil {
			detections++
			if err := enc.Encode(res); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event stream: %w", err)
	}

	fmt.Fprintf(os.Stderr, "replayed %d events, %d detections\n", line, detections)
	return nil
}
