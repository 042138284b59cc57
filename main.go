// Package main is the entry point for the Warden correlation engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"warden/bootstrap"
	"warden/cmd"
)

// run initializes and starts the correlation service.
func run(cfgPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewApp(ctx, cfgPath)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	app.WaitForShutdown()
	app.Shutdown()
	return nil
}

func main() {
	// CLI subcommand dispatch; anything else runs the service.
	if len(os.Args) > 1 && os.Args[1] == "replay" {
		replayCmd := cmd.NewReplayCmd()
		replayCmd.SetArgs(os.Args[2:])
		if err := replayCmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfgPath := flag.String("config", "", "path to warden config file")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
