// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command constellation-pipeline runs the satellite constellation data
// processing pipeline end to end: it loads upstream trajectory
// artifacts, synthesizes handover events, filters elevation, optimizes
// the satellite pool, validates the result, and writes the canonical
// output artifact.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/errkind"
	"github.com/luxfi/constellation/orchestrator"
	"github.com/luxfi/constellation/runctx"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	rc := runctx.New(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	timeout := cfg.Stage5FullTimeout + cfg.Stage6Timeout
	if cfg.SampleMode {
		timeout = cfg.Stage5SampleTimeout
	}
	runCtx, runCancel := context.WithTimeout(ctx, timeout)
	defer runCancel()

	runID := uuid.NewString()

	start := time.Now()
	_, err = orchestrator.Run(runCtx, rc, runID)
	elapsed := time.Since(start)

	if err != nil {
		if classified, ok := errkind.As(err); ok {
			rc.Logger.Error("pipeline run failed")
			fmt.Fprintf(os.Stderr, "run %s failed after %s: %s\n", runID, elapsed, classified.Error())
			return classified.Kind.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "run %s failed after %s: %v\n", runID, elapsed, err)
		return 1
	}

	fmt.Printf("run %s completed in %s\n", runID, elapsed)
	return 0
}
