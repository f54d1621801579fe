package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mtzanidakis/hacksim/internal/config"
	"github.com/mtzanidakis/hacksim/internal/engine"
	"github.com/mtzanidakis/hacksim/internal/export"
	"github.com/mtzanidakis/hacksim/internal/profile"
	"github.com/mtzanidakis/hacksim/internal/sim"
	"github.com/mtzanidakis/hacksim/internal/store"
)

type runOptions struct {
	label        string
	jsonPath     string
	markdownPath string
	archivePath  string
}

func runSim(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := runOptions{label: "cli"}

	for i := 0; i < len(args); i++ {
		flagName := args[i]

		// Every flag takes a value.
		switch flagName {
		case "-profiles", "-runs", "-rounds", "-seed", "-budget", "-throttle", "-replay", "-label", "-json", "-markdown", "-archive":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for %s", flagName)
			}
		default:
			fmt.Fprintf(os.Stderr, "Usage: hacksim run [-profiles <path>] [-runs N] [-rounds N] [-seed N] [-budget N] [-throttle <duration>] [-replay <script>] [-label <text>] [-json <path>] [-markdown <path>] [-archive <path>]\n")
			return fmt.Errorf("unknown flag: %s", flagName)
		}

		switch flagName {
		case "-profiles":
			i++
			cfg.Simulation.ProfilesPath = args[i]
		case "-runs":
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("invalid -runs: %w", err)
			}
			cfg.Simulation.Runs = n
		case "-rounds":
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("invalid -rounds: %w", err)
			}
			cfg.Simulation.Rounds = n
		case "-seed":
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid -seed: %w", err)
			}
			cfg.Simulation.Seed = n
		case "-budget":
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("invalid -budget: %w", err)
			}
			cfg.Simulation.CallBudget = n
		case "-throttle":
			i++
			d, err := time.ParseDuration(args[i])
			if err != nil {
				return fmt.Errorf("invalid -throttle: %w", err)
			}
			cfg.Simulation.ThrottleInterval = d
		case "-replay":
			i++
			cfg.Narrative.Provider = config.ProviderReplay
			cfg.Narrative.ReplayPath = args[i]
		case "-label":
			i++
			opts.label = args[i]
		case "-json":
			i++
			opts.jsonPath = args[i]
		case "-markdown":
			i++
			opts.markdownPath = args[i]
		case "-archive":
			i++
			opts.archivePath = args[i]
		}
	}

	if err := config.ValidateSimulation(cfg.Simulation); err != nil {
		return err
	}

	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	runner := sim.NewRunner(cfg, db, nil)
	roster, err := runner.Roster()
	if err != nil {
		return err
	}

	_, summary, runErr := runner.Execute(ctx, opts.label)

	// A failed run still carries the rounds that finished before the halt.
	if summary != nil {
		if err := export.Text(os.Stdout, summary, roster); err != nil {
			return err
		}
		if err := writeOutputs(summary, roster, opts); err != nil {
			return err
		}
	}

	return runErr
}

func writeOutputs(summary *engine.Summary, roster *profile.Roster, opts runOptions) error {
	if opts.jsonPath != "" {
		data, err := export.JSON(summary)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.jsonPath, data, 0o644); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}

	if opts.markdownPath != "" {
		md := export.Markdown(summary, roster)
		if err := os.WriteFile(opts.markdownPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
	}

	if opts.archivePath != "" {
		artifacts, err := buildArtifacts(summary, roster)
		if err != nil {
			return err
		}
		if err := export.WriteArchive(opts.archivePath, artifacts, time.Now()); err != nil {
			return err
		}
		fmt.Printf("Archive written: %s\n", opts.archivePath)
	}

	return nil
}

func buildArtifacts(summary *engine.Summary, roster *profile.Roster) ([]export.Artifact, error) {
	data, err := export.JSON(summary)
	if err != nil {
		return nil, err
	}
	return []export.Artifact{
		{Name: "summary.json", Data: data},
		{Name: "leaderboard.md", Data: []byte(export.Markdown(summary, roster))},
	}, nil
}
