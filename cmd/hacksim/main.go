package main

import (
	"fmt"
	"log/slog"
	"os"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("hacksim %s\n", version)
	case "run":
		if err := runSim(os.Args[2:]); err != nil {
			slog.Error("simulation failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	case "keyring":
		if err := runKeyring(os.Args[2:]); err != nil {
			slog.Error("keyring command failed", "error", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: hacksim <command>

Commands:
  run        Run a simulation from the terminal and print the leaderboard
  serve      Start the hacksim service (dashboard, scheduler, event bus)
  keyring    Manage encrypted provider credentials
  version    Print version
`)
}
