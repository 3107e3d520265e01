// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Command skiff is a terminal client for Rocket.Chat-compatible
// servers: an interactive full-screen client plus non-interactive
// subcommands for scripting and administration.
package main

import (
	"fmt"
	"os"

	"github.com/skiff-chat/skiff/cmd/skiff/cli"
	"github.com/skiff-chat/skiff/lib/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// A leading --config flag selects the config file for every
	// subcommand.
	configPath := ""
	if len(args) >= 2 && args[0] == "--config" {
		configPath = args[1]
		args = args[2:]
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, closeLogger, err := cli.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	root := cli.Root(cfg, logger)
	return root.Execute(args)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
