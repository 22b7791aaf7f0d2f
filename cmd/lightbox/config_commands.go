package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lightbox/internal/config"
	"lightbox/internal/fileutil"
)

func newConfigCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the lightbox configuration file",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand(configFlag))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if !force {
				if _, statErr := os.Stat(path); statErr == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(statErr, os.ErrNotExist) {
					return statErr
				}
			}
			if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(os.Stdout, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}

func newConfigShowCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if configFlag != nil {
				path = *configFlag
			}
			cfg, resolved, found, err := config.Load(path)
			if err != nil {
				return err
			}

			source := resolved
			if !found {
				source = "built-in defaults"
			}

			fmt.Fprintln(os.Stdout, renderCounts("Configuration ("+source+")", [][2]string{
				{"Library directory", cfg.Paths.LibraryDir},
				{"Data directory", cfg.Paths.DataDir},
				{"Log directory", cfg.Paths.LogDir},
				countRow("Scanner batch size", cfg.Scanner.BatchSize),
				countRow("Scanner max concurrent files", cfg.Scanner.MaxConcurrentFiles),
				{"Scanner priority", cfg.Scanner.Priority},
				countRow("Worker count", cfg.Workers.Count),
				countRow("Worker poll interval (s)", cfg.Workers.PollInterval),
				countRow("Shutdown timeout (s)", cfg.Workers.ShutdownTimeout),
				countRow("Cleanup max age (h)", cfg.Cleanup.MaxAgeHours),
				{"Log level", cfg.Logging.Level},
				{"Log format", cfg.Logging.Format},
				{"Ntfy topic", cfg.Notifications.NtfyTopic},
			}))
			return nil
		},
	}
}
