package config

import (
	"errors"
	"fmt"
)

var knownPriorities = map[string]struct{}{
	"low":    {},
	"normal": {},
	"high":   {},
	"urgent": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScanner(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateScanner() error {
	if c.Scanner.BatchSize < 1 {
		return errors.New("scanner.batch_size must be a positive integer")
	}
	if c.Scanner.MaxConcurrentFiles < 1 {
		return errors.New("scanner.max_concurrent_files must be a positive integer")
	}
	if _, ok := knownPriorities[c.Scanner.Priority]; !ok {
		return fmt.Errorf("scanner.priority: unknown value %q (expected low, normal, high, or urgent)", c.Scanner.Priority)
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count < 1 {
		return errors.New("workers.count must be a positive integer")
	}
	if c.Workers.PollInterval < 1 {
		return errors.New("workers.poll_interval must be at least 1 second")
	}
	if c.Workers.ShutdownTimeout < 1 {
		return errors.New("workers.shutdown_timeout must be at least 1 second")
	}
	return nil
}

func (c *Config) validateCleanup() error {
	if c.Cleanup.MaxAgeHours < 1 {
		return errors.New("cleanup.max_age_hours must be at least 1 hour")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
