package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScanner()
	c.normalizeWorkers()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScanner() {
	if c.Scanner.BatchSize == 0 {
		c.Scanner.BatchSize = defaultBatchSize
	}
	if c.Scanner.MaxConcurrentFiles == 0 {
		c.Scanner.MaxConcurrentFiles = defaultMaxConcurrent
	}
	c.Scanner.Priority = strings.ToLower(strings.TrimSpace(c.Scanner.Priority))
	if c.Scanner.Priority == "" {
		c.Scanner.Priority = defaultPriority
	}
}

func (c *Config) normalizeWorkers() {
	if c.Workers.Count == 0 {
		c.Workers.Count = defaultWorkerCount
	}
	if c.Workers.PollInterval == 0 {
		c.Workers.PollInterval = defaultPollInterval
	}
	if c.Workers.ShutdownTimeout == 0 {
		c.Workers.ShutdownTimeout = defaultShutdownTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
