package config

const (
	defaultLibraryDir      = "~/photos"
	defaultDataDir         = "~/.local/share/lightbox"
	defaultLogDir          = "~/.local/share/lightbox/logs"
	defaultBatchSize       = 10
	defaultMaxConcurrent   = 4
	defaultPriority        = "normal"
	defaultWorkerCount     = 4
	defaultPollInterval    = 2
	defaultShutdownTimeout = 30
	defaultCleanupMaxAge   = 24
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultNotifyTimeout   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Scanner: Scanner{
			BatchSize:          defaultBatchSize,
			MaxConcurrentFiles: defaultMaxConcurrent,
			Priority:           defaultPriority,
		},
		Workers: Workers{
			Count:           defaultWorkerCount,
			PollInterval:    defaultPollInterval,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Cleanup: Cleanup{
			MaxAgeHours: defaultCleanupMaxAge,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Scans:          true,
			Jobs:           true,
			Errors:         true,
		},
	}
}
