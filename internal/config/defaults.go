package config

const (
	defaultProjectRoot = "~/.local/share/focuslens/projects"
	defaultDataDir     = "~/.local/share/focuslens/data"
	defaultLogDir      = "~/.local/share/focuslens/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultStatusTickIntervalMS   = 1000
	defaultCursorSampleIntervalMS = 120
	defaultEarlyExitCheckMS       = 400
	defaultStopWaitAttempts       = 30
	defaultStopWaitIntervalMS     = 100
	defaultMinOutputBytes         = 1024

	defaultExportTimeoutSeconds = 0
	defaultExportMaxRetries     = 0

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectRoot: defaultProjectRoot,
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
		},
		Recording: Recording{
			StatusTickInterval:   defaultStatusTickIntervalMS,
			CursorSampleInterval: defaultCursorSampleIntervalMS,
			EarlyExitCheck:       defaultEarlyExitCheckMS,
			StopWaitAttempts:     defaultStopWaitAttempts,
			StopWaitInterval:     defaultStopWaitIntervalMS,
			MinOutputBytes:       defaultMinOutputBytes,
		},
		Export: Export{
			TimeoutSeconds: defaultExportTimeoutSeconds,
			MaxRetries:     defaultExportMaxRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
	}
}
