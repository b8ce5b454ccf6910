package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeRecording()
	c.normalizeExport()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ProjectRoot, err = expandPath(c.Paths.ProjectRoot); err != nil {
		return fmt.Errorf("paths.project_root: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() error {
	var err error
	if v := strings.TrimSpace(c.Tools.FFmpegBinary); v != "" {
		if c.Tools.FFmpegBinary, err = expandPath(v); err != nil {
			return fmt.Errorf("tools.ffmpeg_binary: %w", err)
		}
	} else {
		c.Tools.FFmpegBinary = ""
	}
	if v := strings.TrimSpace(c.Tools.FFprobeBinary); v != "" {
		if c.Tools.FFprobeBinary, err = expandPath(v); err != nil {
			return fmt.Errorf("tools.ffprobe_binary: %w", err)
		}
	} else {
		c.Tools.FFprobeBinary = ""
	}
	return nil
}

func (c *Config) normalizeRecording() {
	if c.Recording.StatusTickInterval <= 0 {
		c.Recording.StatusTickInterval = defaultStatusTickIntervalMS
	}
	if c.Recording.CursorSampleInterval <= 0 {
		c.Recording.CursorSampleInterval = defaultCursorSampleIntervalMS
	}
	if c.Recording.EarlyExitCheck <= 0 {
		c.Recording.EarlyExitCheck = defaultEarlyExitCheckMS
	}
	if c.Recording.StopWaitAttempts <= 0 {
		c.Recording.StopWaitAttempts = defaultStopWaitAttempts
	}
	if c.Recording.StopWaitInterval <= 0 {
		c.Recording.StopWaitInterval = defaultStopWaitIntervalMS
	}
	if c.Recording.MinOutputBytes <= 0 {
		c.Recording.MinOutputBytes = defaultMinOutputBytes
	}
}

func (c *Config) normalizeExport() {
	if c.Export.TimeoutSeconds < 0 {
		c.Export.TimeoutSeconds = 0
	}
	if c.Export.MaxRetries < 0 {
		c.Export.MaxRetries = 0
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

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
