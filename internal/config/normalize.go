package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeTranscription()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadsDir) == "" {
		c.Paths.UploadsDir = defaultUploadsDir
	}
	if c.Paths.UploadsDir, err = expandPath(c.Paths.UploadsDir); err != nil {
		return fmt.Errorf("paths.uploads_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RecordingsDir) == "" {
		c.Paths.RecordingsDir = defaultRecordingsDir
	}
	if c.Paths.RecordingsDir, err = expandPath(c.Paths.RecordingsDir); err != nil {
		return fmt.Errorf("paths.recordings_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Bind) == "" {
		c.Paths.Bind = defaultBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeStorage() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaultStorageDriver
	}
}

func (c *Config) normalizeTranscription() {
	if strings.TrimSpace(c.Transcription.Model) == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	if strings.TrimSpace(c.Transcription.Language) == "" {
		c.Transcription.Language = defaultLanguage
	}
	if c.Transcription.PollIntervalSec <= 0 {
		c.Transcription.PollIntervalSec = defaultPollInterval
	}
	if c.Transcription.MaxPollAttempts <= 0 {
		c.Transcription.MaxPollAttempts = defaultMaxPollAttempts
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
