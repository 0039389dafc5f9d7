package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case "json", "sqlite":
		return nil
	default:
		return fmt.Errorf("storage.driver must be \"json\" or \"sqlite\", got %q", c.Storage.Driver)
	}
}

func (c *Config) validateSecurity() error {
	pin := strings.TrimSpace(c.Security.PIN)
	if pin == "" {
		return nil
	}
	if len(pin) < 4 {
		return errors.New("security.pin must have at least 4 digits")
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return errors.New("security.pin must be numeric")
		}
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if !c.Transcription.Enabled {
		return nil
	}
	if c.Transcription.Diarize && strings.TrimSpace(c.Transcription.HFToken) == "" {
		return errors.New("transcription.hf_token must be set when transcription.diarize is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
