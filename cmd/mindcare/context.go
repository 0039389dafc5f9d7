package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mindcare/internal/config"
	"mindcare/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withBridge opens the configured storage bridge for the duration of one
// command invocation.
func (c *commandContext) withBridge(fn func(cfg *config.Config, bridge storage.Bridge) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	bridge, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer bridge.Close()
	return fn(cfg, bridge)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
