package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"assetprep/internal/config"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// effectiveConfig returns a copy of the loaded config with the global logging
// flags applied. Callers layer their own overrides and then call Finalize.
func (c *commandContext) effectiveConfig() (config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return config.Config{}, err
	}
	effective := *cfg
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		effective.Logging.Level = *c.logLevelFlag
	}
	if c.logFormatFlag != nil && strings.TrimSpace(*c.logFormatFlag) != "" {
		effective.Logging.Format = *c.logFormatFlag
	}
	return effective, nil
}

// configSource describes where the loaded configuration came from.
func (c *commandContext) configSource() string {
	if c.configSeen {
		return c.configPath
	}
	return "defaults (no file at " + c.configPath + ")"
}

// applyPathArgs lets positional <input-dir> <output-dir> override the config.
func applyPathArgs(cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Paths.InputDir = args[0]
	}
	if len(args) > 1 {
		cfg.Paths.OutputDir = args[1]
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
