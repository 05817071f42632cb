package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/bootstrap"
	"github.com/maauso/mediaconv/internal/config"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
	logger       *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
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
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
		c.logger = cfg.NewLogger()
		slog.SetDefault(c.logger)
	})
	return c.config, c.configErr
}

// remoteConfigPath is the config file forwarded to re-invocations. Workers
// fall back to their own defaults when no file was loaded.
func (c *commandContext) remoteConfigPath() string {
	if !c.configExists {
		return ""
	}
	return c.configPath
}

// withDeps wires the backends for one command and releases them afterwards.
func (c *commandContext) withDeps(cmd *cobra.Command, fn func(*bootstrap.Dependencies) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	opts := bootstrap.Options{ConfigPath: c.remoteConfigPath()}
	if cfg.Logging.Level == "debug" {
		opts.ToolOutput = cmd.ErrOrStderr()
	}
	deps, err := bootstrap.NewDependencies(cmd.Context(), cfg, c.logger, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := deps.Close(); cerr != nil {
			c.logger.Warn("failed to close backends", slog.String("error", cerr.Error()))
		}
	}()
	return fn(deps)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
