package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"danmux/internal/config"
	"danmux/internal/history"
	"danmux/internal/logging"
	"danmux/internal/pipeline"
	"danmux/internal/preflight"
	"danmux/internal/retry"
	"danmux/internal/services"
)

var runPreflight = preflight.RunAll

// commandContext lazily wires configuration, logging, and the pipeline so
// commands that never touch them (config init, help) do not pay for setup.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withPipeline runs the preflight checks, opens the history store, wires the
// pipeline, and runs fn under the configured retry supervisor. Each retry
// attempt re-enters fn so every attempt starts from a fresh workspace.
func (c *commandContext) withPipeline(ctx context.Context, fn func(ctx context.Context, p *pipeline.Pipeline) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	if err := preflightError(runPreflight(cfg)); err != nil {
		return err
	}

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(cfg, logger, store)
	supervisor := retry.New(cfg.Retry.MaxAttempts, cfg.Backoff(), logger)
	return supervisor.Run(ctx, func(ctx context.Context) error {
		return fn(ctx, p)
	})
}

// preflightError turns failed environment checks into a validation error so
// a workflow never starts fetching into a broken environment.
func preflightError(results []preflight.Result) error {
	if !preflight.Failed(results) {
		return nil
	}
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result.Name+": "+result.Detail)
		}
	}
	return services.Wrap(services.ErrValidation, "cli", "preflight", strings.Join(failed, "; "), nil)
}
