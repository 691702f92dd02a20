package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/fixer"
	"curator/internal/logging"
	"curator/internal/pipeline"
	"curator/internal/queue"
	"curator/internal/records"
)

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
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withStores opens the queue and record stores for one command invocation
// and closes the queue afterwards.
func (c *commandContext) withStores(fn func(cfg *config.Config, q *queue.Store, r *records.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	q, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer q.Close()

	r, err := records.Open(cfg)
	if err != nil {
		return err
	}
	return fn(cfg, q, r)
}

// withOrchestrator wires the full pipeline behind the state lock. Every
// mutating command goes through here so two invocations cannot interleave.
func (c *commandContext) withOrchestrator(cmd *cobra.Command, dryRun bool, fn func(ctx context.Context, o *pipeline.Orchestrator) error) error {
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	return c.withStores(func(cfg *config.Config, q *queue.Store, r *records.Store) error {
		release, err := pipeline.AcquireLock(cfg)
		if err != nil {
			return err
		}
		defer release()

		registry, err := catalog.NewRegistry(cfg, logger)
		if err != nil {
			return err
		}
		orchestrator, err := pipeline.New(pipeline.Options{
			Config:  cfg,
			Queue:   q,
			Records: r,
			Sources: registry,
			Fixer:   fixer.New(cfg, logger, fixer.WithDryRun(dryRun)),
			Logger:  logger,
			DryRun:  dryRun,
		})
		if err != nil {
			return err
		}
		return fn(cmd.Context(), orchestrator)
	})
}
