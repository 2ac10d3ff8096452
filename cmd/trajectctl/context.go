package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	trajectservice "traject/contexts/assessment-workflow/traject-service"
	"traject/internal/app/bootstrap"
	"traject/internal/platform/config"
	"traject/internal/platform/db"
)

// moduleFactory builds the traject module and returns a close func.
type moduleFactory func(configPath string, logger *slog.Logger) (trajectservice.Module, func() error, error)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool
	factory     moduleFactory

	once    sync.Once
	module  trajectservice.Module
	closeFn func() error
	err     error
}

func newCommandContext(configFlag *string, verboseFlag *bool, factory moduleFactory) *commandContext {
	if factory == nil {
		factory = postgresModule
	}
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
		factory:     factory,
	}
}

func (c *commandContext) ensureModule() (trajectservice.Module, error) {
	c.once.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.module, c.closeFn, c.err = c.factory(path, c.logger())
	})
	return c.module, c.err
}

func (c *commandContext) close() error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn()
}

func (c *commandContext) logger() *slog.Logger {
	if c.verboseFlag != nil && *c.verboseFlag {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postgresModule(configPath string, logger *slog.Logger) (trajectservice.Module, func() error, error) {
	if configPath != "" {
		if err := os.Setenv("TRAJECT_CONFIG", configPath); err != nil {
			return trajectservice.Module{}, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return trajectservice.Module{}, nil, err
	}
	module, pg, err := bootstrap.BuildModule(cfg, nil, logger.With("process", "trajectctl"))
	if err != nil {
		return trajectservice.Module{}, nil, err
	}
	return module, closer(pg), nil
}

func closer(pg *db.Postgres) func() error {
	return func() error { return pg.Close() }
}
