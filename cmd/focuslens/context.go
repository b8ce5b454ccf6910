package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"focuslens/internal/config"
	"focuslens/internal/events"
	"focuslens/internal/export"
	"focuslens/internal/history"
	"focuslens/internal/logging"
	"focuslens/internal/projects"
	"focuslens/internal/recording"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
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

// runtime owns the wired services for one command invocation. Commands that
// spawn encoder processes hold the instance lock for their whole run.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *projects.Store
	bus       *events.Bus
	collector *events.Collector
	recorder  *recording.Service
	exporter  *export.Service
	history   *history.Store
	lock      *flock.Flock
}

func (c *commandContext) buildRuntime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "focuslens.log")},
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	hist, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	bus := events.NewBus()
	collector := events.NewCollector()
	bus.Register(events.NewLogPublisher(logger))
	bus.Register(collector)

	store := projects.NewStore(cfg.Paths.ProjectRoot, logger)
	rt := &runtime{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		bus:       bus,
		collector: collector,
		history:   hist,
		lock:      flock.New(cfg.InstanceLockPath()),
	}
	rt.recorder = recording.NewService(cfg, recording.Deps{
		Logger: logger,
		Store:  store,
		Bus:    bus,
	})
	rt.exporter = export.NewService(cfg, export.Deps{
		Logger:  logger,
		Store:   store,
		Bus:     bus,
		History: hist,
	})
	return rt, nil
}

// acquireLock takes the single-instance lock. Encoder-spawning commands must
// hold it so two invocations never fight over the same project assets.
func (r *runtime) acquireLock() error {
	ok, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return errors.New("another focuslens instance is already running")
	}
	return nil
}

func (r *runtime) close() {
	if r.lock != nil {
		_ = r.lock.Unlock()
	}
	if r.history != nil {
		_ = r.history.Close()
	}
}
