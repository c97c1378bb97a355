package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pmtm/internal/config"
	"pmtm/internal/deps"
	"pmtm/internal/logging"
	"pmtm/internal/services"
	"pmtm/internal/session"
	"pmtm/internal/toolexec"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
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

// JSONMode reports whether --json was given.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
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

// commandEnv is what most subcommands need: config, a logger carrying the
// run context, and a context tagged with operation and run id.
type commandEnv struct {
	cfg    *config.Config
	logger *slog.Logger
	ctx    context.Context
	runID  string
}

func (c *commandContext) env(cmd *cobra.Command, operation string) (*commandEnv, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	runID := uuid.NewString()
	ctx := services.WithRunID(services.WithOperation(parent, operation), runID)
	return &commandEnv{
		cfg:    cfg,
		logger: logging.WithContext(ctx, logger),
		ctx:    ctx,
		runID:  runID,
	}, nil
}

// forScan tags the environment's context and logger with a session scan id.
func (e *commandEnv) forScan(scanID string) *commandEnv {
	clone := *e
	clone.ctx = services.WithScanID(e.ctx, scanID)
	clone.logger = e.logger.With(logging.String(logging.FieldScanID, scanID))
	return &clone
}

// probeExecutor bounds short-lived inspection commands by the configured
// probe timeout.
func (e *commandEnv) probeExecutor() toolexec.Executor {
	return toolexec.CommandExecutor{Timeout: time.Duration(e.cfg.Probe.TimeoutSeconds) * time.Second}
}

// jobExecutor runs conversions and image batches without a timeout.
func (e *commandEnv) jobExecutor() toolexec.Executor {
	return toolexec.CommandExecutor{}
}

// requireTools fails with a configuration error when any named tool from
// deps.Requirements is unavailable.
func (e *commandEnv) requireTools(names ...string) error {
	missing := deps.Missing(deps.CheckBinaries(deps.Requirements(e.cfg)), names...)
	if len(missing) == 0 {
		return nil
	}
	details := make([]string, 0, len(missing))
	for _, status := range missing {
		details = append(details, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "deps", "check", "missing "+strings.Join(details, ", "), nil)
}

func (c *commandContext) withStore(fn func(*session.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := session.Open(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withLock holds the session lock for commands that modify the session or
// scene files.
func (c *commandContext) withLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := session.AcquireLock(cfg)
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			return fmt.Errorf("%w (lock file %s)", err, cfg.LockPath())
		}
		return err
	}
	defer lock.Release()
	return fn()
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
