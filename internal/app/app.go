package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/specialistvlad/fragmentgo/internal/builder"
	"github.com/specialistvlad/fragmentgo/internal/config"
	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/scoring"
	"github.com/specialistvlad/fragmentgo/internal/telemetry"
	"github.com/specialistvlad/fragmentgo/internal/traversal"
)

// ErrUnknownFragment is returned when a fragment name or ID is not in the
// model.
var ErrUnknownFragment = errors.New("unknown fragment")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	model     *builder.Model
	traverser *traversal.Traverser
	scorer    *scoring.Scorer
	metrics   *telemetry.Metrics

	// aggMu serializes impact assessments of trees with aggregated
	// subfragments, whose score caches are rewritten per scenario.
	aggMu sync.Mutex
}

// NewApp loads and builds the model. Reports go to outW and logs to logW.
func NewApp(ctx context.Context, outW, logW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, err := loader.Load(ctx, cfg.ModelPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	logger.Debug("Model loaded and translated into unified model.")

	m, err := builder.Build(ctx, cfgModel)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	a := &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		model:     m,
		traverser: traversal.New(m.Store),
		scorer:    scoring.New(m.Store, scoring.WithProcessLCIA(m.Catalog), scoring.WithSolver(m.Catalog)),
		metrics:   telemetry.New(),
	}

	for _, path := range cfg.RecordPaths {
		if err := a.applyRecords(ctx, path); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Model returns the built model. This is primarily for testing.
func (a *App) Model() *builder.Model {
	return a.model
}

// Metrics returns the run's metrics.
func (a *App) Metrics() *telemetry.Metrics {
	return a.metrics
}

// Close writes the metrics textfile, if one is configured.
func (a *App) Close() error {
	if a.config.MetricsTextfile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.config.MetricsTextfile); err != nil {
		return err
	}
	a.logger.Debug("Metrics written.", "path", a.config.MetricsTextfile)
	return nil
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Fragment finds a fragment by name, falling back to its ID.
func (a *App) Fragment(ref string) (*fragment.Fragment, error) {
	if f, ok := a.model.Store.FindByName(ref); ok {
		return f, nil
	}
	if id, err := fragid.Parse(ref); err == nil {
		if f, ok := a.model.Store.Get(id); ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFragment, ref)
}
