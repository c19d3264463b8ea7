package traverse

import (
	"context"
	"log/slog"
	"time"
)

// Option configures a Traverse engine.
type Option func(*Traverse) error

// Storer is the minimal store interface held by the Traverse root object.
// It covers lifecycle operations only. The full workflow store interface
// lives in the workflow package to avoid import cycles; implementations
// satisfy store.Store which embeds it.
type Storer interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// watcherRunner is an internal interface for the escalation watcher
// lifecycle.
type watcherRunner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// extensionEmitter is an internal interface for extension lifecycle events.
type extensionEmitter interface {
	EmitShutdown(ctx context.Context)
}

// Traverse is the central coordinator for workflow execution. It holds the
// store, logger, and configuration shared by the registry, runner, and
// watcher.
//
// Create one with New() and functional options, then wire the subsystems
// with engine.Build. Traverse holds references to subsystem components via
// internal interfaces to avoid import cycles.
type Traverse struct {
	config     Config
	logger     *slog.Logger
	store      Storer
	extensions extensionEmitter
	watcher    watcherRunner

	// started tracks whether Start has been called.
	started bool
}

// New creates a new Traverse engine with the given options.
func New(opts ...Option) (*Traverse, error) {
	t := &Traverse{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Logger returns the engine's logger.
func (t *Traverse) Logger() *slog.Logger { return t.logger }

// Store returns the engine's store.
func (t *Traverse) Store() Storer { return t.store }

// Config returns a copy of the engine's configuration.
func (t *Traverse) Config() Config { return t.config }

// SetWatcher sets the escalation watcher (called by the engine package).
func (t *Traverse) SetWatcher(w watcherRunner) { t.watcher = w }

// SetExtensions sets the extension emitter (called by the engine package).
func (t *Traverse) SetExtensions(e extensionEmitter) { t.extensions = e }

// Start begins background processing. The transition engine itself is
// synchronous; Start only launches the escalation watcher when one is
// configured.
func (t *Traverse) Start(ctx context.Context) error {
	if t.store == nil {
		return ErrNoStore
	}
	if t.watcher != nil {
		if err := t.watcher.Start(ctx); err != nil {
			return err
		}
	}
	t.started = true
	return nil
}

// Stop gracefully shuts down the engine.
func (t *Traverse) Stop(ctx context.Context) error {
	if t.watcher != nil && t.started {
		if err := t.watcher.Stop(ctx); err != nil {
			t.logger.Error("watcher stop error", "error", err)
		}
	}
	if t.extensions != nil {
		t.extensions.EmitShutdown(ctx)
	}
	if t.store != nil {
		return t.store.Close()
	}
	return nil
}

// WithListLimit sets the default page size for instance listing.
func WithListLimit(n int) Option {
	return func(t *Traverse) error {
		t.config.ListLimit = n
		return nil
	}
}

// WithWatcherInterval sets how often the escalation watcher polls.
func WithWatcherInterval(d time.Duration) Option {
	return func(t *Traverse) error {
		t.config.WatcherInterval = d
		return nil
	}
}

// WithLogger sets the structured logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(t *Traverse) error {
		t.logger = l
		return nil
	}
}

// WithStore sets the persistence backend for the engine.
// The store must implement Storer at minimum; typically it will be a
// store.Store which also implements the workflow store interface.
func WithStore(s Storer) Option {
	return func(t *Traverse) error {
		t.store = s
		return nil
	}
}
