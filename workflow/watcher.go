package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EscalateFunc is the callback the watcher invokes when a paused
// instance has sat at a human node longer than the node's Timeout.
// The instance is a snapshot; implementations that want to act on it
// (cancel, notify, reassign) go through the Runner.
type EscalateFunc func(ctx context.Context, inst *Instance, node *Node)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithInterval sets how often the watcher sweeps paused instances.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.interval = d }
}

// WithPageSize sets how many instances the watcher lists per store call.
func WithPageSize(n int) WatcherOption {
	return func(w *Watcher) { w.pageSize = n }
}

// Watcher sweeps paused instances on a tick loop and escalates the
// ones whose human-node wait has exceeded the node's advisory Timeout.
// It never mutates instances itself; Timeout expiry changes nothing
// about the instance until a consumer or the EscalateFunc acts.
type Watcher struct {
	registry *Registry
	store    Store
	escalate EscalateFunc
	logger   *slog.Logger

	interval time.Duration
	pageSize int

	// fired records the checkpoint at which each instance was last
	// escalated, so a single wait fires once. An instance that moves
	// on and pauses again re-arms at its new checkpoint.
	firedMu sync.Mutex
	fired   map[string]int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher creates a Watcher.
func NewWatcher(
	registry *Registry,
	store Store,
	escalate EscalateFunc,
	logger *slog.Logger,
	opts ...WatcherOption,
) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		registry: registry,
		store:    store,
		escalate: escalate,
		logger:   logger,
		interval: 30 * time.Second,
		pageSize: 100,
		fired:    make(map[string]int64),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the sweep goroutine.
func (w *Watcher) Start(_ context.Context) error {
	w.wg.Add(1)
	go w.loop()
	w.logger.Info("escalation watcher started",
		slog.Duration("interval", w.interval),
	)
	return nil
}

// Stop signals the watcher to stop and waits for the sweep goroutine.
func (w *Watcher) Stop(_ context.Context) error {
	close(w.stopCh)
	w.wg.Wait()
	w.logger.Info("escalation watcher stopped")
	return nil
}

// loop fires on each interval and sweeps paused instances.
func (w *Watcher) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(context.Background())
		}
	}
}

// Sweep runs a single pass over all paused instances. Exported so
// consumers can trigger an out-of-band check without waiting a tick.
func (w *Watcher) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	paused := true

	// defs caches registry lookups for the duration of one sweep.
	defs := make(map[string]*Definition)
	live := make(map[string]struct{})

	for offset := 0; ; offset += w.pageSize {
		page, err := w.store.ListInstances(ctx, Query{
			Paused: &paused,
			Limit:  w.pageSize,
			Offset: offset,
		})
		if err != nil {
			w.logger.Error("list paused instances error",
				slog.String("error", err.Error()),
			)
			return
		}
		for _, inst := range page {
			live[inst.ID.String()] = struct{}{}
			w.check(ctx, inst, defs, now)
		}
		if len(page) < w.pageSize {
			break
		}
	}

	w.prune(live)
}

func (w *Watcher) check(ctx context.Context, inst *Instance, defs map[string]*Definition, now time.Time) {
	def, ok := defs[inst.Definition]
	if !ok {
		var err error
		def, err = w.registry.Get(inst.Definition)
		if err != nil {
			// Instances of unregistered definitions are skipped; they
			// become actionable again once the definition is registered.
			return
		}
		defs[inst.Definition] = def
	}

	node, ok := def.Nodes[inst.CurrentNode]
	if !ok || !inst.NodeTimeoutExpired(node, now) {
		return
	}

	key := inst.ID.String()
	w.firedMu.Lock()
	if cp, seen := w.fired[key]; seen && cp == inst.Checkpoint {
		w.firedMu.Unlock()
		return
	}
	w.fired[key] = inst.Checkpoint
	w.firedMu.Unlock()

	w.logger.Warn("human node wait exceeded timeout",
		slog.String("instance_id", key),
		slog.String("workflow", inst.Definition),
		slog.String("node", inst.CurrentNode),
		slog.Duration("timeout", node.Timeout),
		slog.Duration("waited", now.Sub(inst.UpdatedAt)),
	)

	if w.escalate != nil {
		w.escalate(ctx, inst, node)
	}
}

// prune drops fired entries for instances that are no longer paused,
// keeping the map bounded by the paused set.
func (w *Watcher) prune(live map[string]struct{}) {
	w.firedMu.Lock()
	defer w.firedMu.Unlock()
	for key := range w.fired {
		if _, ok := live[key]; !ok {
			delete(w.fired, key)
		}
	}
}
