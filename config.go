package traverse

import "time"

// Config holds configuration for a Traverse engine.
type Config struct {
	// ListLimit is the default page size for instance listing when the
	// caller does not set one.
	ListLimit int

	// WatcherInterval is how often the escalation watcher polls paused
	// instances for expired human-node waits.
	WatcherInterval time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListLimit:       20,
		WatcherInterval: 30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}
