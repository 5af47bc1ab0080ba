// Package storage defines the backend-agnostic warehouse repository and the
// backend registry. Backend packages (sqlite, postgres, mssql) register
// themselves from init() and are selected by kind at runtime.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config is the minimal configuration needed to open a repository.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is
//     backend-specific.
type Config struct {
	Kind string
	DSN  string

	// BatchSize bounds rows per INSERT statement. Backends clamp it further
	// to respect their own bind-parameter limits. <=0 selects a backend
	// default.
	BatchSize int
}

// Repository is the backend-agnostic interface for the warehouse loader.
//
// IMPORTANT: This interface is intentionally minimal and focused on what the
// loader needs: a destructive, transactional, whole-store rebuild. There is
// no incremental append across runs.
type Repository interface {
	// Close releases any backend resources (connections, pools).
	// Treat Close as "call once" at the end of the run.
	Close()

	// Rebuild drops any pre-existing tables named by the loads, recreates
	// the schema, and inserts all rows, all inside a single transaction.
	// On any failure nothing is committed and the error is returned.
	//
	// Loads are processed in slice order; callers order referenced tables
	// before referencing ones so foreign keys resolve.
	Rebuild(ctx context.Context, loads []TableLoad) error
}

// ---- backend factories ----

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "sqlite", "postgres").
//
// Call Register from an init() function in a backend package. Registering
// the same kind twice panics, to fail fast on ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Concurrency:
//   - Safe for concurrent use with Register. New takes a read lock while
//     selecting the factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
