package store

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Options selects and configures the store returned by Open.
type Options struct {
	Backend Backend
	// DSN is the SQLite path or PostgreSQL connection string.
	DSN string
	// Dir is the directory used by the file backend.
	Dir string
	// Fallback, when set, names a backend used whenever Backend fails.
	Fallback Backend
	// FallbackDSN is the DSN of a SQL fallback backend.
	FallbackDSN string
}

// Open builds the configured store. When the primary backend cannot be
// opened and a fallback is configured, the fallback is used on its own.
// The returned close function releases any database connections.
func Open(ctx context.Context, opts Options, logger *log.Logger, storeOpts ...Option) (Store, func() error, error) {
	if opts.Fallback != "" && opts.Fallback == opts.Backend {
		return nil, nil, fmt.Errorf("fallback backend must differ from %s", opts.Backend)
	}

	primary, closePrimary, err := openBackend(ctx, opts.Backend, opts.DSN, opts.Dir, storeOpts)
	if opts.Fallback == "" {
		return primary, closePrimary, err
	}

	secondary, closeSecondary, ferr := openBackend(ctx, opts.Fallback, opts.FallbackDSN, opts.Dir, storeOpts)
	switch {
	case err != nil && ferr != nil:
		return nil, nil, fmt.Errorf("%w (fallback: %v)", err, ferr)
	case err != nil:
		logger.Warn("Primary store unavailable, using fallback only",
			"backend", opts.Backend, "fallback", opts.Fallback, "error", err)
		return secondary, closeSecondary, nil
	case ferr != nil:
		closePrimary()
		return nil, nil, fmt.Errorf("fallback: %w", ferr)
	}

	closeBoth := func() error {
		err1 := closePrimary()
		err2 := closeSecondary()
		if err1 != nil {
			return err1
		}
		return err2
	}
	return NewFallback(primary, secondary, logger), closeBoth, nil
}

func openBackend(ctx context.Context, backend Backend, dsn, dir string, storeOpts []Option) (Store, func() error, error) {
	noop := func() error { return nil }
	switch backend {
	case BackendMemory:
		return NewMemory(storeOpts...), noop, nil
	case BackendFile:
		f, err := NewFile(dir, storeOpts...)
		if err != nil {
			return nil, nil, err
		}
		return f, noop, nil
	case BackendSQLite, BackendPostgres:
		s, err := OpenSQL(ctx, Dialect(backend), dsn, storeOpts...)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
