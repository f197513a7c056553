package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/config"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/store"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/store/postgres"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/store/sqlite"
)

// openStore opens the backend named by dsn: "memory", a sqlite:// path or a
// postgres:// URL.
func openStore(ctx context.Context, dsn string) (store.Backend, error) {
	switch {
	case dsn == "memory":
		return store.Backend{Name: "memory", Store: store.NewMemStore()}, nil
	case strings.HasPrefix(dsn, sqlite.Scheme):
		s, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return store.Backend{}, err
		}
		return store.Backend{Name: "sqlite", Store: s}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		s, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return store.Backend{}, err
		}
		return store.Backend{Name: "postgres", Store: s}, nil
	default:
		return store.Backend{}, fmt.Errorf("unsupported store %q", dsn)
	}
}

// buildStore opens the configured backends behind a fallback chain. A
// backend that cannot be opened is skipped with a warning; when none can be
// opened the simulation runs on an in-memory store so that it keeps going.
func buildStore(ctx context.Context, cfg config.StoreConfig) *store.ChainStore {
	var backends []store.Backend
	for _, dsn := range []string{cfg.Primary, cfg.Fallback} {
		if dsn == "" {
			continue
		}
		b, err := openStore(ctx, dsn)
		if err != nil {
			slog.Warn("store backend unavailable, skipping", "store", redact(dsn), "err", err)
			continue
		}
		backends = append(backends, b)
	}
	if len(backends) == 0 {
		slog.Warn("no persistent store available, state will not survive a restart")
		backends = append(backends, store.Backend{Name: "memory", Store: store.NewMemStore()})
	}
	return store.Chain(cfg.FallbackConfig(), backends[0], backends[1:]...)
}

// redact hides the password of a URL-style DSN for logging.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	if user, _, hasPass := strings.Cut(userinfo, ":"); hasPass {
		return scheme + "://" + user + ":***@" + host
	}
	return dsn
}
