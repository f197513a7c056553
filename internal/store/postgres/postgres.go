// Package postgres provides a PostgreSQL-backed [store.Store] on a
// [pgxpool.Pool].
//
// Save replaces every table inside one transaction, sending all inserts as a
// single [pgx.Batch]. Load reads the tables in a repeatable-read transaction
// so it never observes a half-written snapshot.
//
// Usage:
//
//	s, err := postgres.NewStore(ctx, "postgres://npcsim@localhost/npcsim")
//	if err != nil { … }
//	defer s.Close()
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
    id        INTEGER PRIMARY KEY CHECK (id = 1),
    turn      BIGINT  NOT NULL,
    seed      BIGINT  NOT NULL,
    rng_state BYTEA,
    saved_at  BIGINT  NOT NULL
);

CREATE TABLE IF NOT EXISTS relationships (
    owner        TEXT             NOT NULL,
    other        TEXT             NOT NULL,
    trust        DOUBLE PRECISION NOT NULL,
    affection    DOUBLE PRECISION NOT NULL,
    respect      DOUBLE PRECISION NOT NULL,
    fear         DOUBLE PRECISION NOT NULL,
    tension      DOUBLE PRECISION NOT NULL,
    familiarity  DOUBLE PRECISION NOT NULL,
    debt         DOUBLE PRECISION NOT NULL,
    interactions INTEGER          NOT NULL,
    last_turn    BIGINT           NOT NULL,
    PRIMARY KEY (owner, other)
);

CREATE TABLE IF NOT EXISTS memory_events (
    owner       TEXT             NOT NULL,
    seq         INTEGER          NOT NULL,
    turn        BIGINT           NOT NULL,
    kind        TEXT             NOT NULL,
    magnitude   DOUBLE PRECISION NOT NULL,
    valence     DOUBLE PRECISION NOT NULL,
    counterpart TEXT             NOT NULL DEFAULT '',
    note        TEXT             NOT NULL DEFAULT '',
    PRIMARY KEY (owner, seq)
);

CREATE TABLE IF NOT EXISTS behaviors (
    npc   TEXT PRIMARY KEY,
    state TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS storylines (
    seq      INTEGER          PRIMARY KEY,
    id       TEXT             NOT NULL,
    turn     BIGINT           NOT NULL,
    speaker  TEXT             NOT NULL,
    listener TEXT             NOT NULL,
    pool     TEXT             NOT NULL,
    response TEXT             NOT NULL,
    reasons  TEXT             NOT NULL DEFAULT '',
    interest DOUBLE PRECISION NOT NULL,
    swing    DOUBLE PRECISION NOT NULL,
    kinds    TEXT             NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS beliefs (
    npc      TEXT             PRIMARY KEY,
    opinion  DOUBLE PRECISION NOT NULL,
    strength DOUBLE PRECISION NOT NULL,
    source   TEXT             NOT NULL DEFAULT '',
    heard    INTEGER          NOT NULL,
    turn     BIGINT           NOT NULL
);
`

// Migrate creates the tables if they do not exist. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Store is a PostgreSQL implementation of [store.Store].
//
// All operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// NewStore connects to the database at dsn, verifies the connection and runs
// [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases all pooled connections.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Save replaces the stored snapshot.
func (s *Store) Save(ctx context.Context, snap store.Snapshot) error {
	rows := snap.ToRows()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		b.Queue(`TRUNCATE snapshot_meta, relationships, memory_events, behaviors, storylines, beliefs`)

		m := rows.Meta
		b.Queue(`INSERT INTO snapshot_meta (id, turn, seed, rng_state, saved_at) VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.Turn, m.Seed, m.RNGState, m.SavedAt)

		for _, r := range rows.Relationships {
			b.Queue(`INSERT INTO relationships
				(owner, other, trust, affection, respect, fear, tension, familiarity, debt, interactions, last_turn)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				r.Owner, r.Other, r.Trust, r.Affection, r.Respect, r.Fear, r.Tension, r.Familiarity, r.Debt,
				r.Interactions, r.LastTurn)
		}
		for _, e := range rows.Events {
			b.Queue(`INSERT INTO memory_events (owner, seq, turn, kind, magnitude, valence, counterpart, note)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				e.Owner, e.Seq, e.Turn, e.Kind, e.Magnitude, e.Valence, e.Counterpart, e.Note)
		}
		for _, bh := range rows.Behaviors {
			b.Queue(`INSERT INTO behaviors (npc, state) VALUES ($1, $2)`, bh.NPC, bh.State)
		}
		for _, sl := range rows.Storylines {
			b.Queue(`INSERT INTO storylines
				(seq, id, turn, speaker, listener, pool, response, reasons, interest, swing, kinds)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				sl.Seq, sl.ID, sl.Turn, sl.Speaker, sl.Listener, sl.Pool, sl.Response,
				sl.Reasons, sl.Interest, sl.Swing, sl.Kinds)
		}
		for _, be := range rows.Beliefs {
			b.Queue(`INSERT INTO beliefs (npc, opinion, strength, source, heard, turn)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				be.NPC, be.Opinion, be.Strength, be.Source, be.Heard, be.Turn)
		}

		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("postgres store: save: %w", err)
		}
		return nil
	})
}

// Load returns the stored snapshot, or [store.ErrNoSnapshot] if none was
// saved.
func (s *Store) Load(ctx context.Context) (store.Snapshot, error) {
	var rows store.Rows
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		meta, err := selectRows[store.MetaRow](ctx, tx, `SELECT id, turn, seed, rng_state, saved_at FROM snapshot_meta WHERE id = 1`)
		if err != nil {
			return err
		}
		if len(meta) == 0 {
			return store.ErrNoSnapshot
		}
		rows.Meta = meta[0]

		if rows.Relationships, err = selectRows[store.RelationshipRow](ctx, tx,
			`SELECT * FROM relationships ORDER BY owner, other`); err != nil {
			return err
		}
		if rows.Events, err = selectRows[store.EventRow](ctx, tx,
			`SELECT * FROM memory_events ORDER BY owner, seq`); err != nil {
			return err
		}
		if rows.Behaviors, err = selectRows[store.BehaviorRow](ctx, tx,
			`SELECT * FROM behaviors ORDER BY npc`); err != nil {
			return err
		}
		if rows.Storylines, err = selectRows[store.StorylineRow](ctx, tx,
			`SELECT * FROM storylines ORDER BY seq`); err != nil {
			return err
		}
		rows.Beliefs, err = selectRows[store.BeliefRow](ctx, tx, `SELECT * FROM beliefs ORDER BY npc`)
		return err
	})
	if errors.Is(err, store.ErrNoSnapshot) {
		return store.Snapshot{}, err
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("postgres store: load: %w", err)
	}
	return store.FromRows(rows), nil
}

func selectRows[T any](ctx context.Context, tx pgx.Tx, query string) ([]T, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}
