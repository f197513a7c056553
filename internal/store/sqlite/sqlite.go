// Package sqlite provides a SQLite-backed [store.Store] using the pure-Go
// modernc.org/sqlite driver through sqlx.
//
// The whole snapshot is written in one transaction that replaces every table,
// so a crash mid-save leaves the previous snapshot intact.
//
// Usage:
//
//	s, err := sqlite.Open(ctx, "sqlite://npcsim.db")
//	if err != nil { … }
//	defer s.Close()
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/store"
)

// Scheme is the DSN prefix accepted by [Open].
const Scheme = "sqlite://"

const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
    id        INTEGER PRIMARY KEY CHECK (id = 1),
    turn      INTEGER NOT NULL,
    seed      INTEGER NOT NULL,
    rng_state BLOB,
    saved_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS relationships (
    owner        TEXT    NOT NULL,
    other        TEXT    NOT NULL,
    trust        REAL    NOT NULL,
    affection    REAL    NOT NULL,
    respect      REAL    NOT NULL,
    fear         REAL    NOT NULL,
    tension      REAL    NOT NULL,
    familiarity  REAL    NOT NULL,
    debt         REAL    NOT NULL,
    interactions INTEGER NOT NULL,
    last_turn    INTEGER NOT NULL,
    PRIMARY KEY (owner, other)
);

CREATE TABLE IF NOT EXISTS memory_events (
    owner       TEXT    NOT NULL,
    seq         INTEGER NOT NULL,
    turn        INTEGER NOT NULL,
    kind        TEXT    NOT NULL,
    magnitude   REAL    NOT NULL,
    valence     REAL    NOT NULL,
    counterpart TEXT    NOT NULL DEFAULT '',
    note        TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (owner, seq)
);

CREATE TABLE IF NOT EXISTS behaviors (
    npc   TEXT PRIMARY KEY,
    state TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS storylines (
    seq      INTEGER PRIMARY KEY,
    id       TEXT    NOT NULL,
    turn     INTEGER NOT NULL,
    speaker  TEXT    NOT NULL,
    listener TEXT    NOT NULL,
    pool     TEXT    NOT NULL,
    response TEXT    NOT NULL,
    reasons  TEXT    NOT NULL DEFAULT '',
    interest REAL    NOT NULL,
    swing    REAL    NOT NULL,
    kinds    TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS beliefs (
    npc      TEXT    PRIMARY KEY,
    opinion  REAL    NOT NULL,
    strength REAL    NOT NULL,
    source   TEXT    NOT NULL DEFAULT '',
    heard    INTEGER NOT NULL,
    turn     INTEGER NOT NULL
);
`

// tables lists every table in the order Save clears them.
var tables = []string{"snapshot_meta", "relationships", "memory_events", "behaviors", "storylines", "beliefs"}

// Store is a SQLite implementation of [store.Store].
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database named by dsn and applies the schema.
// dsn may carry the sqlite:// prefix. ":memory:" opens a private in-memory
// database held on a single connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	path := strings.TrimPrefix(dsn, Scheme)
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sqlx.Open("sqlite", path+sep+pragmas)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored snapshot in one transaction.
func (s *Store) Save(ctx context.Context, snap store.Snapshot) error {
	rows := snap.ToRows()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("sqlite: clear %s: %w", t, err)
		}
	}

	if _, err := tx.NamedExecContext(ctx, `INSERT INTO snapshot_meta (id, turn, seed, rng_state, saved_at)
		VALUES (:id, :turn, :seed, :rng_state, :saved_at)`, rows.Meta); err != nil {
		return fmt.Errorf("sqlite: insert meta: %w", err)
	}
	if err := insertAll(ctx, tx, `INSERT INTO relationships
		(owner, other, trust, affection, respect, fear, tension, familiarity, debt, interactions, last_turn)
		VALUES (:owner, :other, :trust, :affection, :respect, :fear, :tension, :familiarity, :debt, :interactions, :last_turn)`,
		rows.Relationships); err != nil {
		return fmt.Errorf("sqlite: insert relationships: %w", err)
	}
	if err := insertAll(ctx, tx, `INSERT INTO memory_events
		(owner, seq, turn, kind, magnitude, valence, counterpart, note)
		VALUES (:owner, :seq, :turn, :kind, :magnitude, :valence, :counterpart, :note)`,
		rows.Events); err != nil {
		return fmt.Errorf("sqlite: insert memory events: %w", err)
	}
	if err := insertAll(ctx, tx, `INSERT INTO behaviors (npc, state) VALUES (:npc, :state)`,
		rows.Behaviors); err != nil {
		return fmt.Errorf("sqlite: insert behaviors: %w", err)
	}
	if err := insertAll(ctx, tx, `INSERT INTO storylines
		(seq, id, turn, speaker, listener, pool, response, reasons, interest, swing, kinds)
		VALUES (:seq, :id, :turn, :speaker, :listener, :pool, :response, :reasons, :interest, :swing, :kinds)`,
		rows.Storylines); err != nil {
		return fmt.Errorf("sqlite: insert storylines: %w", err)
	}
	if err := insertAll(ctx, tx, `INSERT INTO beliefs (npc, opinion, strength, source, heard, turn)
		VALUES (:npc, :opinion, :strength, :source, :heard, :turn)`,
		rows.Beliefs); err != nil {
		return fmt.Errorf("sqlite: insert beliefs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// insertAll runs one prepared named insert per row.
func insertAll[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the stored snapshot, or [store.ErrNoSnapshot] if none was
// saved. All tables are read in one transaction.
func (s *Store) Load(ctx context.Context) (store.Snapshot, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var rows store.Rows
	err = tx.GetContext(ctx, &rows.Meta, `SELECT id, turn, seed, rng_state, saved_at FROM snapshot_meta WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, store.ErrNoSnapshot
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlite: load meta: %w", err)
	}

	queries := []struct {
		dest  any
		query string
	}{
		{&rows.Relationships, `SELECT * FROM relationships ORDER BY owner, other`},
		{&rows.Events, `SELECT * FROM memory_events ORDER BY owner, seq`},
		{&rows.Behaviors, `SELECT * FROM behaviors ORDER BY npc`},
		{&rows.Storylines, `SELECT * FROM storylines ORDER BY seq`},
		{&rows.Beliefs, `SELECT * FROM beliefs ORDER BY npc`},
	}
	for _, q := range queries {
		if err := tx.SelectContext(ctx, q.dest, q.query); err != nil {
			return store.Snapshot{}, fmt.Errorf("sqlite: load: %w", err)
		}
	}
	return store.FromRows(rows), nil
}
