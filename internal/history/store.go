// Package history keeps a SQLite log of published resolution graphs so that
// later passes can be compared against earlier ones.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/specialistvlad/extreg/internal/ctxlog"
	"github.com/specialistvlad/extreg/internal/graph"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	version        INTEGER NOT NULL,
	correlation_id TEXT    NOT NULL,
	fingerprint    TEXT    NOT NULL,
	resolved_at    TEXT    NOT NULL,
	resources      INTEGER NOT NULL,
	edges          INTEGER NOT NULL,
	listing        TEXT    NOT NULL,
	graph          BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_fingerprint ON snapshots (fingerprint);
`

// ErrNoSnapshot is returned when a requested snapshot does not exist.
var ErrNoSnapshot = errors.New("no such snapshot")

// Record summarizes one stored graph.
type Record struct {
	ID            int64     `json:"id"`
	Version       uint64    `json:"version"`
	CorrelationID string    `json:"correlation_id"`
	Fingerprint   string    `json:"fingerprint"`
	ResolvedAt    time.Time `json:"resolved_at"`
	Resources     int       `json:"resources"`
	Edges         int       `json:"edges"`
}

// Snapshot is a stored graph with its renderings.
type Snapshot struct {
	Record
	// Listing is the graph.Text rendering, used for diffs.
	Listing string
	// Graph is the JSON rendering.
	Graph json.RawMessage
}

// Store is a snapshot log backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
func Open(ctx context.Context, path string) (*Store, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Opening history database.", "path", path)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open history database %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores g unless the most recent snapshot has the same fingerprint.
// It returns the stored or matching record and whether a row was inserted.
func (s *Store) Record(ctx context.Context, g *graph.Graph) (Record, bool, error) {
	latest, err := s.Latest(ctx)
	switch {
	case err == nil && latest.Fingerprint == g.Fingerprint():
		return latest.Record, false, nil
	case err != nil && !errors.Is(err, ErrNoSnapshot):
		return Record{}, false, err
	}

	raw, err := json.Marshal(g)
	if err != nil {
		return Record{}, false, fmt.Errorf("encode graph: %w", err)
	}
	rec := Record{
		Version:       g.Version(),
		CorrelationID: g.CorrelationID(),
		Fingerprint:   g.Fingerprint(),
		ResolvedAt:    g.ResolvedAt().UTC(),
		Resources:     g.Len(),
		Edges:         len(g.Edges()),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (version, correlation_id, fingerprint, resolved_at, resources, edges, listing, graph)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(rec.Version), rec.CorrelationID, rec.Fingerprint, rec.ResolvedAt.Format(time.RFC3339Nano),
		rec.Resources, rec.Edges, g.Text(), raw,
	)
	if err != nil {
		return Record{}, false, fmt.Errorf("insert snapshot: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return Record{}, false, fmt.Errorf("insert snapshot: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Snapshot recorded.", "id", rec.ID, "fingerprint", rec.Fingerprint)
	return rec, true, nil
}

// List returns up to limit records, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version, correlation_id, fingerprint, resolved_at, resources, edges
		 FROM snapshots ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns the snapshot with the given id.
func (s *Store) Get(ctx context.Context, id int64) (Snapshot, error) {
	return s.snapshot(ctx, `WHERE id = ?`, id)
}

// Latest returns the most recent snapshot.
func (s *Store) Latest(ctx context.Context) (Snapshot, error) {
	return s.snapshot(ctx, `ORDER BY id DESC LIMIT 1`)
}

func (s *Store) snapshot(ctx context.Context, clause string, args ...any) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, version, correlation_id, fingerprint, resolved_at, resources, edges, listing, graph
		 FROM snapshots `+clause, args...)
	var (
		snap     Snapshot
		version  int64
		resolved string
		raw      []byte
	)
	err := row.Scan(&snap.ID, &version, &snap.CorrelationID, &snap.Fingerprint, &resolved,
		&snap.Resources, &snap.Edges, &snap.Listing, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	snap.Version = uint64(version)
	snap.Graph = json.RawMessage(raw)
	if snap.ResolvedAt, err = time.Parse(time.RFC3339Nano, resolved); err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %d: %w", snap.ID, err)
	}
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec      Record
		version  int64
		resolved string
	)
	if err := row.Scan(&rec.ID, &version, &rec.CorrelationID, &rec.Fingerprint, &resolved, &rec.Resources, &rec.Edges); err != nil {
		return Record{}, fmt.Errorf("read snapshot: %w", err)
	}
	rec.Version = uint64(version)
	var err error
	if rec.ResolvedAt, err = time.Parse(time.RFC3339Nano, resolved); err != nil {
		return Record{}, fmt.Errorf("read snapshot %d: %w", rec.ID, err)
	}
	return rec, nil
}
