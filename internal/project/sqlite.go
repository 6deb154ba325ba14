package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/database"
)

// savedAtKey is written with every save and marks the store as non-empty.
const savedAtKey = "project.saved_at"

// SQLiteStore keeps one project document in the project_* tables.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore creates a store on a migrated database.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// SaveDocument replaces the stored project with doc in one transaction.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *Document) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{
			"project_snapshot_values",
			"project_snapshots",
			"project_bindings",
			"project_oscillators",
			"project_parameters",
			"project_settings",
		} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil { //nolint:gosec // fixed table names
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		if err := insertSettings(ctx, tx, doc.Settings); err != nil {
			return err
		}
		for addr, v := range doc.Parameters {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO project_parameters (address, value) VALUES (?, ?)", addr, v); err != nil {
				return fmt.Errorf("inserting parameter %s: %w", addr, err)
			}
		}
		for i, o := range doc.Oscillators {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO project_oscillators
					(position, scope, label, period_ms, waveform, running, tempo_lock, basis)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				i, o.Scope, o.Label, o.PeriodMS, o.Waveform, o.Running, o.TempoLock, o.Basis,
			); err != nil {
				return fmt.Errorf("inserting oscillator %s: %w", o.Label, err)
			}
		}
		for i, b := range doc.Bindings {
			var targetOsc sql.NullInt64
			if b.TargetOscillator != NoOscillator {
				targetOsc = sql.NullInt64{Int64: int64(b.TargetOscillator), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO project_bindings
					(position, scope, label, source, target, target_oscillator, depth)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				i, b.Scope, b.Label, b.Source, b.Target, targetOsc, b.Depth,
			); err != nil {
				return fmt.Errorf("inserting binding %s: %w", b.Label, err)
			}
		}
		for i, snap := range doc.Snapshots {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO project_snapshots (position, label) VALUES (?, ?)", i, snap.Label); err != nil {
				return fmt.Errorf("inserting snapshot %s: %w", snap.Label, err)
			}
			for addr, v := range snap.Values {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO project_snapshot_values (snapshot, address, value) VALUES (?, ?, ?)",
					i, addr, v); err != nil {
					return fmt.Errorf("inserting snapshot value: %w", err)
				}
			}
		}
		return nil
	})
}

func insertSettings(ctx context.Context, tx *sql.Tx, settings map[string]string) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO project_settings (key, value) VALUES (?, ?)",
		savedAtKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("inserting settings: %w", err)
	}
	for k, v := range settings {
		if k == savedAtKey {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO project_settings (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("inserting setting %s: %w", k, err)
		}
	}
	return nil
}

// LoadDocument reads the stored project.
func (s *SQLiteStore) LoadDocument(ctx context.Context) (*Document, error) {
	var savedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM project_settings WHERE key = ?", savedAtKey).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoProject
	}
	if err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}

	doc := &Document{
		Parameters: make(map[string]float64),
		Settings:   make(map[string]string),
	}
	if err := s.loadSettings(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.loadParameters(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.loadOscillators(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.loadBindings(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.loadSnapshots(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStore) loadSettings(ctx context.Context, doc *Document) error {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM project_settings WHERE key != ?", savedAtKey)
	if err != nil {
		return fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("scanning setting: %w", err)
		}
		doc.Settings[k] = v
	}
	return rows.Err()
}

func (s *SQLiteStore) loadParameters(ctx context.Context, doc *Document) error {
	rows, err := s.db.QueryContext(ctx, "SELECT address, value FROM project_parameters")
	if err != nil {
		return fmt.Errorf("querying parameters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var addr string
		var v float64
		if err := rows.Scan(&addr, &v); err != nil {
			return fmt.Errorf("scanning parameter: %w", err)
		}
		doc.Parameters[addr] = v
	}
	return rows.Err()
}

func (s *SQLiteStore) loadOscillators(ctx context.Context, doc *Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scope, label, period_ms, waveform, running, tempo_lock, basis
		FROM project_oscillators ORDER BY position`)
	if err != nil {
		return fmt.Errorf("querying oscillators: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o OscillatorRecord
		if err := rows.Scan(&o.Scope, &o.Label, &o.PeriodMS, &o.Waveform, &o.Running, &o.TempoLock, &o.Basis); err != nil {
			return fmt.Errorf("scanning oscillator: %w", err)
		}
		doc.Oscillators = append(doc.Oscillators, o)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadBindings(ctx context.Context, doc *Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scope, label, source, target, target_oscillator, depth
		FROM project_bindings ORDER BY position`)
	if err != nil {
		return fmt.Errorf("querying bindings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b BindingRecord
		var targetOsc sql.NullInt64
		if err := rows.Scan(&b.Scope, &b.Label, &b.Source, &b.Target, &targetOsc, &b.Depth); err != nil {
			return fmt.Errorf("scanning binding: %w", err)
		}
		b.TargetOscillator = NoOscillator
		if targetOsc.Valid {
			b.TargetOscillator = int(targetOsc.Int64)
		}
		doc.Bindings = append(doc.Bindings, b)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadSnapshots(ctx context.Context, doc *Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.position, s.label, v.address, v.value
		FROM project_snapshots s
		LEFT JOIN project_snapshot_values v ON v.snapshot = s.position
		ORDER BY s.position`)
	if err != nil {
		return fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	last := -1
	for rows.Next() {
		var pos int
		var label string
		var addr sql.NullString
		var v sql.NullFloat64
		if err := rows.Scan(&pos, &label, &addr, &v); err != nil {
			return fmt.Errorf("scanning snapshot: %w", err)
		}
		if pos != last {
			doc.Snapshots = append(doc.Snapshots, SnapshotRecord{Label: label, Values: make(map[string]float64)})
			last = pos
		}
		if addr.Valid {
			doc.Snapshots[len(doc.Snapshots)-1].Values[addr.String] = v.Float64
		}
	}
	return rows.Err()
}
