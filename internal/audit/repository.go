package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions.
const (
	ActionEnable  = "enable"
	ActionDisable = "disable"
	ActionReset   = "reset"
	ActionSave    = "save"
	ActionLoad    = "load"
)

// Sources.
const (
	SourceAPI  = "api"
	SourceMQTT = "mqtt"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeLayout is fixed width so created_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrInvalidEntry is returned by Record for entries without action or source.
var ErrInvalidEntry = errors.New("audit: action and source are required")

// Entry is one activity log row.
type Entry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Source    string         `json:"source"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter selects entries for List. Zero fields match everything.
type Filter struct {
	Action string
	Source string
	Limit  int // default 50, max 200
	Offset int
}

// Page is one page of List results.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Recorder appends entries to the log.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
}

// Repository stores and lists activity.
type Repository interface {
	Recorder
	List(ctx context.Context, filter Filter) (*Page, error)
}

// SQLiteRepository stores activity in the autopilot_activity table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on a migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts e, filling ID and CreatedAt when empty.
func (r *SQLiteRepository) Record(ctx context.Context, e *Entry) error {
	if e.Action == "" || e.Source == "" {
		return ErrInvalidEntry
	}
	if e.ID == "" {
		e.ID = "act-" + uuid.NewString()[:8]
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	var details *string
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshalling activity details: %w", err)
		}
		s := string(b)
		details = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO autopilot_activity (id, action, source, request_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.Source, nullable(e.RequestID), details,
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*Page, error) {
	filter.Limit = min(max(filter.Limit, 0), maxLimit)
	if filter.Limit == 0 {
		filter.Limit = defaultLimit
	}
	filter.Offset = max(filter.Offset, 0)

	var conds []string
	var args []any
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, filter.Source)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	//nolint:gosec // WHERE is built from fixed, parameterised conditions
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM autopilot_activity"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting activity: %w", err)
	}

	//nolint:gosec // WHERE is built from fixed, parameterised conditions
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, action, source, request_id, details, created_at FROM autopilot_activity"+
			where+" ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		append(args, filter.Limit, filter.Offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity: %w", err)
	}

	return &Page{Entries: entries, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var requestID, details sql.NullString
	var createdAt string
	if err := rows.Scan(&e.ID, &e.Action, &e.Source, &requestID, &details, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("scanning activity: %w", err)
	}
	e.RequestID = requestID.String
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
			return Entry{}, fmt.Errorf("decoding activity %s details: %w", e.ID, err)
		}
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing activity timestamp %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return e, nil
}
