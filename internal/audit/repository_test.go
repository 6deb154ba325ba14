package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-autopilot/migrations"
)

func openRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "activity.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestRecord_FillsDefaults(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()

	e := &Entry{Action: ActionEnable, Source: SourceAPI, RequestID: "req-1", Details: map[string]any{"oscillators": 3}}
	if err := r.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("Record() did not fill ID/CreatedAt: %+v", e)
	}

	page, err := r.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 1 || len(page.Entries) != 1 {
		t.Fatalf("List() = %+v", page)
	}
	got := page.Entries[0]
	if got.ID != e.ID || got.Action != ActionEnable || got.Source != SourceAPI || got.RequestID != "req-1" {
		t.Errorf("entry = %+v", got)
	}
	// JSON numbers decode as float64.
	if got.Details["oscillators"] != float64(3) {
		t.Errorf("details = %v", got.Details)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, e.CreatedAt)
	}
}

func TestRecord_Invalid(t *testing.T) {
	r := openRepo(t)
	for _, e := range []*Entry{{Source: SourceAPI}, {Action: ActionReset}} {
		if err := r.Record(context.Background(), e); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("Record(%+v) error = %v, want ErrInvalidEntry", e, err)
		}
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	records := []Entry{
		{Action: ActionEnable, Source: SourceAPI, CreatedAt: base},
		{Action: ActionDisable, Source: SourceMQTT, CreatedAt: base.Add(time.Second)},
		{Action: ActionEnable, Source: SourceMQTT, CreatedAt: base.Add(2 * time.Second)},
		{Action: ActionReset, Source: SourceAPI, CreatedAt: base.Add(2*time.Second + time.Millisecond)},
	}
	for i := range records {
		if err := r.Record(ctx, &records[i]); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name       string
		filter     Filter
		wantTotal  int
		wantAction []string
	}{
		{name: "all newest first", filter: Filter{}, wantTotal: 4, wantAction: []string{"reset", "enable", "disable", "enable"}},
		{name: "by action", filter: Filter{Action: ActionEnable}, wantTotal: 2, wantAction: []string{"enable", "enable"}},
		{name: "by source", filter: Filter{Source: SourceAPI}, wantTotal: 2, wantAction: []string{"reset", "enable"}},
		{name: "paged", filter: Filter{Limit: 2, Offset: 1}, wantTotal: 4, wantAction: []string{"enable", "disable"}},
		{name: "no match", filter: Filter{Action: ActionLoad}, wantTotal: 0, wantAction: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := r.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if page.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", page.Total, tt.wantTotal)
			}
			got := make([]string, 0, len(page.Entries))
			for _, e := range page.Entries {
				got = append(got, e.Action)
			}
			if len(got) != len(tt.wantAction) {
				t.Fatalf("actions = %v, want %v", got, tt.wantAction)
			}
			for i := range got {
				if got[i] != tt.wantAction[i] {
					t.Errorf("actions = %v, want %v", got, tt.wantAction)
					break
				}
			}
		})
	}
}

func TestList_ClampsLimit(t *testing.T) {
	r := openRepo(t)

	tests := []struct {
		in, want int
	}{
		{0, defaultLimit},
		{-3, defaultLimit},
		{10, 10},
		{1000, maxLimit},
	}
	for _, tt := range tests {
		page, err := r.List(context.Background(), Filter{Limit: tt.in, Offset: -1})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if page.Limit != tt.want || page.Offset != 0 {
			t.Errorf("Limit %d -> %d offset %d, want %d offset 0", tt.in, page.Limit, page.Offset, tt.want)
		}
	}
}
