package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

type fakeExecer struct {
	sql  string
	args []any
	tag  pgconn.CommandTag
	err  error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = args
	return f.tag, f.err
}

func TestJournal_Append(t *testing.T) {
	fake := &fakeExecer{tag: pgconn.NewCommandTag("INSERT 0 1")}
	j := NewJournal(fake)
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	err := j.Append(context.Background(), JournalEntry{
		EventType:  "patient_admitted",
		PatientID:  "P001",
		RoomID:     "R001",
		DoctorID:   "D002",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(fake.sql, "INSERT INTO intake_events") {
		t.Errorf("unexpected SQL: %s", fake.sql)
	}
	if len(fake.args) != 7 {
		t.Fatalf("expected 7 args, got %d", len(fake.args))
	}
	if fake.args[0] != "patient_admitted" {
		t.Errorf("expected event type first, got %v", fake.args[0])
	}
	if p, ok := fake.args[1].(*string); !ok || *p != "P001" {
		t.Errorf("expected patient id arg, got %v", fake.args[1])
	}
	if p, _ := fake.args[4].(*string); p != nil {
		t.Errorf("expected NULL detail, got %q", *p)
	}
	if fake.args[6] != at {
		t.Errorf("expected occurred_at %v, got %v", at, fake.args[6])
	}
}

func TestJournal_AppendDefaultsTimestamp(t *testing.T) {
	fake := &fakeExecer{tag: pgconn.NewCommandTag("INSERT 0 1")}
	NewJournal(fake).Append(context.Background(), JournalEntry{EventType: "room_added", RoomID: "R001"})

	at, ok := fake.args[6].(time.Time)
	if !ok || at.IsZero() {
		t.Errorf("expected a timestamp to be filled in, got %v", fake.args[6])
	}
}

func TestJournal_AppendErrors(t *testing.T) {
	j := NewJournal(&fakeExecer{err: errors.New("connection reset")})
	if err := j.Append(context.Background(), JournalEntry{EventType: "doctor_added"}); err == nil {
		t.Error("expected database error to be returned")
	}

	j = NewJournal(&fakeExecer{tag: pgconn.NewCommandTag("INSERT 0 0")})
	if err := j.Append(context.Background(), JournalEntry{EventType: "doctor_added"}); err == nil {
		t.Error("expected error when no row was inserted")
	}

	if err := j.Append(context.Background(), JournalEntry{}); err == nil {
		t.Error("expected error for missing event type")
	}
}

func TestLoadMigrations(t *testing.T) {
	src := fstest.MapFS{
		"002_views.sql":   {Data: []byte("CREATE VIEW v AS SELECT 1;")},
		"001_journal.sql": {Data: []byte("CREATE TABLE t (id INT);")},
		"readme.md":       {Data: []byte("docs")},
		"notes.sql":       {Data: []byte("-- no version")},
		"abc_bad.sql":     {Data: []byte("-- bad prefix")},
	}
	migrations, err := NewMigrator(nil, src).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_journal.sql" {
		t.Errorf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 {
		t.Errorf("expected version 2, got %d", migrations[1].Version)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := NewMigrator(nil, Migrations()).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected bundled migrations")
	}
	if !strings.Contains(migrations[0].SQL, "intake_events") {
		t.Error("expected the first migration to create intake_events")
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		pinger Pinger
		code   int
		status string
	}{
		{"disabled", nil, http.StatusOK, "disabled"},
		{"healthy", fakePinger{}, http.StatusOK, "healthy"},
		{"unhealthy", fakePinger{err: errors.New("timeout")}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)

			if err := HealthHandler(tt.pinger)(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
			var body HealthStatus
			json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Status != tt.status {
				t.Errorf("expected status %q, got %q", tt.status, body.Status)
			}
		})
	}
}
