package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of *pgxpool.Pool the journal needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// JournalEntry is one row of the append-only intake_events table.
type JournalEntry struct {
	EventType  string
	PatientID  string
	RoomID     string
	DoctorID   string
	Detail     string
	RequestID  string
	OccurredAt time.Time
}

// Journal appends admission events to Postgres. It is an audit trail only;
// engine state is never read back from it.
type Journal struct {
	db Execer
}

func NewJournal(db Execer) *Journal {
	return &Journal{db: db}
}

const insertEvent = `INSERT INTO intake_events
    (event_type, patient_id, room_id, doctor_id, detail, request_id, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (j *Journal) Append(ctx context.Context, e JournalEntry) error {
	if e.EventType == "" {
		return errors.New("journal entry without event type")
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	tag, err := j.db.Exec(ctx, insertEvent,
		e.EventType,
		nullable(e.PatientID),
		nullable(e.RoomID),
		nullable(e.DoctorID),
		nullable(e.Detail),
		nullable(e.RequestID),
		e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append %s event: %w", e.EventType, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("append %s event: %d rows affected", e.EventType, tag.RowsAffected())
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
