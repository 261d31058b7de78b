package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticket-registry/internal/queue"
	"github.com/iliyamo/ticket-registry/internal/registry"
)

// EventJournal appends committed registry events to the ticket_events
// table.  The in-memory registry stays authoritative; the journal is a
// replayable history for off-chain indexers and survives restarts of the
// HTTP gateway.  Append failures must therefore be logged by the caller,
// never used to roll back a commit.
type EventJournal struct{ DB *sql.DB }

func NewEventJournal(db *sql.DB) *EventJournal { return &EventJournal{DB: db} }

// JournalEntry mirrors one ticket_events row.
type JournalEntry struct {
	EntryID   string        // primary key, UUID
	Seq       uint64        // registry log position
	Kind      string        // event kind
	TicketID  sql.NullInt64 // affected ticket, NULL for admin events
	Payload   []byte        // full event as JSON
	EmittedAt time.Time     // caller-visible time of the committing call
}

// EnsureSchema creates the ticket_events table when it does not exist yet.
func (j *EventJournal) EnsureSchema(ctx context.Context) error {
	_, err := j.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ticket_events (
			entry_id   CHAR(36)     NOT NULL PRIMARY KEY,
			seq        BIGINT       UNSIGNED NOT NULL,
			kind       VARCHAR(64)  NOT NULL,
			ticket_id  BIGINT       UNSIGNED NULL,
			payload    JSON         NOT NULL,
			emitted_at DATETIME     NOT NULL,
			UNIQUE KEY uq_ticket_events_seq (seq),
			KEY ix_ticket_events_ticket (ticket_id)
		)`)
	if err != nil {
		return fmt.Errorf("create ticket_events: %w", err)
	}
	return nil
}

// Append inserts one committed event.  The payload stores the broker wire
// form so journal readers and queue consumers see the same shape.
func (j *EventJournal) Append(ctx context.Context, ev registry.Event) error {
	payload, err := json.Marshal(queue.FromRegistryEvent(ev))
	if err != nil {
		return fmt.Errorf("marshal event %d: %w", ev.Seq, err)
	}
	var ticketID sql.NullInt64
	if ev.TicketID != nil {
		ticketID = sql.NullInt64{Int64: int64(*ev.TicketID), Valid: true}
	}
	_, err = j.DB.ExecContext(ctx,
		"INSERT INTO ticket_events (entry_id, seq, kind, ticket_id, payload, emitted_at) VALUES (?,?,?,?,?,?)",
		uuid.NewString(), ev.Seq, ev.Kind, ticketID, payload, ev.At.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("insert event %d: %w", ev.Seq, err)
	}
	return nil
}

// ListSince returns up to limit journal entries with a sequence strictly
// greater than sinceSeq, in commit order.
func (j *EventJournal) ListSince(ctx context.Context, sinceSeq uint64, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.DB.QueryContext(ctx,
		"SELECT entry_id, seq, kind, ticket_id, payload, emitted_at FROM ticket_events WHERE seq > ? ORDER BY seq ASC LIMIT ?",
		sinceSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.EntryID, &e.Seq, &e.Kind, &e.TicketID, &e.Payload, &e.EmittedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
