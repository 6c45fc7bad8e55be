// Package audit records what happened during assembly runs: rejected
// candidates with reasons, fallback activations, completed and failed runs.
// Append-only; consumed by bank-health reporting.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types emitted by the assembler.
const (
	TypeRunStarted      = "AssemblyStarted"
	TypeRunCompleted    = "AssemblyCompleted"
	TypeRunFailed       = "AssemblyFailed"
	TypeCandidateReject = "CandidateRejected"
	TypeFallback        = "FallbackActivated"
)

type Event struct {
	Offset    int64  `json:"offset"`
	RunID     string `json:"run_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// Recorder is what the assembler needs; failures to record never fail a run.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Nop discards events. Default when no log is configured.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

// Log persists events in the event_log table.
type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

func (l *Log) Record(ctx context.Context, e Event) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO event_log (run_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.RunID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// Tail returns the most recent events, newest first.
func (l *Log) Tail(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT "offset", run_id, typ, key, data, created_at
		 FROM event_log ORDER BY "offset" DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.RunID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Payload marshals arbitrary event details; marshal failures degrade to "{}"
// since audit data must never abort the write path.
func Payload(v any) string {
	buf, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(buf)
}
