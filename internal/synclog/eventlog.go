// Package synclog is an append-only record of sync and grading activity,
// backed by the event_log table.
package synclog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types.
const (
	TypeCourseSynced     = "CourseSynced"
	TypeSyncFailed       = "SyncFailed"
	TypeSubmissionGraded = "SubmissionGraded"
	TypeGradingFailed    = "GradingFailed"
)

type Event struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, typ, key string, data interface{}) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}

// Since returns events with a sequence number after the given one,
// oldest first. ("seq" rather than "offset": OFFSET is reserved in
// PostgreSQL and an unquoted column of that name breaks the schema.)
func (r *EventRepo) Since(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 ORDER BY seq LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
