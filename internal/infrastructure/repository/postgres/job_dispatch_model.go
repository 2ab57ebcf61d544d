package postgres

import (
	"database/sql"
	"time"
)

type jobDispatchInsertModel struct {
	DispatchID string     `db:"dispatch_id"`
	JobName    string     `db:"job_name"`
	JobPath    string     `db:"job_path"`
	LeagueID   string     `db:"league_public_id"`
	Payload    string     `db:"payload"`
	Status     string     `db:"status"`
	Attempts   int        `db:"attempts"`
	SentAt     *time.Time `db:"sent_at"`
	FinishedAt *time.Time `db:"finished_at"`
	LastError  *string    `db:"last_error"`
	TraceID    *string    `db:"trace_id"`
	SpanID     *string    `db:"span_id"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

type jobDispatchTableModel struct {
	ID         int64          `db:"id"`
	DispatchID string         `db:"dispatch_id"`
	JobName    string         `db:"job_name"`
	JobPath    string         `db:"job_path"`
	LeagueID   string         `db:"league_public_id"`
	Payload    string         `db:"payload"`
	Status     string         `db:"status"`
	Attempts   int            `db:"attempts"`
	SentAt     sql.NullTime   `db:"sent_at"`
	FinishedAt sql.NullTime   `db:"finished_at"`
	LastError  sql.NullString `db:"last_error"`
	TraceID    sql.NullString `db:"trace_id"`
	SpanID     sql.NullString `db:"span_id"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
	DeletedAt  sql.NullTime   `db:"deleted_at"`
}
