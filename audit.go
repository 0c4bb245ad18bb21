package mokmanager

import (
	"database/sql"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	_ "modernc.org/sqlite"
)

// AuditStore records every commit-affecting decision this module makes in
// a session. The staged request and its authenticator digest are wiped
// unconditionally on orchestrator exit and leave no other trace of what
// the operator actually decided, so this is the only durable record of a
// session's outcome. Local and read-only from the operator's perspective:
// nothing here is transmitted anywhere.
type AuditStore struct{ db *sql.DB }

// OpenAuditStore opens/creates a SQLite database at dsn and ensures its
// schema and PRAGMAs, matching the durability posture used elsewhere in
// this module's lineage for a single-writer embedded store.
func OpenAuditStore(dsn string) (*AuditStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping audit store: %w", err)
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	schema := `
CREATE TABLE IF NOT EXISTS audit_events (
  id     INTEGER PRIMARY KEY AUTOINCREMENT,
  ts     BLOB NOT NULL,  -- marshaled google.protobuf.Timestamp
  fields BLOB NOT NULL   -- marshaled google.protobuf.Struct{action, entry_count, result}
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &AuditStore{db: db}, nil
}

// Close releases the underlying database handle.
func (a *AuditStore) Close() error { return a.db.Close() }

// Record appends one audit event. entryCount is the number of signature
// entries the decision covered (0 for a delete-all or a request with no
// keys); result is an outcome tag such as "committed", "declined", or
// "no-keys", or the error text of a failed commit.
func (a *AuditStore) Record(action string, entryCount int, result string) error {
	ts := timestamppb.New(time.Now().UTC())
	tsBytes, err := proto.Marshal(ts)
	if err != nil {
		return fmt.Errorf("marshal audit timestamp: %w", err)
	}

	fields, err := structpb.NewStruct(map[string]any{
		"action":      action,
		"entry_count": float64(entryCount),
		"result":      result,
	})
	if err != nil {
		return fmt.Errorf("build audit fields: %w", err)
	}
	fieldBytes, err := proto.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal audit fields: %w", err)
	}

	if _, err := a.db.Exec(`INSERT INTO audit_events(ts, fields) VALUES(?, ?)`, tsBytes, fieldBytes); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// AuditEvent is one decoded row from the audit trail.
type AuditEvent struct {
	Time       time.Time
	Action     string
	EntryCount int
	Result     string
}

// Recent returns the most recent audit events, newest first, up to limit.
func (a *AuditStore) Recent(limit int) ([]AuditEvent, error) {
	rows, err := a.db.Query(`SELECT ts, fields FROM audit_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []AuditEvent
	for rows.Next() {
		var tsBytes, fieldBytes []byte
		if err := rows.Scan(&tsBytes, &fieldBytes); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var ts timestamppb.Timestamp
		if err := proto.Unmarshal(tsBytes, &ts); err != nil {
			return nil, fmt.Errorf("unmarshal audit timestamp: %w", err)
		}
		var fields structpb.Struct
		if err := proto.Unmarshal(fieldBytes, &fields); err != nil {
			return nil, fmt.Errorf("unmarshal audit fields: %w", err)
		}
		out = append(out, AuditEvent{
			Time:       ts.AsTime(),
			Action:     fields.Fields["action"].GetStringValue(),
			EntryCount: int(fields.Fields["entry_count"].GetNumberValue()),
			Result:     fields.Fields["result"].GetStringValue(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
