package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// SessionEvent is one journaled telemetry event.
type SessionEvent struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"sessionId"`
	Type      string         `json:"type"`
	SurfaceID string         `json:"surfaceId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// SaveEventsBatch inserts events in one transaction.
func (s *Store) SaveEventsBatch(ctx context.Context, events []*SessionEvent) error {
	if len(events) == 0 {
		return nil
	}
	return withRetry(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO session_events (session_id, type, surface_id, data_json, created_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, ev := range events {
			if ev.CreatedAt.IsZero() {
				ev.CreatedAt = time.Now()
			}
			var data any
			if len(ev.Data) > 0 {
				raw, err := json.Marshal(ev.Data)
				if err != nil {
					return fmt.Errorf("encode event %s: %w", ev.Type, err)
				}
				data = string(raw)
			}
			res, err := stmt.ExecContext(ctx, ev.SessionID, ev.Type, ev.SurfaceID, data, ev.CreatedAt.UTC())
			if err != nil {
				return err
			}
			ev.ID, _ = res.LastInsertId()
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET last_active = ? WHERE session_id = ?`,
			events[len(events)-1].CreatedAt.UTC(), events[len(events)-1].SessionID,
		); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// ListEvents returns the most recent limit events of a session, oldest
// first.
func (s *Store) ListEvents(sessionID string, limit int) ([]SessionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, session_id, type, surface_id, data_json, created_at
		FROM session_events WHERE session_id = ?
		ORDER BY id DESC LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var (
			ev   SessionEvent
			data sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Type, &ev.SurfaceID, &data, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &ev.Data); err != nil {
				return nil, fmt.Errorf("decode event %d: %w", ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return events, nil
}
