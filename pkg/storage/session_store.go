package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Session status constants.
const (
	SessionStatusActive     = "active"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
	SessionStatusRelaunched = "relaunched"
)

// Session is one launch of the game recorded in the journal.
type Session struct {
	ID         string     `json:"id"`
	Game       string     `json:"game"`
	Engine     string     `json:"engine"`
	Launch     int        `json:"launch"`
	StartedAt  time.Time  `json:"startedAt"`
	LastActive time.Time  `json:"lastActive"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	Status     string     `json:"status"`
	ExitError  string     `json:"exitError,omitempty"`
	EventCount int        `json:"eventCount"`
}

// Duration returns how long the session ran, or has run so far.
func (s Session) Duration(now time.Time) time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

// CreateSession inserts session as active.
func (s *Store) CreateSession(session *Session) error {
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id required")
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	if session.Launch == 0 {
		session.Launch = 1
	}
	session.LastActive = session.StartedAt
	session.Status = SessionStatusActive

	return withRetry(func() error {
		_, err := s.db.Exec(`
			INSERT INTO sessions (session_id, game, engine, launch, started_at, last_active, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, session.ID, session.Game, session.Engine, session.Launch,
			session.StartedAt.UTC(), session.LastActive.UTC(), session.Status)
		return err
	})
}

// EndSession marks a session finished with status. exitErr is recorded
// when non-nil.
func (s *Store) EndSession(sessionID, status string, exitErr error) error {
	switch status {
	case SessionStatusCompleted, SessionStatusFailed, SessionStatusRelaunched:
	default:
		return fmt.Errorf("invalid end status: %s", status)
	}
	var errText string
	if exitErr != nil {
		errText = exitErr.Error()
	}

	now := time.Now().UTC()
	var affected int64
	err := withRetry(func() error {
		res, err := s.db.Exec(`
			UPDATE sessions SET status = ?, ended_at = ?, last_active = ?, exit_error = ?
			WHERE session_id = ?
		`, status, now, now, errText, sessionID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}

const sessionColumns = `
	s.session_id, s.game, s.engine, s.launch, s.started_at, s.last_active,
	s.ended_at, s.status, s.exit_error,
	(SELECT COUNT(*) FROM session_events e WHERE e.session_id = s.session_id)
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session    Session
		lastActive sql.NullTime
		ended      sql.NullTime
	)
	if err := row.Scan(
		&session.ID,
		&session.Game,
		&session.Engine,
		&session.Launch,
		&session.StartedAt,
		&lastActive,
		&ended,
		&session.Status,
		&session.ExitError,
		&session.EventCount,
	); err != nil {
		return nil, err
	}
	session.LastActive = session.StartedAt
	if lastActive.Valid {
		session.LastActive = lastActive.Time
	}
	if ended.Valid {
		session.EndedAt = &ended.Time
	}
	return &session, nil
}

// GetSession returns the session with id, or nil when there is none.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions s WHERE s.session_id = ?`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return session, err
}

// ListSessions returns the most recent sessions first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT `+sessionColumns+`
		FROM sessions s
		ORDER BY s.started_at DESC, s.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// PruneSessions deletes sessions started before cutoff along with their
// events and reports how many were removed.
func (s *Store) PruneSessions(cutoff time.Time) (int64, error) {
	var n int64
	err := withRetry(func() error {
		res, err := s.db.Exec(`DELETE FROM sessions WHERE started_at < ? AND status != ?`,
			cutoff.UTC(), SessionStatusActive)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}
