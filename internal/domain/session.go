package domain

import (
	"time"
)

// PendingIntent tracks an intent whose required parameters have not all been
// collected yet. It is absent from the session once the intent is resolved,
// cleared or superseded by a topic switch.
type PendingIntent struct {
	Intent     string            `json:"intent"`
	Collected  map[string]string `json:"collected_parameters"`
	Missing    []string          `json:"missing_parameters"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// Clone returns a deep copy so callers can hand snapshots to collaborators
// without exposing the session's own maps.
func (p *PendingIntent) Clone() *PendingIntent {
	if p == nil {
		return nil
	}
	cp := &PendingIntent{
		Intent:     p.Intent,
		Collected:  make(map[string]string, len(p.Collected)),
		Missing:    append([]string(nil), p.Missing...),
		RecordedAt: p.RecordedAt,
	}
	for k, v := range p.Collected {
		cp.Collected[k] = v
	}
	return cp
}

// TurnData is what gets appended to the session history for every recorded
// turn. History is audit-only; the merge logic never reads it.
type TurnData struct {
	TurnID        string            `json:"turn_id,omitempty"`
	Text          string            `json:"text,omitempty"`
	Intent        string            `json:"intent"`
	Parameters    map[string]string `json:"parameters,omitempty"`
	Language      string            `json:"language,omitempty"`
	SecurityAlert bool              `json:"security_alert,omitempty"`
}

type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Turn      TurnData  `json:"turn"`
}

// Session is the per-user conversational state. One session per user ID (the
// user's phone number in the WhatsApp deployment).
type Session struct {
	UserID       string         `json:"user_id"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
	Pending      *PendingIntent `json:"pending_intent,omitempty"`
	History      []HistoryEntry `json:"history"`
}

func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
		History:      []HistoryEntry{},
	}
}

// Expired reports whether the session has been idle longer than timeout.
func (s *Session) Expired(timeout time.Duration, now time.Time) bool {
	return now.Sub(s.LastActivity) > timeout
}

// Touch stamps activity time. LastActivity never moves backwards, even if a
// delayed write carries an older timestamp.
func (s *Session) Touch(now time.Time) {
	if now.After(s.LastActivity) {
		s.LastActivity = now
	}
}

// AppendTurn adds an audit record to the session history.
func (s *Session) AppendTurn(now time.Time, turn TurnData) {
	s.History = append(s.History, HistoryEntry{Timestamp: now, Turn: turn})
}

// TurnResult is the outcome of recording one turn against a session.
type TurnResult struct {
	Session *Session `json:"session"`

	// Pending is the merged pending intent for this turn, including a
	// completed one that was cleared from the session.
	Pending *PendingIntent `json:"pending,omitempty"`

	IsComplete     bool `json:"is_complete"`
	ExecutionReady bool `json:"execution_ready"`

	// Created is true when this turn started a brand-new session.
	Created bool `json:"created"`
}
