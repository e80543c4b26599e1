package models

import (
	"errors"
	"fmt"
	"time"
)

// SessionStatus enumerates booking states.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
	SessionStatusNoShow    SessionStatus = "no-show"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusCompleted, SessionStatusCancelled, SessionStatusNoShow:
		return true
	}
	return false
}

// Session is an existing booking. The scheduler never mutates sessions.
type Session struct {
	ID          string        `json:"id" db:"id"`
	TherapistID string        `json:"therapistId" db:"therapist_id"`
	ClientID    string        `json:"clientId" db:"client_id"`
	StartTime   time.Time     `json:"startTime" db:"start_time"`
	EndTime     time.Time     `json:"endTime" db:"end_time"`
	Status      SessionStatus `json:"status" db:"status"`
	Notes       *string       `json:"notes,omitempty" db:"notes"`
}

func (s Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if !s.EndTime.After(s.StartTime) {
		return fmt.Errorf("session %s: end must be after start", s.ID)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("session %s: unknown status %q", s.ID, s.Status)
	}
	return nil
}

// Occupies reports whether the session still blocks its time range.
func (s Session) Occupies() bool {
	return s.Status != SessionStatusCancelled
}

// Hours is the session length in fractional hours.
func (s Session) Hours() float64 {
	return s.EndTime.Sub(s.StartTime).Hours()
}

// Overlaps reports whether the session shares any instant with [start, end).
func (s Session) Overlaps(start, end time.Time) bool {
	return IntervalsOverlap(s.StartTime, s.EndTime, start, end)
}

// Involves reports whether the session belongs to the therapist or the client.
func (s Session) Involves(therapistID, clientID string) bool {
	return s.TherapistID == therapistID || s.ClientID == clientID
}

// IntervalsOverlap tests half-open intervals. Touching endpoints do not overlap.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
