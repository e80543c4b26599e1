package models

import (
	"errors"
	"time"
)

// ScheduleSlot is a scored, uncommitted (therapist, client, interval) proposal.
type ScheduleSlot struct {
	TherapistID string      `json:"therapistId"`
	ClientID    string      `json:"clientId"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     time.Time   `json:"endTime"`
	Score       float64     `json:"score"`
	Location    *Coordinate `json:"location,omitempty"`
}

// ProposedSession is a booking under consideration, new or edited.
type ProposedSession struct {
	TherapistID string    `json:"therapistId"`
	ClientID    string    `json:"clientId"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
}

func (p ProposedSession) Validate() error {
	if p.TherapistID == "" || p.ClientID == "" {
		return errors.New("therapistId and clientId are required")
	}
	if !p.EndTime.After(p.StartTime) {
		return errors.New("end time must be after start time")
	}
	return nil
}

// Duration of the proposal.
func (p ProposedSession) Duration() time.Duration {
	return p.EndTime.Sub(p.StartTime)
}

// ConflictType classifies why a proposal cannot be booked.
type ConflictType string

const (
	ConflictTherapistUnavailable ConflictType = "therapist_unavailable"
	ConflictClientUnavailable    ConflictType = "client_unavailable"
	ConflictSessionOverlap       ConflictType = "session_overlap"
)

// Conflict is one reason a proposal is blocked. SessionID is set for overlaps.
type Conflict struct {
	Type      ConflictType `json:"type"`
	Message   string       `json:"message"`
	SessionID string       `json:"sessionId,omitempty"`
}

// AlternativeTime is a conflict-free replacement for a blocked proposal.
type AlternativeTime struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Score     float64   `json:"score"`
	Reason    string    `json:"reason"`
}
