package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
)

const conflictClockLayout = "3:04 PM"

// ConflictDetector explains why a proposed booking cannot be made. It performs no I/O.
type ConflictDetector struct {
	loc *time.Location
}

func NewConflictDetector(loc *time.Location) *ConflictDetector {
	if loc == nil {
		loc = time.UTC
	}
	return &ConflictDetector{loc: loc}
}

// DetectConflicts reports every applicable conflict, in the order therapist
// availability, client availability, then one overlap per clashing session.
// An empty slice means the proposal is clear to book.
func (d *ConflictDetector) DetectConflicts(
	proposal models.ProposedSession,
	therapist *models.Therapist,
	client *models.Client,
	sessions []models.Session,
	excludeID string,
) ([]models.Conflict, error) {
	if err := d.validate(proposal, therapist, client); err != nil {
		return nil, err
	}
	for i := range sessions {
		if err := sessions[i].Validate(); err != nil {
			return nil, invalidInput(err)
		}
	}
	return d.detect(proposal, therapist, client, NewSessionIndex(sessions, nil), excludeID), nil
}

func (d *ConflictDetector) validate(proposal models.ProposedSession, therapist *models.Therapist, client *models.Client) error {
	if err := proposal.Validate(); err != nil {
		return invalidInput(err)
	}
	if err := therapist.Validate(); err != nil {
		return invalidInput(err)
	}
	if err := client.Validate(); err != nil {
		return invalidInput(err)
	}
	if therapist.ID != proposal.TherapistID {
		return appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("therapist %s does not match proposal therapist %s", therapist.ID, proposal.TherapistID))
	}
	if client.ID != proposal.ClientID {
		return appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("client %s does not match proposal client %s", client.ID, proposal.ClientID))
	}
	return nil
}

func (d *ConflictDetector) detect(proposal models.ProposedSession, therapist *models.Therapist, client *models.Client, sessions *SessionIndex, excludeID string) []models.Conflict {
	start, end := proposal.StartTime.In(d.loc), proposal.EndTime.In(d.loc)
	conflicts := make([]models.Conflict, 0)

	if msg, ok := d.unavailable("therapist", therapist.Availability, start, end); ok {
		conflicts = append(conflicts, models.Conflict{Type: models.ConflictTherapistUnavailable, Message: msg})
	}
	if msg, ok := d.unavailable("client", client.Availability, start, end); ok {
		conflicts = append(conflicts, models.Conflict{Type: models.ConflictClientUnavailable, Message: msg})
	}
	for _, s := range sessions.Overlapping(therapist.ID, client.ID, start, end, excludeID) {
		party := "client"
		if s.TherapistID == therapist.ID {
			party = "therapist"
		}
		conflicts = append(conflicts, models.Conflict{
			Type:      models.ConflictSessionOverlap,
			SessionID: s.ID,
			Message: fmt.Sprintf("%s already has a session from %s to %s",
				party,
				s.StartTime.In(d.loc).Format(conflictClockLayout),
				s.EndTime.In(d.loc).Format(conflictClockLayout),
			),
		})
	}
	return conflicts
}

func (d *ConflictDetector) unavailable(party string, availability models.WeeklyAvailability, start, end time.Time) (string, bool) {
	day := strings.ToLower(start.Weekday().String())
	window, ok := availability.Window(start.Weekday())
	if !ok {
		return fmt.Sprintf("%s is not available on %s", party, day), true
	}
	if availability.Covers(start, end) {
		return "", false
	}
	return fmt.Sprintf("%s is only available from %s to %s on %s", party, window.Start, window.End, day), true
}
