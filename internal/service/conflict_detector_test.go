package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
)

func proposal(start time.Time, minutes int) models.ProposedSession {
	return models.ProposedSession{
		TherapistID: "T",
		ClientID:    "C",
		StartTime:   start,
		EndTime:     start.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestDetectConflictsReportsTherapistOverlap(t *testing.T) {
	detector := NewConflictDetector(time.UTC)
	therapist, client := scenarioTherapist(t), scenarioClient(t)
	existing := []models.Session{session("s1", "T", "C", at(monday, 10, 0), 60, models.SessionStatusScheduled)}

	conflicts, err := detector.DetectConflicts(proposal(at(monday, 10, 30), 60), &therapist, &client, existing, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictSessionOverlap, conflicts[0].Type)
	assert.Equal(t, "s1", conflicts[0].SessionID)
	assert.Equal(t, "therapist already has a session from 10:00 AM to 11:00 AM", conflicts[0].Message)
}

func TestDetectConflictsClearProposal(t *testing.T) {
	detector := NewConflictDetector(time.UTC)
	therapist, client := scenarioTherapist(t), scenarioClient(t)
	existing := []models.Session{
		session("s1", "T", "C", at(monday, 10, 0), 60, models.SessionStatusScheduled),
		session("s2", "T", "X", at(monday, 12, 0), 60, models.SessionStatusCancelled),
	}

	conflicts, err := detector.DetectConflicts(proposal(at(monday, 11, 0), 60), &therapist, &client, existing, "")
	require.NoError(t, err)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts, "back-to-back sessions do not collide")

	conflicts, err = detector.DetectConflicts(proposal(at(monday, 12, 0), 60), &therapist, &client, existing, "")
	require.NoError(t, err)
	assert.Empty(t, conflicts, "cancelled sessions do not occupy time")
}

func TestDetectConflictsOrdersEveryReason(t *testing.T) {
	detector := NewConflictDetector(time.UTC)
	therapist, client := scenarioTherapist(t), scenarioClient(t)
	tuesday := monday.AddDate(0, 0, 1)
	existing := []models.Session{
		session("s2", "T2", "C", at(tuesday, 10, 30), 60, models.SessionStatusNoShow),
		session("s1", "T", "X", at(tuesday, 10, 0), 60, models.SessionStatusScheduled),
	}

	conflicts, err := detector.DetectConflicts(proposal(at(tuesday, 10, 0), 60), &therapist, &client, existing, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 4)

	assert.Equal(t, models.ConflictTherapistUnavailable, conflicts[0].Type)
	assert.Equal(t, "therapist is not available on tuesday", conflicts[0].Message)
	assert.Equal(t, models.ConflictClientUnavailable, conflicts[1].Type)
	assert.Equal(t, "client is not available on tuesday", conflicts[1].Message)
	assert.Equal(t, "s1", conflicts[2].SessionID)
	assert.Equal(t, "therapist already has a session from 10:00 AM to 11:00 AM", conflicts[2].Message)
	assert.Equal(t, "s2", conflicts[3].SessionID)
	assert.Equal(t, "client already has a session from 10:30 AM to 11:30 AM", conflicts[3].Message)
}

func TestDetectConflictsOutsideWindow(t *testing.T) {
	detector := NewConflictDetector(time.UTC)
	therapist, client := scenarioTherapist(t), scenarioClient(t)
	client.Availability = weekdays(t, "08:00", "18:00", time.Monday)

	conflicts, err := detector.DetectConflicts(proposal(at(monday, 16, 30), 60), &therapist, &client, nil, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTherapistUnavailable, conflicts[0].Type)
	assert.Equal(t, "therapist is only available from 09:00 to 17:00 on monday", conflicts[0].Message)
}

func TestDetectConflictsExcludesEditedSession(t *testing.T) {
	detector := NewConflictDetector(time.UTC)
	therapist, client := scenarioTherapist(t), scenarioClient(t)
	existing := []models.Session{session("s1", "T", "C", at(monday, 10, 0), 60, models.SessionStatusScheduled)}

	conflicts, err := detector.DetectConflicts(proposal(at(monday, 10, 30), 60), &therapist, &client, existing, "s1")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestDetectConflictsUsesCanonicalZone(t *testing.T) {
	eastern := time.FixedZone("EST", -5*3600)
	detector := NewConflictDetector(eastern)
	therapist, client := scenarioTherapist(t), scenarioClient(t)

	// 15:00 UTC is 10:00 in the detector's zone.
	start := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	existing := []models.Session{session("s1", "T", "C", start, 60, models.SessionStatusScheduled)}
	conflicts, err := detector.DetectConflicts(proposal(start, 60), &therapist, &client, existing, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "therapist already has a session from 10:00 AM to 11:00 AM", conflicts[0].Message)
}

func TestDetectConflictsRejectsMalformedInput(t *testing.T) {
	detector := NewConflictDetector(nil)
	therapist, client := scenarioTherapist(t), scenarioClient(t)

	cases := map[string]func() error{
		"zero length": func() error {
			_, err := detector.DetectConflicts(proposal(at(monday, 10, 0), 0), &therapist, &client, nil, "")
			return err
		},
		"nil therapist": func() error {
			_, err := detector.DetectConflicts(proposal(at(monday, 10, 0), 60), nil, &client, nil, "")
			return err
		},
		"mismatched client": func() error {
			other := scenarioClient(t)
			other.ID = "other"
			_, err := detector.DetectConflicts(proposal(at(monday, 10, 0), 60), &therapist, &other, nil, "")
			return err
		},
		"bad session": func() error {
			bad := []models.Session{session("s1", "T", "C", at(monday, 10, 0), -30, models.SessionStatusScheduled)}
			_, err := detector.DetectConflicts(proposal(at(monday, 10, 0), 60), &therapist, &client, bad, "")
			return err
		},
	}
	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			err := run()
			require.Error(t, err)
			assert.True(t, appErrors.IsInvalidInput(err), err.Error())
		})
	}
}
