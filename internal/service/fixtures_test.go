package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
)

// monday is 2024-01-01, the first day of ISO week 2024-W01.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func window(t *testing.T, start, end string) models.TimeWindow {
	t.Helper()
	s, err := models.ParseClockTime(start)
	require.NoError(t, err)
	e, err := models.ParseClockTime(end)
	require.NoError(t, err)
	return models.TimeWindow{Start: s, End: e}
}

func weekdays(t *testing.T, start, end string, days ...time.Weekday) models.WeeklyAvailability {
	t.Helper()
	out := models.WeeklyAvailability{}
	for _, d := range days {
		out[d] = window(t, start, end)
	}
	return out
}

func allWeekdays() []time.Weekday {
	return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
}

func scenarioTherapist(t *testing.T) models.Therapist {
	return models.Therapist{
		ID:             "T",
		ServiceTypes:   []string{"ABA"},
		Availability:   weekdays(t, "09:00", "17:00", time.Monday),
		WeeklyHoursMax: 40,
	}
}

func scenarioClient(t *testing.T) models.Client {
	return models.Client{
		ID:                 "C",
		ServicePreferences: []string{"ABA"},
		Availability:       weekdays(t, "09:00", "17:00", time.Monday),
		AuthorizedHours:    10,
	}
}

func session(id, therapistID, clientID string, start time.Time, minutes int, status models.SessionStatus) models.Session {
	return models.Session{
		ID:          id,
		TherapistID: therapistID,
		ClientID:    clientID,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(minutes) * time.Minute),
		Status:      status,
	}
}

func coordinate(lat, lng float64) *models.Coordinate {
	return &models.Coordinate{Latitude: lat, Longitude: lng}
}

func newTestEngine(t *testing.T, factors FactorStrategy) *ScoringEngine {
	t.Helper()
	engine, err := NewScoringEngine(ScoringEngineConfig{Factors: factors})
	require.NoError(t, err)
	return engine
}
