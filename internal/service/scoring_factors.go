package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
)

const (
	FactorModeNeutral = "neutral"
	FactorModeHistory = "history"

	neutralScore = 0.5
)

// FactorInput carries one candidate plus the booking snapshot it is judged against.
type FactorInput struct {
	Therapist *models.Therapist
	Client    *models.Client
	Start     time.Time
	End       time.Time
	Sessions  *SessionIndex
	Location  *time.Location
}

// FactorStrategy scores the secondary terms of a candidate. Every result is in [0,1].
type FactorStrategy interface {
	Continuity(in FactorInput) float64
	Urgency(in FactorInput) float64
	Efficiency(in FactorInput) float64
}

// NewFactorStrategy resolves a configured mode. Empty means neutral.
func NewFactorStrategy(mode string) (FactorStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", FactorModeNeutral:
		return NeutralFactors{}, nil
	case FactorModeHistory:
		return HistoryFactors{}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("unknown factor mode %q", mode))
	}
}

// NeutralFactors returns 0.5 for every term.
type NeutralFactors struct{}

func (NeutralFactors) Continuity(FactorInput) float64 { return neutralScore }
func (NeutralFactors) Urgency(FactorInput) float64    { return neutralScore }
func (NeutralFactors) Efficiency(FactorInput) float64 { return neutralScore }

// HistoryFactors derives the secondary terms from the booking history.
type HistoryFactors struct{}

// Continuity is the share of the client's completed sessions held with this therapist.
func (HistoryFactors) Continuity(in FactorInput) float64 {
	var total, withPair int
	for _, s := range in.Sessions.ForClient(in.Client.ID) {
		if s.Status != models.SessionStatusCompleted {
			continue
		}
		total++
		if s.TherapistID == in.Therapist.ID {
			withPair++
		}
	}
	if total == 0 {
		return neutralScore
	}
	return clamp01(float64(withPair) / float64(total))
}

// Urgency grows when much of the month's authorization is unused and few days remain.
func (HistoryFactors) Urgency(in FactorInput) float64 {
	if in.Client.AuthorizedHours <= 0 {
		return neutralScore
	}
	start := in.Start.In(in.Location)
	monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, in.Location)
	monthEnd := monthStart.AddDate(0, 1, 0)
	daysInMonth := monthEnd.AddDate(0, 0, -1).Day()

	used := in.Sessions.ClientHours(in.Client.ID, monthStart, monthEnd)
	remaining := clamp01((in.Client.AuthorizedHours - used) / in.Client.AuthorizedHours)
	daysLeft := float64(daysInMonth-start.Day()+1) / float64(daysInMonth)
	return clamp01(remaining - daysLeft + 0.5)
}

// Efficiency prefers candidates that extend an existing block of the therapist's day.
func (HistoryFactors) Efficiency(in FactorInput) float64 {
	start := in.Start.In(in.Location)
	sameDay := false
	for _, s := range in.Sessions.ForTherapist(in.Therapist.ID) {
		if s.EndTime.Equal(in.Start) || s.StartTime.Equal(in.End) {
			return 1
		}
		if sameDate(s.StartTime.In(in.Location), start) {
			sameDay = true
		}
	}
	if sameDay {
		return 0.6
	}
	return neutralScore
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
