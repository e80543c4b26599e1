package models

import (
	"errors"
	"fmt"
)

// Therapist is a provider record supplied by the entity-management system.
type Therapist struct {
	ID              string             `json:"id"`
	Name            string             `json:"name,omitempty"`
	ServiceTypes    []string           `json:"serviceTypes"`
	Specialties     []string           `json:"specialties,omitempty"`
	Languages       []string           `json:"languages,omitempty"`
	YearsExperience int                `json:"yearsExperience"`
	Availability    WeeklyAvailability `json:"availability"`
	WeeklyHoursMin  int                `json:"weeklyHoursMin"`
	WeeklyHoursMax  int                `json:"weeklyHoursMax"`
	MaxDailyHours   int                `json:"maxDailyHours,omitempty"`
	Location        *Coordinate        `json:"location,omitempty"`
	ServiceRadiusKm *float64           `json:"serviceRadiusKm,omitempty"`
}

// Validate reports malformed records; missing optional data is not an error.
func (t *Therapist) Validate() error {
	if t == nil {
		return errors.New("therapist is required")
	}
	if t.ID == "" {
		return errors.New("therapist id is required")
	}
	if t.YearsExperience < 0 {
		return fmt.Errorf("therapist %s: yearsExperience must not be negative", t.ID)
	}
	if err := t.Availability.Validate(); err != nil {
		return fmt.Errorf("therapist %s availability: %w", t.ID, err)
	}
	if t.Location != nil {
		if err := t.Location.Validate(); err != nil {
			return fmt.Errorf("therapist %s: %w", t.ID, err)
		}
	}
	return nil
}

// Normalized fills hour caps from defaults and clamps the weekly minimum into [0, max].
func (t Therapist) Normalized(weeklyMax, dailyMax int) Therapist {
	if t.WeeklyHoursMax <= 0 {
		t.WeeklyHoursMax = weeklyMax
	}
	if t.WeeklyHoursMin < 0 {
		t.WeeklyHoursMin = 0
	}
	if t.WeeklyHoursMin > t.WeeklyHoursMax {
		t.WeeklyHoursMin = t.WeeklyHoursMax
	}
	if t.MaxDailyHours <= 0 {
		t.MaxDailyHours = dailyMax
	}
	return t
}

// TargetWeeklyHours is the midpoint of the weekly band.
func (t Therapist) TargetWeeklyHours() float64 {
	return float64(t.WeeklyHoursMin+t.WeeklyHoursMax) / 2
}
