package models

import (
	"errors"
	"fmt"
)

// Client is a service recipient. AuthorizedHours caps the hours placed per period.
type Client struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name,omitempty"`
	ServicePreferences []string           `json:"servicePreferences"`
	Diagnoses          []string           `json:"diagnoses,omitempty"`
	PreferredLanguage  string             `json:"preferredLanguage,omitempty"`
	Availability       WeeklyAvailability `json:"availability"`
	AuthorizedHours    float64            `json:"authorizedHours"`
	Address            *string            `json:"address,omitempty"`
	Location           *Coordinate        `json:"location,omitempty"`
	PreferredRadiusKm  *float64           `json:"preferredRadiusKm,omitempty"`
}

func (c *Client) Validate() error {
	if c == nil {
		return errors.New("client is required")
	}
	if c.ID == "" {
		return errors.New("client id is required")
	}
	if c.AuthorizedHours < 0 {
		return fmt.Errorf("client %s: authorizedHours must not be negative", c.ID)
	}
	if err := c.Availability.Validate(); err != nil {
		return fmt.Errorf("client %s availability: %w", c.ID, err)
	}
	if c.Location != nil {
		if err := c.Location.Validate(); err != nil {
			return fmt.Errorf("client %s: %w", c.ID, err)
		}
	}
	return nil
}
