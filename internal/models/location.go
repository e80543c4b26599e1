package models

import (
	"fmt"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/geo"
)

// Coordinate is a WGS84 position with an optional address label.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   *string `json:"address,omitempty"`
}

func (c Coordinate) Point() geo.Point {
	return geo.Point{Lat: c.Latitude, Lng: c.Longitude}
}

func (c Coordinate) Validate() error {
	if !c.Point().Valid() {
		return fmt.Errorf("coordinate (%f, %f) out of range", c.Latitude, c.Longitude)
	}
	return nil
}

// Location is a stop on a therapist's route.
type Location struct {
	ID         string     `json:"id"`
	Label      string     `json:"label,omitempty"`
	Coordinate Coordinate `json:"coordinate"`
}

// RoutePlan is an optimized visiting order. The tour returns to Start.
type RoutePlan struct {
	Start          Location   `json:"start"`
	Stops          []Location `json:"stops"`
	DistanceKm     float64    `json:"distanceKm"`
	SeedDistanceKm float64    `json:"seedDistanceKm"`
	Iterations     int        `json:"iterations"`
}
