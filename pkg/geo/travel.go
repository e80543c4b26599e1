package geo

import "time"

// SpeedProfile describes average road speeds used to convert distance into minutes.
type SpeedProfile struct {
	RushHourKmh float64
	OffPeakKmh  float64
}

// DefaultSpeedProfile mirrors typical urban averages.
func DefaultSpeedProfile() SpeedProfile {
	return SpeedProfile{RushHourKmh: 25, OffPeakKmh: 40}
}

type clockRange struct {
	from int
	to   int
}

// rush windows in minutes after midnight, half-open.
var rushWindows = []clockRange{
	{from: 7 * 60, to: 9 * 60},
	{from: 16 * 60, to: 18 * 60},
}

// IsRushHour reports whether t falls inside a morning or evening rush window.
func IsRushHour(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	for _, w := range rushWindows {
		if minute >= w.from && minute < w.to {
			return true
		}
	}
	return false
}

// SpeedKmh returns the average speed for a departure at t.
func (p SpeedProfile) SpeedKmh(t time.Time) float64 {
	p = p.normalized()
	if IsRushHour(t) {
		return p.RushHourKmh
	}
	return p.OffPeakKmh
}

// TravelMinutes estimates driving minutes between a and b when leaving at departAt.
func (p SpeedProfile) TravelMinutes(a, b Point, departAt time.Time) float64 {
	return DistanceKm(a, b) / p.SpeedKmh(departAt) * 60
}

func (p SpeedProfile) normalized() SpeedProfile {
	def := DefaultSpeedProfile()
	if p.RushHourKmh <= 0 {
		p.RushHourKmh = def.RushHourKmh
	}
	if p.OffPeakKmh <= 0 {
		p.OffPeakKmh = def.OffPeakKmh
	}
	return p
}
