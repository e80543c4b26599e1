package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay bounds a ClockTime; 24:00 is allowed as a window end.
const MinutesPerDay = 24 * 60

// ClockTime is a wall-clock time expressed in minutes after midnight.
type ClockTime int

// ParseClockTime accepts "HH:MM" or "HH:MM:SS" (seconds are ignored).
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("clock time %q out of range", raw)
	}
	return ClockTime(hour*60 + minute), nil
}

// ClockOf returns the wall-clock position of t in its own location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

// Hours returns the clock time as fractional hours, e.g. 09:30 -> 9.5.
func (c ClockTime) Hours() float64 {
	return float64(c) / 60
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseClockTime(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimeWindow is a same-day availability range [Start, End).
type TimeWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Validate rejects empty or inverted windows.
func (w TimeWindow) Validate() error {
	if w.Start < 0 || w.End > MinutesPerDay {
		return fmt.Errorf("window %s-%s out of range", w.Start, w.End)
	}
	if w.Start >= w.End {
		return fmt.Errorf("window start %s must be before end %s", w.Start, w.End)
	}
	return nil
}

// Contains reports whether [start, end) lies fully inside the window.
func (w TimeWindow) Contains(start, end ClockTime) bool {
	return start >= w.Start && end <= w.End
}

// WeeklyAvailability maps a weekday to its window. Missing weekdays are closed.
type WeeklyAvailability map[time.Weekday]TimeWindow

// Window returns the window for day, if any.
func (a WeeklyAvailability) Window(day time.Weekday) (TimeWindow, bool) {
	if a == nil {
		return TimeWindow{}, false
	}
	w, ok := a[day]
	return w, ok
}

// Covers reports whether the interval starting at start and lasting until end sits
// inside the window of start's weekday. Intervals crossing midnight never fit.
func (a WeeklyAvailability) Covers(start, end time.Time) bool {
	w, ok := a.Window(start.Weekday())
	if !ok {
		return false
	}
	from := ClockOf(start)
	to := from + ClockTime(end.Sub(start)/time.Minute)
	return w.Contains(from, to)
}

// Validate checks every window and weekday key.
func (a WeeklyAvailability) Validate() error {
	for day, w := range a {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("unknown weekday %d", day)
		}
		if err := w.Validate(); err != nil {
			return fmt.Errorf("%s: %w", strings.ToLower(day.String()), err)
		}
	}
	return nil
}

func (a WeeklyAvailability) MarshalJSON() ([]byte, error) {
	out := make(map[string]TimeWindow, len(a))
	for day, w := range a {
		out[strings.ToLower(day.String())] = w
	}
	return json.Marshal(out)
}

func (a *WeeklyAvailability) UnmarshalJSON(data []byte) error {
	var raw map[string]TimeWindow
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := make(WeeklyAvailability, len(raw))
	for key, w := range raw {
		day, err := ParseWeekday(key)
		if err != nil {
			return err
		}
		parsed[day] = w
	}
	*a = parsed
	return nil
}

// Scan decodes a JSONB availability column.
func (a *WeeklyAvailability) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = WeeklyAvailability{}
		return nil
	case []byte:
		return a.UnmarshalJSON(v)
	case string:
		return a.UnmarshalJSON([]byte(v))
	default:
		return errors.New("unsupported availability column type")
	}
}

// Value encodes the availability for a JSONB column.
func (a WeeklyAvailability) Value() (driver.Value, error) {
	b, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Days returns the open weekdays in calendar order.
func (a WeeklyAvailability) Days() []time.Weekday {
	days := make([]time.Weekday, 0, len(a))
	for day := range a {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday accepts full or three-letter English names, any case.
func ParseWeekday(raw string) (time.Weekday, error) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", raw)
	}
	return day, nil
}
