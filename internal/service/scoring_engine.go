package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/config"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/geo"
)

const (
	preferredStartHour = 9.0
	preferredEndHour   = 15.0
	seniorExperience   = 3
	weightTolerance    = 1e-6
)

// ScoringWeights blends the seven score terms. They must be non-negative and sum to 1.
type ScoringWeights struct {
	Compatibility float64 `json:"compatibility"`
	Availability  float64 `json:"availability"`
	Workload      float64 `json:"workload"`
	Travel        float64 `json:"travel"`
	Continuity    float64 `json:"continuity"`
	Urgency       float64 `json:"urgency"`
	Efficiency    float64 `json:"efficiency"`
}

func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Compatibility: 0.25,
		Availability:  0.20,
		Workload:      0.15,
		Travel:        0.15,
		Continuity:    0.10,
		Urgency:       0.10,
		Efficiency:    0.05,
	}
}

func ScoringWeightsFromConfig(cfg config.WeightsConfig) ScoringWeights {
	return ScoringWeights{
		Compatibility: cfg.Compatibility,
		Availability:  cfg.Availability,
		Workload:      cfg.Workload,
		Travel:        cfg.Travel,
		Continuity:    cfg.Continuity,
		Urgency:       cfg.Urgency,
		Efficiency:    cfg.Efficiency,
	}
}

func (w ScoringWeights) values() []float64 {
	return []float64{w.Compatibility, w.Availability, w.Workload, w.Travel, w.Continuity, w.Urgency, w.Efficiency}
}

// Validate rejects negative weights and totals that are not 1.
func (w ScoringWeights) Validate() error {
	var sum float64
	for _, v := range w.values() {
		if v < 0 || math.IsNaN(v) {
			return appErrors.Clone(appErrors.ErrInvalidWeights, "weights must not be negative")
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("weights must sum to 1, got %.4f", sum))
	}
	return nil
}

// ScoreBreakdown exposes each term next to the weighted total.
type ScoreBreakdown struct {
	Compatibility float64 `json:"compatibility"`
	Availability  float64 `json:"availability"`
	Workload      float64 `json:"workload"`
	Travel        float64 `json:"travel"`
	Continuity    float64 `json:"continuity"`
	Urgency       float64 `json:"urgency"`
	Efficiency    float64 `json:"efficiency"`
	Total         float64 `json:"total"`
}

// Combine applies the weights to a breakdown and stores the clamped total.
func (w ScoringWeights) Combine(b ScoreBreakdown) ScoreBreakdown {
	b.Total = clamp01(w.Compatibility*b.Compatibility +
		w.Availability*b.Availability +
		w.Workload*b.Workload +
		w.Travel*b.Travel +
		w.Continuity*b.Continuity +
		w.Urgency*b.Urgency +
		w.Efficiency*b.Efficiency)
	return b
}

// ScoringEngineConfig wires the engine. Zero values fall back to defaults.
type ScoringEngineConfig struct {
	Weights          ScoringWeights
	Speeds           geo.SpeedProfile
	Factors          FactorStrategy
	Location         *time.Location
	DefaultWeeklyMax int
	DefaultDailyMax  int
}

// ScoringEngine computes [0,1] scores for (therapist, client, interval) triples.
// Results depend only on the arguments, which makes them safe to memoize.
type ScoringEngine struct {
	weights   ScoringWeights
	speeds    geo.SpeedProfile
	factors   FactorStrategy
	loc       *time.Location
	weeklyMax int
	dailyMax  int
	cache     ScoreCache
}

func NewScoringEngine(cfg ScoringEngineConfig) (*ScoringEngine, error) {
	if cfg.Weights == (ScoringWeights{}) {
		cfg.Weights = DefaultScoringWeights()
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if cfg.Speeds == (geo.SpeedProfile{}) {
		cfg.Speeds = geo.DefaultSpeedProfile()
	}
	if cfg.Factors == nil {
		cfg.Factors = NeutralFactors{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultWeeklyMax <= 0 {
		cfg.DefaultWeeklyMax = 40
	}
	if cfg.DefaultDailyMax <= 0 {
		cfg.DefaultDailyMax = 8
	}
	return &ScoringEngine{
		weights:   cfg.Weights,
		speeds:    cfg.Speeds,
		factors:   cfg.Factors,
		loc:       cfg.Location,
		weeklyMax: cfg.DefaultWeeklyMax,
		dailyMax:  cfg.DefaultDailyMax,
	}, nil
}

// WithCache returns a copy of the engine that memoizes into cache.
func (e *ScoringEngine) WithCache(cache ScoreCache) *ScoringEngine {
	clone := *e
	clone.cache = cache
	return &clone
}

// Location is the canonical zone every clock comparison happens in.
func (e *ScoringEngine) Location() *time.Location { return e.loc }

func (e *ScoringEngine) Weights() ScoringWeights { return e.weights }

// NormalizeTherapist applies the engine's default hour caps.
func (e *ScoringEngine) NormalizeTherapist(t models.Therapist) models.Therapist {
	return t.Normalized(e.weeklyMax, e.dailyMax)
}

func (e *ScoringEngine) memo(key string, compute func() float64) float64 {
	if e.cache == nil {
		return compute()
	}
	if v, ok := e.cache.Get(key); ok {
		return v
	}
	v := compute()
	e.cache.Set(key, v)
	return v
}

// Compatibility scores how well the therapist's profile fits the client. It is 0
// whenever they share no service type.
func (e *ScoringEngine) Compatibility(t *models.Therapist, c *models.Client) float64 {
	return e.memo("compat|"+t.ID+"|"+c.ID, func() float64 {
		jaccard := jaccardIndex(t.ServiceTypes, c.ServicePreferences)
		if jaccard == 0 {
			return 0
		}
		score := 0.4 * jaccard
		if specialtyMatches(t.Specialties, c.Diagnoses) {
			score += 0.3
		}
		if languageMatches(t.Languages, c.PreferredLanguage) {
			score += 0.2
		}
		if t.YearsExperience >= seniorExperience {
			score += 0.1
		}
		return clamp01(score)
	})
}

// Availability is 0 when either party is closed or booked during [start, end).
// Otherwise it rewards intervals near the 09:00-15:00 block.
func (e *ScoringEngine) Availability(start, end time.Time, t *models.Therapist, c *models.Client, sessions *SessionIndex) float64 {
	start, end = start.In(e.loc), end.In(e.loc)
	if !end.After(start) {
		return 0
	}
	if !e.fits("t:"+t.ID, t.Availability, start, end) || !e.fits("c:"+c.ID, c.Availability, start, end) {
		return 0
	}
	if len(sessions.Overlapping(t.ID, c.ID, start, end, "")) > 0 {
		return 0
	}
	startHour := ClockHours(start)
	endHour := startHour + end.Sub(start).Hours()
	return clamp01(1 - (math.Abs(startHour-preferredStartHour)+math.Abs(endHour-preferredEndHour))/10)
}

func (e *ScoringEngine) fits(owner string, availability models.WeeklyAvailability, start, end time.Time) bool {
	key := strings.Join([]string{"fit", owner, strconv.Itoa(int(start.Weekday())), strconv.Itoa(int(models.ClockOf(start))), strconv.Itoa(int(end.Sub(start) / time.Minute))}, "|")
	return e.memo(key, func() float64 {
		if availability.Covers(start, end) {
			return 1
		}
		return 0
	}) == 1
}

// Workload favours therapists below the midpoint of their weekly band and is 0
// once the weekly or daily cap is reached.
func (e *ScoringEngine) Workload(t *models.Therapist, start time.Time, sessions *SessionIndex) float64 {
	therapist := e.NormalizeTherapist(*t)
	day := startOfDay(start.In(e.loc))
	week := startOfISOWeek(day)

	assigned := sessions.TherapistHours(therapist.ID, week, week.AddDate(0, 0, 7))
	if assigned >= float64(therapist.WeeklyHoursMax) {
		return 0
	}
	if sessions.TherapistHours(therapist.ID, day, day.AddDate(0, 0, 1)) >= float64(therapist.MaxDailyHours) {
		return 0
	}
	target := therapist.TargetWeeklyHours()
	if target <= 0 {
		return 0
	}
	return clamp01((target - assigned) / target)
}

// Travel penalises long drives from the therapist's previous session that day.
// Missing coordinates yield the neutral 0.5; the first session of the day scores 1.
func (e *ScoringEngine) Travel(t *models.Therapist, c *models.Client, start time.Time, sessions *SessionIndex) float64 {
	if t.Location == nil || c.Location == nil {
		return neutralScore
	}
	start = start.In(e.loc)
	var previous *models.Session
	for _, s := range sessions.ForTherapist(t.ID) {
		if !s.StartTime.Before(start) {
			break
		}
		if sameDate(s.StartTime.In(e.loc), start) {
			prev := s
			previous = &prev
		}
	}
	if previous == nil {
		return 1
	}
	from := sessions.ClientLocation(previous.ClientID)
	if from == nil {
		return neutralScore
	}
	minutes := e.speeds.TravelMinutes(from.Point(), c.Location.Point(), start)
	return clamp01(1 - minutes/60)
}

// Score evaluates every term for a candidate and combines them.
func (e *ScoringEngine) Score(t *models.Therapist, c *models.Client, start, end time.Time, sessions *SessionIndex) ScoreBreakdown {
	in := FactorInput{Therapist: t, Client: c, Start: start, End: end, Sessions: sessions, Location: e.loc}
	return e.weights.Combine(ScoreBreakdown{
		Compatibility: e.Compatibility(t, c),
		Availability:  e.Availability(start, end, t, c, sessions),
		Workload:      e.Workload(t, start, sessions),
		Travel:        e.Travel(t, c, start, sessions),
		Continuity:    clamp01(e.factors.Continuity(in)),
		Urgency:       clamp01(e.factors.Urgency(in)),
		Efficiency:    clamp01(e.factors.Efficiency(in)),
	})
}

// ClockHours returns the wall-clock position of t as fractional hours.
func ClockHours(t time.Time) float64 {
	return models.ClockOf(t).Hours() + float64(t.Second())/3600
}

func jaccardIndex(a, b []string) float64 {
	left := lowerSet(a)
	right := lowerSet(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	var shared int
	for v := range left {
		if _, ok := right[v]; ok {
			shared++
		}
	}
	union := len(left) + len(right) - shared
	return float64(shared) / float64(union)
}

func specialtyMatches(specialties, diagnoses []string) bool {
	for _, s := range specialties {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		for _, d := range diagnoses {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" {
				continue
			}
			if strings.Contains(d, s) || strings.Contains(s, d) {
				return true
			}
		}
	}
	return false
}

func languageMatches(languages []string, preferred string) bool {
	preferred = strings.TrimSpace(preferred)
	if preferred == "" {
		return true
	}
	for _, l := range languages {
		if strings.EqualFold(strings.TrimSpace(l), preferred) {
			return true
		}
	}
	return false
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfISOWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return startOfDay(day).AddDate(0, 0, -offset)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
