package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/config"
)

// AlternativeConfig bounds the neighbourhood searched around a blocked proposal.
type AlternativeConfig struct {
	DayRadius   int
	HourRadius  int
	StepMinutes int
	MaxResults  int
	MinScore    float64
}

func DefaultAlternativeConfig() AlternativeConfig {
	return AlternativeConfig{DayRadius: 2, HourRadius: 3, StepMinutes: 60, MaxResults: 5, MinScore: 0.3}
}

func AlternativeConfigFromConfig(alt config.AlternativesConfig, sched config.SchedulerConfig) AlternativeConfig {
	return AlternativeConfig{
		DayRadius:   alt.DayRadius,
		HourRadius:  alt.HourRadius,
		StepMinutes: sched.StepMinutes,
		MaxResults:  alt.MaxResults,
		MinScore:    sched.MinScore,
	}.normalized()
}

func (c AlternativeConfig) normalized() AlternativeConfig {
	defaults := DefaultAlternativeConfig()
	if c.DayRadius < 0 {
		c.DayRadius = defaults.DayRadius
	}
	if c.HourRadius < 0 {
		c.HourRadius = defaults.HourRadius
	}
	if c.StepMinutes <= 0 {
		c.StepMinutes = defaults.StepMinutes
	}
	if c.MaxResults <= 0 {
		c.MaxResults = defaults.MaxResults
	}
	return c
}

// AlternativeSuggester searches nearby conflict-free times for a blocked proposal.
type AlternativeSuggester struct {
	engine   *ScoringEngine
	detector *ConflictDetector
	cfg      AlternativeConfig
	caches   ScoreCacheFactory
}

func NewAlternativeSuggester(engine *ScoringEngine, detector *ConflictDetector, cfg AlternativeConfig, caches ScoreCacheFactory) *AlternativeSuggester {
	if detector == nil {
		detector = NewConflictDetector(engine.Location())
	}
	if caches == nil {
		caches = NewMemoCacheFactory(0, 0)
	}
	return &AlternativeSuggester{engine: engine, detector: detector, cfg: cfg.normalized(), caches: caches}
}

type scoredAlternative struct {
	alt   models.AlternativeTime
	shift time.Duration
}

// SuggestAlternatives returns up to MaxResults conflict-free times near the
// proposal, best first. A proposal without conflicts needs no alternatives.
func (a *AlternativeSuggester) SuggestAlternatives(
	proposal models.ProposedSession,
	conflicts []models.Conflict,
	therapist *models.Therapist,
	client *models.Client,
	sessions []models.Session,
	excludeID string,
) ([]models.AlternativeTime, error) {
	if err := a.detector.validate(proposal, therapist, client); err != nil {
		return nil, err
	}
	for i := range sessions {
		if err := sessions[i].Validate(); err != nil {
			return nil, invalidInput(err)
		}
	}
	if len(conflicts) == 0 {
		return []models.AlternativeTime{}, nil
	}

	normalized := a.engine.NormalizeTherapist(*therapist)
	engine := a.engine.WithCache(a.caches())
	index := NewSessionIndex(sessions, []models.Client{*client}).Without(excludeID)
	loc := engine.Location()
	origin := proposal.StartTime.In(loc)
	duration := proposal.Duration()
	step := time.Duration(a.cfg.StepMinutes) * time.Minute
	radius := time.Duration(a.cfg.HourRadius) * time.Hour

	var found []scoredAlternative
	for dayShift := -a.cfg.DayRadius; dayShift <= a.cfg.DayRadius; dayShift++ {
		day := origin.AddDate(0, 0, dayShift)
		for offset := -radius; offset <= radius; offset += step {
			if dayShift == 0 && offset == 0 {
				continue
			}
			start := day.Add(offset)
			candidate := models.ProposedSession{
				TherapistID: proposal.TherapistID,
				ClientID:    proposal.ClientID,
				StartTime:   start,
				EndTime:     start.Add(duration),
			}
			if len(a.detector.detect(candidate, &normalized, client, index, "")) > 0 {
				continue
			}
			score := engine.Score(&normalized, client, candidate.StartTime, candidate.EndTime, index)
			if score.Total <= a.cfg.MinScore {
				continue
			}
			found = append(found, scoredAlternative{
				alt: models.AlternativeTime{
					StartTime: candidate.StartTime,
					EndTime:   candidate.EndTime,
					Score:     score.Total,
					Reason:    describeShift(dayShift, offset),
				},
				shift: absDuration(start.Sub(origin)),
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].alt.Score != found[j].alt.Score {
			return found[i].alt.Score > found[j].alt.Score
		}
		if found[i].shift != found[j].shift {
			return found[i].shift < found[j].shift
		}
		return found[i].alt.StartTime.Before(found[j].alt.StartTime)
	})

	out := make([]models.AlternativeTime, 0, a.cfg.MaxResults)
	for _, f := range found {
		if len(out) == a.cfg.MaxResults {
			break
		}
		out = append(out, f.alt)
	}
	return out, nil
}

// describeShift renders e.g. "same day, 1h later" or "2 days earlier, 30m earlier".
func describeShift(days int, offset time.Duration) string {
	var parts []string
	switch {
	case days == 0:
		parts = append(parts, "same day")
	case days == 1:
		parts = append(parts, "1 day later")
	case days == -1:
		parts = append(parts, "1 day earlier")
	case days > 1:
		parts = append(parts, fmt.Sprintf("%d days later", days))
	default:
		parts = append(parts, fmt.Sprintf("%d days earlier", -days))
	}

	if offset == 0 {
		parts = append(parts, "same time")
	} else {
		direction := "later"
		if offset < 0 {
			direction = "earlier"
		}
		parts = append(parts, formatOffset(absDuration(offset))+" "+direction)
	}
	return strings.Join(parts, ", ")
}

func formatOffset(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
