package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/config"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
)

// GeneratorConfig governs the horizon walk and acceptance rules.
type GeneratorConfig struct {
	MinScore        float64
	DayStartHour    int
	DayEndHour      int
	StepMinutes     int
	DefaultDuration int
	ExcludedDays    []time.Weekday
	MaxResults      int
	BreakMinutes    int
	Workers         int
	MaxHorizonDays  int
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MinScore:        0.3,
		DayStartHour:    8,
		DayEndHour:      18,
		StepMinutes:     60,
		DefaultDuration: 60,
		ExcludedDays:    []time.Weekday{time.Sunday},
		MaxResults:      100,
		Workers:         4,
		MaxHorizonDays:  366,
	}
}

// GeneratorConfigFromConfig maps scheduler settings, rejecting unknown weekday names.
func GeneratorConfigFromConfig(cfg config.SchedulerConfig) (GeneratorConfig, error) {
	out := DefaultGeneratorConfig()
	out.MinScore = cfg.MinScore
	out.DayStartHour = cfg.DayStartHour
	out.DayEndHour = cfg.DayEndHour
	out.StepMinutes = cfg.StepMinutes
	out.DefaultDuration = cfg.DefaultDuration
	out.MaxResults = cfg.MaxResults
	out.BreakMinutes = cfg.BreakMinutes
	out.Workers = cfg.Workers
	out.ExcludedDays = out.ExcludedDays[:0]
	for _, raw := range cfg.ExcludedDays {
		day, err := models.ParseWeekday(raw)
		if err != nil {
			return GeneratorConfig{}, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid excluded day")
		}
		out.ExcludedDays = append(out.ExcludedDays, day)
	}
	return out.normalized(), nil
}

func (c GeneratorConfig) normalized() GeneratorConfig {
	defaults := DefaultGeneratorConfig()
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		c.DayStartHour = defaults.DayStartHour
	}
	if c.DayEndHour <= c.DayStartHour || c.DayEndHour > 24 {
		c.DayEndHour = defaults.DayEndHour
	}
	if c.StepMinutes <= 0 {
		c.StepMinutes = defaults.StepMinutes
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = defaults.DefaultDuration
	}
	if c.MaxResults <= 0 {
		c.MaxResults = defaults.MaxResults
	}
	if c.BreakMinutes < 0 {
		c.BreakMinutes = 0
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.MaxHorizonDays <= 0 {
		c.MaxHorizonDays = defaults.MaxHorizonDays
	}
	return c
}

func (c GeneratorConfig) excluded(day time.Weekday) bool {
	for _, d := range c.ExcludedDays {
		if d == day {
			return true
		}
	}
	return false
}

// GenerateInput is the snapshot one generation runs against. Dates are inclusive.
type GenerateInput struct {
	Therapists      []models.Therapist
	Clients         []models.Client
	Sessions        []models.Session
	StartDate       time.Time
	EndDate         time.Time
	DurationMinutes int
}

// GenerationStats summarises a run.
type GenerationStats struct {
	CompatiblePairs int  `json:"compatiblePairs"`
	Weeks           int  `json:"weeks"`
	Days            int  `json:"days"`
	Evaluated       int  `json:"evaluated"`
	Accepted        int  `json:"accepted"`
	Truncated       bool `json:"truncated"`
}

// ScheduleGeneratorService turns scores into a ranked, cap-respecting slot list.
type ScheduleGeneratorService struct {
	engine *ScoringEngine
	cfg    GeneratorConfig
	caches ScoreCacheFactory
	logger *zap.Logger
}

func NewScheduleGeneratorService(engine *ScoringEngine, cfg GeneratorConfig, caches ScoreCacheFactory, logger *zap.Logger) *ScheduleGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if caches == nil {
		caches = NewMemoCacheFactory(0, 0)
	}
	return &ScheduleGeneratorService{engine: engine, cfg: cfg.normalized(), caches: caches, logger: logger}
}

// GenerateSchedule returns at most MaxResults slots ordered by score. An empty
// result means nothing was feasible and is not an error.
func (s *ScheduleGeneratorService) GenerateSchedule(ctx context.Context, in GenerateInput) ([]models.ScheduleSlot, error) {
	slots, _, err := s.Generate(ctx, in)
	return slots, err
}

// Generate is GenerateSchedule plus run statistics.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, in GenerateInput) ([]models.ScheduleSlot, GenerationStats, error) {
	var stats GenerationStats
	duration, err := s.validate(&in)
	if err != nil {
		return nil, stats, err
	}

	therapists := make([]models.Therapist, len(in.Therapists))
	for i := range in.Therapists {
		therapists[i] = s.engine.NormalizeTherapist(in.Therapists[i])
	}
	pairs := s.compatiblePairs(therapists, in.Clients)
	stats.CompatiblePairs = len(pairs)

	weeks := s.horizonWeeks(in.StartDate, in.EndDate)
	stats.Weeks = len(weeks)
	for _, w := range weeks {
		stats.Days += len(w.days)
	}
	if len(pairs) == 0 {
		return []models.ScheduleSlot{}, stats, nil
	}

	base := NewSessionIndex(in.Sessions, in.Clients)
	results := make([]weekResult, len(weeks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range weeks {
		i := i
		g.Go(func() error {
			res, err := s.generateWeek(gctx, weeks[i], pairs, base, duration)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	slots := make([]models.ScheduleSlot, 0)
	for _, res := range results {
		slots = append(slots, res.slots...)
		stats.Evaluated += res.evaluated
	}
	stats.Accepted = len(slots)

	sortSlots(slots)
	if len(slots) > s.cfg.MaxResults {
		slots = slots[:s.cfg.MaxResults]
		stats.Truncated = true
	}

	s.logger.Debug("schedule generated",
		zap.Int("pairs", stats.CompatiblePairs),
		zap.Int("weeks", stats.Weeks),
		zap.Int("evaluated", stats.Evaluated),
		zap.Int("accepted", stats.Accepted),
		zap.Int("emitted", len(slots)),
	)
	return slots, stats, nil
}

func (s *ScheduleGeneratorService) validate(in *GenerateInput) (time.Duration, error) {
	minutes := in.DurationMinutes
	if minutes == 0 {
		minutes = s.cfg.DefaultDuration
	}
	if minutes < 0 || minutes > 24*60 {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "session duration must be between 1 and 1440 minutes")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "startDate and endDate are required")
	}
	loc := s.engine.Location()
	from, to := startOfDay(in.StartDate.In(loc)), startOfDay(in.EndDate.In(loc))
	if to.Before(from) {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "endDate must not be before startDate")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.cfg.MaxHorizonDays {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("horizon of %d days exceeds the %d day limit", days, s.cfg.MaxHorizonDays))
	}

	seen := make(map[string]bool)
	for i := range in.Therapists {
		if err := in.Therapists[i].Validate(); err != nil {
			return 0, invalidInput(err)
		}
		if seen["t:"+in.Therapists[i].ID] {
			return 0, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("duplicate therapist %s", in.Therapists[i].ID))
		}
		seen["t:"+in.Therapists[i].ID] = true
	}
	for i := range in.Clients {
		if err := in.Clients[i].Validate(); err != nil {
			return 0, invalidInput(err)
		}
		if seen["c:"+in.Clients[i].ID] {
			return 0, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("duplicate client %s", in.Clients[i].ID))
		}
		seen["c:"+in.Clients[i].ID] = true
	}
	for i := range in.Sessions {
		if err := in.Sessions[i].Validate(); err != nil {
			return 0, invalidInput(err)
		}
	}
	return time.Duration(minutes) * time.Minute, nil
}

type candidatePair struct {
	therapist     *models.Therapist
	client        *models.Client
	compatibility float64
}

func (s *ScheduleGeneratorService) compatiblePairs(therapists []models.Therapist, clients []models.Client) []candidatePair {
	engine := s.engine.WithCache(s.caches())
	pairs := make([]candidatePair, 0)
	for i := range therapists {
		for j := range clients {
			score := engine.Compatibility(&therapists[i], &clients[j])
			if score > 0 {
				pairs = append(pairs, candidatePair{therapist: &therapists[i], client: &clients[j], compatibility: score})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].compatibility != pairs[j].compatibility {
			return pairs[i].compatibility > pairs[j].compatibility
		}
		if pairs[i].therapist.ID != pairs[j].therapist.ID {
			return pairs[i].therapist.ID < pairs[j].therapist.ID
		}
		return pairs[i].client.ID < pairs[j].client.ID
	})
	return pairs
}

type horizonWeek struct {
	start time.Time
	days  []time.Time
}

// horizonWeeks splits the inclusive date range into ISO weeks, in order.
func (s *ScheduleGeneratorService) horizonWeeks(from, to time.Time) []horizonWeek {
	loc := s.engine.Location()
	day := startOfDay(from.In(loc))
	last := startOfDay(to.In(loc))
	var weeks []horizonWeek
	for !day.After(last) {
		weekStart := startOfISOWeek(day)
		if len(weeks) == 0 || !weeks[len(weeks)-1].start.Equal(weekStart) {
			weeks = append(weeks, horizonWeek{start: weekStart})
		}
		weeks[len(weeks)-1].days = append(weeks[len(weeks)-1].days, day)
		day = day.AddDate(0, 0, 1)
	}
	return weeks
}

type weekResult struct {
	slots     []models.ScheduleSlot
	evaluated int
}

// generateWeek walks one ISO week with its own counters, booking overlay and cache.
func (s *ScheduleGeneratorService) generateWeek(ctx context.Context, week horizonWeek, pairs []candidatePair, base *SessionIndex, duration time.Duration) (weekResult, error) {
	engine := s.engine.WithCache(s.caches())
	overlay := base.Clone()
	ledger := newWeekLedger(week.start, base)
	padding := time.Duration(s.cfg.BreakMinutes) * time.Minute
	hours := duration.Hours()
	loc := engine.Location()

	var res weekResult
	for _, day := range week.days {
		if err := ctx.Err(); err != nil {
			return weekResult{}, err
		}
		if s.cfg.excluded(day.Weekday()) {
			continue
		}
		y, m, d := day.Date()
		for minute := s.cfg.DayStartHour * 60; minute < s.cfg.DayEndHour*60; minute += s.cfg.StepMinutes {
			start := time.Date(y, m, d, 0, minute, 0, 0, loc)
			end := start.Add(duration)
			for _, p := range pairs {
				res.evaluated++
				if !ledger.canTake(p, day, hours) {
					continue
				}
				if padding > 0 && len(overlay.Overlapping(p.therapist.ID, "", start.Add(-padding), end.Add(padding), "")) > 0 {
					continue
				}
				if engine.Availability(start, end, p.therapist, p.client, overlay) == 0 {
					continue
				}
				score := engine.Score(p.therapist, p.client, start, end, overlay)
				if score.Total <= s.cfg.MinScore {
					continue
				}
				res.slots = append(res.slots, models.ScheduleSlot{
					TherapistID: p.therapist.ID,
					ClientID:    p.client.ID,
					StartTime:   start,
					EndTime:     end,
					Score:       score.Total,
					Location:    p.client.Location,
				})
				overlay.Add(models.Session{
					ID:          fmt.Sprintf("proposed:%s:%s:%d", p.therapist.ID, p.client.ID, start.Unix()),
					TherapistID: p.therapist.ID,
					ClientID:    p.client.ID,
					StartTime:   start,
					EndTime:     end,
					Status:      models.SessionStatusScheduled,
				})
				ledger.reserve(p, day, hours)
				break
			}
		}
	}
	return res, nil
}

// weekLedger tracks hours per entity for one ISO week, seeded from existing bookings.
type weekLedger struct {
	start         time.Time
	base          *SessionIndex
	therapistWeek map[string]float64
	clientWeek    map[string]float64
	therapistDay  map[string]float64
}

func newWeekLedger(start time.Time, base *SessionIndex) *weekLedger {
	return &weekLedger{
		start:         start,
		base:          base,
		therapistWeek: make(map[string]float64),
		clientWeek:    make(map[string]float64),
		therapistDay:  make(map[string]float64),
	}
}

func dayKey(id string, day time.Time) string {
	return id + "|" + day.Format("2006-01-02")
}

func (l *weekLedger) therapistHours(id string) float64 {
	if v, ok := l.therapistWeek[id]; ok {
		return v
	}
	v := l.base.TherapistHours(id, l.start, l.start.AddDate(0, 0, 7))
	l.therapistWeek[id] = v
	return v
}

func (l *weekLedger) clientHours(id string) float64 {
	if v, ok := l.clientWeek[id]; ok {
		return v
	}
	v := l.base.ClientHours(id, l.start, l.start.AddDate(0, 0, 7))
	l.clientWeek[id] = v
	return v
}

func (l *weekLedger) therapistDayHours(id string, day time.Time) float64 {
	key := dayKey(id, day)
	if v, ok := l.therapistDay[key]; ok {
		return v
	}
	v := l.base.TherapistHours(id, day, day.AddDate(0, 0, 1))
	l.therapistDay[key] = v
	return v
}

// canTake reports whether adding hours keeps both parties within their caps.
func (l *weekLedger) canTake(p candidatePair, day time.Time, hours float64) bool {
	if l.therapistHours(p.therapist.ID)+hours > float64(p.therapist.WeeklyHoursMax) {
		return false
	}
	if l.clientHours(p.client.ID)+hours > p.client.AuthorizedHours {
		return false
	}
	return l.therapistDayHours(p.therapist.ID, day)+hours <= float64(p.therapist.MaxDailyHours)
}

func (l *weekLedger) reserve(p candidatePair, day time.Time, hours float64) {
	l.therapistWeek[p.therapist.ID] = l.therapistHours(p.therapist.ID) + hours
	l.clientWeek[p.client.ID] = l.clientHours(p.client.ID) + hours
	l.therapistDay[dayKey(p.therapist.ID, day)] = l.therapistDayHours(p.therapist.ID, day) + hours
}

func sortSlots(slots []models.ScheduleSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if a.TherapistID != b.TherapistID {
			return a.TherapistID < b.TherapistID
		}
		return a.ClientID < b.ClientID
	})
}

// invalidInput marks a model validation failure as malformed input.
func invalidInput(err error) error {
	return appErrors.Clone(appErrors.ErrInvalidInput, err.Error())
}
