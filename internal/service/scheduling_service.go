package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/dto"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/jobs"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/logger"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/middleware/requestid"
)

// JobGenerateSchedule is the queue job type for asynchronous generation.
const JobGenerateSchedule = "schedule.generate"

const dateLayout = "2006-01-02"

type therapistStore interface {
	ListActive(ctx context.Context, ids []string) ([]models.Therapist, error)
	FindByID(ctx context.Context, id string) (*models.Therapist, error)
}

type clientStore interface {
	ListActive(ctx context.Context, ids []string) ([]models.Client, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Client, error)
}

type sessionStore interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Session, error)
	ListForTherapist(ctx context.Context, therapistID string, from, to time.Time) ([]models.Session, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type jobQueue interface {
	Handle(jobType string, handler jobs.Handler)
	Enqueue(job jobs.Job) error
}

// SchedulingConfig tunes proposal retention and result caching.
type SchedulingConfig struct {
	ProposalTTL    time.Duration
	ResultCacheTTL time.Duration
}

// SchedulingDeps wires the scheduling service. Repositories, cache, queue and
// metrics are optional; snapshot and route-by-therapist calls need repositories.
type SchedulingDeps struct {
	Generator  *ScheduleGeneratorService
	Detector   *ConflictDetector
	Suggester  *AlternativeSuggester
	Router     *RouteOptimizer
	Exporter   *ExportService
	Therapists therapistStore
	Clients    clientStore
	Sessions   sessionStore
	Cache      resultCache
	Queue      jobQueue
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Location   *time.Location
}

// SchedulingService is the application layer behind the HTTP handlers.
type SchedulingService struct {
	generator  *ScheduleGeneratorService
	detector   *ConflictDetector
	suggester  *AlternativeSuggester
	router     *RouteOptimizer
	exporter   *ExportService
	therapists therapistStore
	clients    clientStore
	sessions   sessionStore
	cache      resultCache
	queue      jobQueue
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	loc        *time.Location
	store      *proposalStore
	cfg        SchedulingConfig
	now        func() time.Time
}

// NewSchedulingService wires the service and registers its queue handler.
func NewSchedulingService(deps SchedulingDeps, cfg SchedulingConfig) *SchedulingService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Exporter == nil {
		deps.Exporter = NewExportService(deps.Location, deps.Logger, nil, nil)
	}
	if cfg.ResultCacheTTL <= 0 {
		cfg.ResultCacheTTL = 10 * time.Minute
	}
	s := &SchedulingService{
		generator:  deps.Generator,
		detector:   deps.Detector,
		suggester:  deps.Suggester,
		router:     deps.Router,
		exporter:   deps.Exporter,
		therapists: deps.Therapists,
		clients:    deps.Clients,
		sessions:   deps.Sessions,
		cache:      deps.Cache,
		queue:      deps.Queue,
		metrics:    deps.Metrics,
		validator:  deps.Validator,
		logger:     deps.Logger,
		loc:        deps.Location,
		store:      newProposalStore(cfg.ProposalTTL),
		cfg:        cfg,
		now:        time.Now,
	}
	if s.queue != nil {
		s.queue.Handle(JobGenerateSchedule, s.runGenerationJob)
	}
	return s
}

type generationJob struct {
	ProposalID string
	RequestID  string
	CacheKey   string
	Source     string
	Input      GenerateInput
}

type cachedGeneration struct {
	Slots []models.ScheduleSlot `json:"slots"`
	Stats GenerationStats       `json:"stats"`
}

// Generate runs the generator over an inline snapshot. With async set and a
// queue configured, it returns a pending proposal immediately.
func (s *SchedulingService) Generate(ctx context.Context, req dto.GenerateScheduleRequest, async bool) (*dto.ProposalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid schedule generation payload")
	}
	from, to, err := s.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	input := GenerateInput{
		Therapists:      req.Therapists,
		Clients:         req.Clients,
		Sessions:        req.Sessions,
		StartDate:       from,
		EndDate:         to,
		DurationMinutes: req.DurationMinutes,
	}
	return s.submit(ctx, SourceInline, input, async)
}

// GenerateFromSnapshot loads entities and sessions from storage, then generates.
func (s *SchedulingService) GenerateFromSnapshot(ctx context.Context, req dto.SnapshotGenerateRequest, async bool) (*dto.ProposalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid snapshot generation payload")
	}
	if s.therapists == nil || s.clients == nil || s.sessions == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "snapshot storage is not configured")
	}
	from, to, err := s.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	therapists, err := s.therapists.ListActive(ctx, req.TherapistIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load therapists")
	}
	clients, err := s.clients.ListActive(ctx, req.ClientIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clients")
	}
	// Whole ISO weeks so weekly caps see every booking in the horizon's weeks.
	sessions, err := s.sessions.ListBetween(ctx, startOfISOWeek(from), startOfISOWeek(to).AddDate(0, 0, 7))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	input := GenerateInput{
		Therapists:      therapists,
		Clients:         clients,
		Sessions:        sessions,
		StartDate:       from,
		EndDate:         to,
		DurationMinutes: req.DurationMinutes,
	}
	return s.submit(ctx, SourceSnapshot, input, async)
}

func (s *SchedulingService) submit(ctx context.Context, source string, input GenerateInput, async bool) (*dto.ProposalResponse, error) {
	proposal := Proposal{
		ID:          uuid.NewString(),
		Status:      ProposalPending,
		Source:      source,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		RequestedAt: s.now().UTC(),
	}
	key := generationCacheKey(input)

	if async && s.queue != nil {
		s.store.Save(proposal)
		job := jobs.Job{
			ID:      proposal.ID,
			Type:    JobGenerateSchedule,
			Payload: generationJob{
				ProposalID: proposal.ID,
				RequestID:  requestid.FromContext(ctx),
				CacheKey:   key,
				Source:     source,
				Input:      input,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.store.Delete(proposal.ID)
			msg := "failed to enqueue schedule generation"
			if errors.Is(err, jobs.ErrQueueFull) {
				msg = "generation queue is full, retry later"
			}
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, msg)
		}
		logger.WithContext(ctx, s.logger).Info("schedule generation queued",
			zap.String("proposal_id", proposal.ID), zap.String("source", source))
		resp := s.toResponse(proposal)
		return &resp, nil
	}

	slots, stats, cached, err := s.generate(ctx, source, key, input)
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx, s.logger).Info("schedule generated",
		zap.String("proposal_id", proposal.ID),
		zap.String("source", source),
		zap.Int("slots", len(slots)),
		zap.Bool("cached", cached))
	proposal.Status = ProposalReady
	proposal.Slots = slots
	proposal.Stats = stats
	proposal.Cached = cached
	completed := s.now().UTC()
	proposal.CompletedAt = &completed
	s.store.Save(proposal)

	resp := s.toResponse(proposal)
	return &resp, nil
}

// generate consults the result cache before running the generator. Output is
// deterministic for an input, so a hit is interchangeable with a fresh run.
func (s *SchedulingService) generate(ctx context.Context, source, key string, input GenerateInput) ([]models.ScheduleSlot, GenerationStats, bool, error) {
	if s.cache != nil {
		var hit cachedGeneration
		if ok, err := s.cache.Get(ctx, key, &hit); err == nil && ok {
			if hit.Slots == nil {
				hit.Slots = []models.ScheduleSlot{}
			}
			return hit.Slots, hit.Stats, true, nil
		}
	}

	start := time.Now()
	slots, stats, err := s.generator.Generate(ctx, input)
	if err != nil {
		return nil, GenerationStats{}, false, err
	}
	s.metrics.ObserveGeneration(source, len(slots), time.Since(start))

	if s.cache != nil {
		// Best effort; CacheService already logs failures.
		_ = s.cache.Set(ctx, key, cachedGeneration{Slots: slots, Stats: stats}, s.cfg.ResultCacheTTL)
	}
	return slots, stats, false, nil
}

func (s *SchedulingService) runGenerationJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generationJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	ctx = requestid.WithValue(ctx, payload.RequestID)
	log := logger.WithContext(ctx, s.logger).With(zap.String("proposal_id", payload.ProposalID))

	slots, stats, cached, err := s.generate(ctx, payload.Source, payload.CacheKey, payload.Input)
	if err != nil {
		log.Warn("schedule generation failed", zap.Error(err))
		s.store.Fail(payload.ProposalID, err)
		if appErrors.IsInvalidInput(err) {
			return nil
		}
		return err
	}
	if !s.store.Complete(payload.ProposalID, slots, stats, cached) {
		log.Warn("proposal expired before generation finished")
		return nil
	}
	log.Info("schedule generated", zap.String("source", payload.Source), zap.Int("slots", len(slots)), zap.Bool("cached", cached))
	return nil
}

// InvalidateResults drops cached generation results so the next identical
// request runs the generator again.
func (s *SchedulingService) InvalidateResults(ctx context.Context) error {
	if s.cache == nil {
		return appErrors.Clone(appErrors.ErrUnavailable, "result cache is not configured")
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to invalidate result cache")
	}
	return nil
}

// Proposal returns a stored proposal; pending proposals are returned as-is.
func (s *SchedulingService) Proposal(id string) (*dto.ProposalResponse, error) {
	proposal, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	resp := s.toResponse(proposal)
	return &resp, nil
}

// ExportProposal renders a ready proposal as CSV or PDF.
func (s *SchedulingService) ExportProposal(id string, query dto.ProposalExportQuery) (*ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Invalid(err, "invalid export format")
	}
	proposal, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return s.exporter.Render(proposal, query.Format)
}

// CheckConflicts reports every reason the proposed session cannot be booked.
func (s *SchedulingService) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid conflict check payload")
	}
	conflicts, err := s.detector.DetectConflicts(req.Session.ToModel(), &req.Therapist, &req.Client, req.Sessions, req.ExcludeSessionID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveConflicts(conflicts)
	return &dto.ConflictCheckResponse{HasConflicts: len(conflicts) > 0, Conflicts: conflicts}, nil
}

// SuggestAlternatives detects conflicts and, when there are any, proposes nearby times.
func (s *SchedulingService) SuggestAlternatives(ctx context.Context, req dto.ConflictCheckRequest) (*dto.AlternativesResponse, error) {
	checked, err := s.CheckConflicts(ctx, req)
	if err != nil {
		return nil, err
	}
	alternatives, err := s.suggester.SuggestAlternatives(req.Session.ToModel(), checked.Conflicts, &req.Therapist, &req.Client, req.Sessions, req.ExcludeSessionID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveAlternatives(len(alternatives))
	return &dto.AlternativesResponse{Conflicts: checked.Conflicts, Alternatives: alternatives}, nil
}

// OptimizeRoute orders the supplied stops.
func (s *SchedulingService) OptimizeRoute(ctx context.Context, req dto.RouteOptimizeRequest) (*models.RoutePlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid route payload")
	}
	plan, err := s.router.OptimizeRoute(req.Stops, req.Start, s.rngFor(req.Seed))
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRoute(plan)
	return plan, nil
}

// TherapistDayRoute optimizes the visiting order of a therapist's stored sessions
// on one day, starting and ending at the therapist's location.
func (s *SchedulingService) TherapistDayRoute(ctx context.Context, therapistID string, query dto.TherapistRouteQuery) (*models.RoutePlan, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Invalid(err, "invalid route query")
	}
	if s.therapists == nil || s.clients == nil || s.sessions == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "snapshot storage is not configured")
	}
	day, err := time.ParseInLocation(dateLayout, query.Date, s.loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}

	therapist, err := s.therapists.FindByID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "therapist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load therapist")
	}
	if therapist.Location == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("therapist %s has no location", therapistID))
	}

	sessions, err := s.sessions.ListForTherapist(ctx, therapistID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		if session.Occupies() {
			ids = append(ids, session.ClientID)
		}
	}
	clients, err := s.clients.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clients")
	}
	byID := make(map[string]models.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}

	stops := make([]models.Location, 0, len(sessions))
	for _, session := range sessions {
		if !session.Occupies() {
			continue
		}
		client, ok := byID[session.ClientID]
		if !ok || client.Location == nil {
			s.logger.Debug("skipping session without client location",
				zap.String("session_id", session.ID),
				zap.String("client_id", session.ClientID),
			)
			continue
		}
		label := client.Name
		if label == "" {
			label = client.ID
		}
		stops = append(stops, models.Location{ID: session.ID, Label: label, Coordinate: *client.Location})
	}

	start := models.Location{ID: therapist.ID, Label: therapist.Name, Coordinate: *therapist.Location}
	plan, err := s.router.OptimizeRoute(stops, start, s.rngFor(query.Seed))
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRoute(plan)
	return plan, nil
}

// SweepProposals drops expired proposals.
func (s *SchedulingService) SweepProposals() int {
	return s.store.Sweep()
}

func (s *SchedulingService) rngFor(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return s.router.NewRNG()
}

func (s *SchedulingService) parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(dateLayout, startDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "startDate must use YYYY-MM-DD")
	}
	to, err := time.ParseInLocation(dateLayout, endDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "endDate must use YYYY-MM-DD")
	}
	return from, to, nil
}

func (s *SchedulingService) toResponse(p Proposal) dto.ProposalResponse {
	slots := p.Slots
	if slots == nil {
		slots = []models.ScheduleSlot{}
	}
	return dto.ProposalResponse{
		ProposalID:  p.ID,
		Status:      string(p.Status),
		Source:      p.Source,
		StartDate:   p.StartDate.In(s.loc).Format(dateLayout),
		EndDate:     p.EndDate.In(s.loc).Format(dateLayout),
		Slots:       slots,
		Stats:       dto.GenerationStats(p.Stats),
		Cached:      p.Cached,
		Error:       p.Error,
		RequestedAt: p.RequestedAt,
		CompletedAt: p.CompletedAt,
	}
}

// generationCacheKey hashes the normalized input; identical requests share a key.
func generationCacheKey(input GenerateInput) string {
	payload, err := json.Marshal(input)
	if err != nil {
		return "generate:" + uuid.NewString()
	}
	sum := sha256.Sum256(payload)
	return "generate:" + hex.EncodeToString(sum[:])
}
