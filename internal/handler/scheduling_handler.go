package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/dto"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/service"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/response"
)

type schedulingService interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest, async bool) (*dto.ProposalResponse, error)
	GenerateFromSnapshot(ctx context.Context, req dto.SnapshotGenerateRequest, async bool) (*dto.ProposalResponse, error)
	Proposal(id string) (*dto.ProposalResponse, error)
	ExportProposal(id string, query dto.ProposalExportQuery) (*service.ExportFile, error)
	CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
	SuggestAlternatives(ctx context.Context, req dto.ConflictCheckRequest) (*dto.AlternativesResponse, error)
	InvalidateResults(ctx context.Context) error
}

// SchedulingHandler exposes schedule generation and conflict endpoints.
type SchedulingHandler struct {
	service schedulingService
}

// NewSchedulingHandler constructs the handler.
func NewSchedulingHandler(svc *service.SchedulingService) *SchedulingHandler {
	return &SchedulingHandler{service: svc}
}

// Generate godoc
// @Summary Generate a schedule proposal from inline entities
// @Description With async=true the proposal is queued and 202 is returned with its ID.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param async query bool false "Run in the background"
// @Param payload body dto.GenerateScheduleRequest true "Therapists, clients, existing sessions and horizon"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *SchedulingHandler) Generate(c *gin.Context) {
	async, err := asyncFlag(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req, async)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondProposal(c, result)
}

// GenerateSnapshot godoc
// @Summary Generate a schedule proposal from stored entities
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param async query bool false "Run in the background"
// @Param payload body dto.SnapshotGenerateRequest true "Horizon and optional entity filters"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedules/generate/snapshot [post]
func (h *SchedulingHandler) GenerateSnapshot(c *gin.Context) {
	async, err := asyncFlag(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SnapshotGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid snapshot payload"))
		return
	}
	result, err := h.service.GenerateFromSnapshot(c.Request.Context(), req, async)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondProposal(c, result)
}

// Proposal godoc
// @Summary Fetch a stored proposal
// @Description Returns 202 while an async generation is still pending.
// @Tags Scheduler
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/proposals/{id} [get]
func (h *SchedulingHandler) Proposal(c *gin.Context) {
	result, err := h.service.Proposal(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondProposal(c, result)
}

// Export godoc
// @Summary Download a proposal as CSV or PDF
// @Tags Scheduler
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Proposal ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Failure 409 {object} response.Envelope
// @Router /schedules/proposals/{id}/export [get]
func (h *SchedulingHandler) Export(c *gin.Context) {
	var query dto.ProposalExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid export query"))
		return
	}
	file, err := h.service.ExportProposal(c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

// InvalidateCache godoc
// @Summary Drop cached generation results
// @Description Use after bulk edits to therapists, clients or sessions so identical requests regenerate.
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedules/cache [delete]
func (h *SchedulingHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateResults(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"invalidated": true})
}

// Conflicts godoc
// @Summary Check a proposed or edited session for conflicts
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Proposed session with its therapist, client and bookings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/conflicts [post]
func (h *SchedulingHandler) Conflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid conflict payload"))
		return
	}
	result, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Alternatives godoc
// @Summary Suggest conflict-free times near a proposed session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Proposed session with its therapist, client and bookings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/alternatives [post]
func (h *SchedulingHandler) Alternatives(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid alternatives payload"))
		return
	}
	result, err := h.service.SuggestAlternatives(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func asyncFlag(c *gin.Context) (bool, error) {
	raw := c.Query("async")
	if raw == "" {
		return false, nil
	}
	async, err := strconv.ParseBool(raw)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, "async must be a boolean")
	}
	return async, nil
}

func respondProposal(c *gin.Context, result *dto.ProposalResponse) {
	if result.Status == string(service.ProposalPending) {
		response.Accepted(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"slots": len(result.Slots), "cached": result.Cached})
}
