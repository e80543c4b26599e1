package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/dto"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/service"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/response"
)

type routePlanner interface {
	OptimizeRoute(ctx context.Context, req dto.RouteOptimizeRequest) (*models.RoutePlan, error)
	TherapistDayRoute(ctx context.Context, therapistID string, query dto.TherapistRouteQuery) (*models.RoutePlan, error)
}

// RouteHandler exposes travel route optimisation.
type RouteHandler struct {
	service routePlanner
}

// NewRouteHandler constructs the handler.
func NewRouteHandler(svc *service.SchedulingService) *RouteHandler {
	return &RouteHandler{service: svc}
}

// Optimize godoc
// @Summary Order stops into a short closed tour
// @Tags Routes
// @Accept json
// @Produce json
// @Param payload body dto.RouteOptimizeRequest true "Start location, stops and optional seed"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /routes/optimize [post]
func (h *RouteHandler) Optimize(c *gin.Context) {
	var req dto.RouteOptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid route payload"))
		return
	}
	plan, err := h.service.OptimizeRoute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan)
}

// TherapistDay godoc
// @Summary Optimize a therapist's stored sessions for one day
// @Tags Routes
// @Produce json
// @Param id path string true "Therapist ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param seed query int false "Random seed"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /routes/therapists/{id} [get]
func (h *RouteHandler) TherapistDay(c *gin.Context) {
	var query dto.TherapistRouteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid route query"))
		return
	}
	plan, err := h.service.TherapistDayRoute(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan)
}
