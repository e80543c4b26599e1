package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/dto"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/service"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
)

type schedulingServiceMock struct {
	generated   dto.GenerateScheduleRequest
	snapshot    dto.SnapshotGenerateRequest
	async       bool
	exportQuery dto.ProposalExportQuery
	proposal    *dto.ProposalResponse
	invalidated int
	err         error
}

func (m *schedulingServiceMock) result() (*dto.ProposalResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.proposal != nil {
		return m.proposal, nil
	}
	return &dto.ProposalResponse{ProposalID: "proposal-1", Status: string(service.ProposalReady), Slots: []models.ScheduleSlot{{TherapistID: "T", ClientID: "C"}}}, nil
}

func (m *schedulingServiceMock) Generate(ctx context.Context, req dto.GenerateScheduleRequest, async bool) (*dto.ProposalResponse, error) {
	m.generated, m.async = req, async
	if async {
		return &dto.ProposalResponse{ProposalID: "proposal-2", Status: string(service.ProposalPending)}, nil
	}
	return m.result()
}

func (m *schedulingServiceMock) GenerateFromSnapshot(ctx context.Context, req dto.SnapshotGenerateRequest, async bool) (*dto.ProposalResponse, error) {
	m.snapshot, m.async = req, async
	return m.result()
}

func (m *schedulingServiceMock) Proposal(id string) (*dto.ProposalResponse, error) {
	return m.result()
}

func (m *schedulingServiceMock) ExportProposal(id string, query dto.ProposalExportQuery) (*service.ExportFile, error) {
	m.exportQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportFile{Filename: "proposal_" + id + ".csv", ContentType: "text/csv", Body: []byte("Date\n")}, nil
}

func (m *schedulingServiceMock) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ConflictCheckResponse{
		HasConflicts: true,
		Conflicts:    []models.Conflict{{Type: models.ConflictTherapistUnavailable, Message: "therapist is not available on tuesday"}},
	}, nil
}

func (m *schedulingServiceMock) SuggestAlternatives(ctx context.Context, req dto.ConflictCheckRequest) (*dto.AlternativesResponse, error) {
	return &dto.AlternativesResponse{Conflicts: []models.Conflict{}, Alternatives: []models.AlternativeTime{}}, nil
}

func (m *schedulingServiceMock) InvalidateResults(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.invalidated++
	return nil
}

func newSchedulingRouter(mock *schedulingServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &SchedulingHandler{service: mock}
	router := gin.New()
	router.POST("/schedules/generate", h.Generate)
	router.POST("/schedules/generate/snapshot", h.GenerateSnapshot)
	router.GET("/schedules/proposals/:id", h.Proposal)
	router.GET("/schedules/proposals/:id/export", h.Export)
	router.DELETE("/schedules/cache", h.InvalidateCache)
	router.POST("/sessions/conflicts", h.Conflicts)
	router.POST("/sessions/alternatives", h.Alternatives)
	return router
}

func serveJSON(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSchedulingHandlerGenerate(t *testing.T) {
	mock := &schedulingServiceMock{}
	router := newSchedulingRouter(mock)

	w := serveJSON(router, http.MethodPost, "/schedules/generate", validGeneratePayload())

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mock.async)
	assert.Equal(t, "2024-01-01", mock.generated.StartDate)
	require.Len(t, mock.generated.Therapists, 1)
	assert.Equal(t, []string{"ABA"}, mock.generated.Therapists[0].ServiceTypes)

	env := decodeEnvelope(t, w)
	assert.Equal(t, float64(1), env.Meta["slots"])
	var proposal dto.ProposalResponse
	require.NoError(t, json.Unmarshal(env.Data, &proposal))
	assert.Equal(t, "proposal-1", proposal.ProposalID)
}

func TestSchedulingHandlerGenerateAsync(t *testing.T) {
	mock := &schedulingServiceMock{}
	router := newSchedulingRouter(mock)

	w := serveJSON(router, http.MethodPost, "/schedules/generate?async=true", validGeneratePayload())

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, mock.async)
	assert.Contains(t, w.Body.String(), "proposal-2")
}

func TestSchedulingHandlerGenerateRejectsBadInput(t *testing.T) {
	router := newSchedulingRouter(&schedulingServiceMock{})

	w := serveJSON(router, http.MethodPost, "/schedules/generate", []byte(`{"startDate":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serveJSON(router, http.MethodPost, "/schedules/generate?async=maybe", validGeneratePayload())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestSchedulingHandlerGenerateSnapshot(t *testing.T) {
	mock := &schedulingServiceMock{}
	router := newSchedulingRouter(mock)

	w := serveJSON(router, http.MethodPost, "/schedules/generate/snapshot",
		[]byte(`{"startDate":"2024-01-01","endDate":"2024-01-07","therapistIds":["T1"]}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"T1"}, mock.snapshot.TherapistIDs)

	mock.err = appErrors.Clone(appErrors.ErrUnavailable, "snapshot storage is not configured")
	w = serveJSON(router, http.MethodPost, "/schedules/generate/snapshot", []byte(`{"startDate":"2024-01-01","endDate":"2024-01-07"}`))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSchedulingHandlerProposal(t *testing.T) {
	mock := &schedulingServiceMock{proposal: &dto.ProposalResponse{ProposalID: "p", Status: string(service.ProposalPending)}}
	router := newSchedulingRouter(mock)

	w := serveJSON(router, http.MethodGet, "/schedules/proposals/p", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	mock.proposal = nil
	mock.err = appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	w = serveJSON(router, http.MethodGet, "/schedules/proposals/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchedulingHandlerExport(t *testing.T) {
	mock := &schedulingServiceMock{}
	router := newSchedulingRouter(mock)

	w := serveJSON(router, http.MethodGet, "/schedules/proposals/p1/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mock.exportQuery.Format)
	assert.Equal(t, `attachment; filename="proposal_p1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date\n", w.Body.String())

	mock.err = appErrors.Clone(appErrors.ErrConflict, "proposal p1 is pending")
	w = serveJSON(router, http.MethodGet, "/schedules/proposals/p1/export", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSchedulingHandlerConflictsAndAlternatives(t *testing.T) {
	mock := &schedulingServiceMock{}
	router := newSchedulingRouter(mock)

	w := serveJSON(router, http.MethodPost, "/sessions/conflicts", validConflictPayload())
	require.Equal(t, http.StatusOK, w.Code)
	var conflicts dto.ConflictCheckResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &conflicts))
	assert.True(t, conflicts.HasConflicts)
	require.Len(t, conflicts.Conflicts, 1)

	w = serveJSON(router, http.MethodPost, "/sessions/alternatives", validConflictPayload())
	assert.Equal(t, http.StatusOK, w.Code)

	w = serveJSON(router, http.MethodPost, "/sessions/conflicts", []byte(`[]`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mock.err = appErrors.Clone(appErrors.ErrInvalidInput, "end must be after start")
	w = serveJSON(router, http.MethodPost, "/sessions/conflicts", validConflictPayload())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrInvalidInput.Code, decodeEnvelope(t, w).Error.Code)
}

func validGeneratePayload() []byte {
	return []byte(`{
		"therapists":[{"id":"T1","serviceTypes":["ABA"],"yearsExperience":3,"availability":{"monday":{"start":"09:00","end":"17:00"}}}],
		"clients":[{"id":"C1","servicePreferences":["ABA"],"authorizedHours":10,"availability":{"monday":{"start":"09:00","end":"17:00"}}}],
		"sessions":[],
		"startDate":"2024-01-01","endDate":"2024-01-01"}`)
}

func validConflictPayload() []byte {
	return []byte(`{
		"session":{"therapistId":"T1","clientId":"C1","startTime":"2024-01-02T10:00:00Z","endTime":"2024-01-02T11:00:00Z"},
		"therapist":{"id":"T1","serviceTypes":["ABA"],"availability":{"monday":{"start":"09:00","end":"17:00"}}},
		"client":{"id":"C1","servicePreferences":["ABA"],"availability":{"monday":{"start":"09:00","end":"17:00"}}},
		"sessions":[]}`)
}

func TestSchedulingHandlerInvalidateCache(t *testing.T) {
	mock := &schedulingServiceMock{}
	router := newSchedulingRouter(mock)

	w := serveJSON(router, http.MethodDelete, "/schedules/cache", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mock.invalidated)
	assert.JSONEq(t, `{"invalidated":true}`, string(decodeEnvelope(t, w).Data))

	mock.err = appErrors.Clone(appErrors.ErrUnavailable, "result cache is not configured")
	w = serveJSON(router, http.MethodDelete, "/schedules/cache", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
