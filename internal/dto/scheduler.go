package dto

import (
	"time"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
)

// GenerateScheduleRequest carries an inline snapshot for the candidate generator.
type GenerateScheduleRequest struct {
	Therapists      []models.Therapist `json:"therapists"`
	Clients         []models.Client    `json:"clients"`
	Sessions        []models.Session   `json:"sessions"`
	StartDate       string             `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate         string             `json:"endDate" validate:"required,datetime=2006-01-02"`
	DurationMinutes int                `json:"durationMinutes" validate:"omitempty,min=1,max=1440"`
}

// SnapshotGenerateRequest generates against entities stored in Postgres. Empty ID
// lists mean every active therapist or client.
type SnapshotGenerateRequest struct {
	StartDate       string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate         string   `json:"endDate" validate:"required,datetime=2006-01-02"`
	DurationMinutes int      `json:"durationMinutes" validate:"omitempty,min=1,max=1440"`
	TherapistIDs    []string `json:"therapistIds" validate:"omitempty,dive,required"`
	ClientIDs       []string `json:"clientIds" validate:"omitempty,dive,required"`
}

// GenerationStats mirrors the generator's run summary.
type GenerationStats struct {
	CompatiblePairs int  `json:"compatiblePairs"`
	Weeks           int  `json:"weeks"`
	Days            int  `json:"days"`
	Evaluated       int  `json:"evaluated"`
	Accepted        int  `json:"accepted"`
	Truncated       bool `json:"truncated"`
}

// ProposalResponse is a stored generation result.
type ProposalResponse struct {
	ProposalID  string                `json:"proposalId"`
	Status      string                `json:"status"`
	Source      string                `json:"source"`
	StartDate   string                `json:"startDate"`
	EndDate     string                `json:"endDate"`
	Slots       []models.ScheduleSlot `json:"slots"`
	Stats       GenerationStats       `json:"stats"`
	Cached      bool                  `json:"cached"`
	Error       string                `json:"error,omitempty"`
	RequestedAt time.Time             `json:"requestedAt"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
}

// ProposalExportQuery selects the export format.
type ProposalExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// ProposedSessionRequest is a booking under consideration.
type ProposedSessionRequest struct {
	TherapistID string    `json:"therapistId" validate:"required"`
	ClientID    string    `json:"clientId" validate:"required"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
}

// ToModel converts the request into the domain proposal.
func (r ProposedSessionRequest) ToModel() models.ProposedSession {
	return models.ProposedSession{
		TherapistID: r.TherapistID,
		ClientID:    r.ClientID,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
	}
}

// ConflictCheckRequest asks whether a proposal can be booked. ExcludeSessionID
// names the session being edited.
type ConflictCheckRequest struct {
	Session          ProposedSessionRequest `json:"session"`
	Therapist        models.Therapist       `json:"therapist"`
	Client           models.Client          `json:"client"`
	Sessions         []models.Session       `json:"sessions"`
	ExcludeSessionID string                 `json:"excludeSessionId"`
}

// ConflictCheckResponse lists every blocking reason.
type ConflictCheckResponse struct {
	HasConflicts bool              `json:"hasConflicts"`
	Conflicts    []models.Conflict `json:"conflicts"`
}

// AlternativesResponse pairs conflicts with nearby conflict-free times.
type AlternativesResponse struct {
	Conflicts    []models.Conflict        `json:"conflicts"`
	Alternatives []models.AlternativeTime `json:"alternatives"`
}

// RouteOptimizeRequest orders stops for a closed tour from Start. Seed makes the
// run reproducible.
type RouteOptimizeRequest struct {
	Start models.Location   `json:"start"`
	Stops []models.Location `json:"stops" validate:"max=200"`
	Seed  *int64            `json:"seed"`
}

// TherapistRouteQuery selects the day to optimize.
type TherapistRouteQuery struct {
	Date string `form:"date" validate:"required,datetime=2006-01-02"`
	Seed *int64 `form:"seed"`
}
