package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
)

const sessionColumns = "id, therapist_id, client_id, start_time, end_time, status, notes"

// SessionRepository reads existing bookings. The scheduler never writes them.
type SessionRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB, observer QueryObserver) *SessionRepository {
	return &SessionRepository{db: db, observer: observerOrNop(observer)}
}

// ListBetween returns non-cancelled sessions starting within [from, to).
func (r *SessionRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE start_time >= $1 AND start_time < $2 AND status <> $3 ORDER BY start_time, id", sessionColumns)
	return r.list(ctx, "sessions.list_between", query, from, to, models.SessionStatusCancelled)
}

// ListForTherapist returns a therapist's sessions starting within [from, to), cancelled included.
func (r *SessionRepository) ListForTherapist(ctx context.Context, therapistID string, from, to time.Time) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE therapist_id = $1 AND start_time >= $2 AND start_time < $3 ORDER BY start_time, id", sessionColumns)
	return r.list(ctx, "sessions.list_for_therapist", query, therapistID, from, to)
}

func (r *SessionRepository) list(ctx context.Context, label, query string, args ...interface{}) ([]models.Session, error) {
	start := time.Now()
	var sessions []models.Session
	err := r.db.SelectContext(ctx, &sessions, query, args...)
	r.observer.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, nil
}
