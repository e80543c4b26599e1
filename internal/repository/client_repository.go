package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
)

const clientColumns = `id, full_name, service_preferences, diagnoses, preferred_language, availability,
	authorized_hours, address, latitude, longitude, preferred_radius_km`

type clientRow struct {
	ID                 string                    `db:"id"`
	FullName           string                    `db:"full_name"`
	ServicePreferences pq.StringArray            `db:"service_preferences"`
	Diagnoses          pq.StringArray            `db:"diagnoses"`
	PreferredLanguage  sql.NullString            `db:"preferred_language"`
	Availability       models.WeeklyAvailability `db:"availability"`
	AuthorizedHours    float64                   `db:"authorized_hours"`
	Address            sql.NullString            `db:"address"`
	Latitude           sql.NullFloat64           `db:"latitude"`
	Longitude          sql.NullFloat64           `db:"longitude"`
	PreferredRadiusKm  sql.NullFloat64           `db:"preferred_radius_km"`
}

func (r clientRow) toModel() models.Client {
	c := models.Client{
		ID:                 r.ID,
		Name:               r.FullName,
		ServicePreferences: []string(r.ServicePreferences),
		Diagnoses:          []string(r.Diagnoses),
		PreferredLanguage:  r.PreferredLanguage.String,
		Availability:       r.Availability,
		AuthorizedHours:    r.AuthorizedHours,
		Location:           coordinateFrom(r.Latitude, r.Longitude, r.Address),
	}
	if r.Address.Valid && r.Address.String != "" {
		addr := r.Address.String
		c.Address = &addr
	}
	if r.PreferredRadiusKm.Valid {
		radius := r.PreferredRadiusKm.Float64
		c.PreferredRadiusKm = &radius
	}
	return c
}

// ClientRepository reads client records.
type ClientRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewClientRepository constructs a ClientRepository.
func NewClientRepository(db *sqlx.DB, observer QueryObserver) *ClientRepository {
	return &ClientRepository{db: db, observer: observerOrNop(observer)}
}

// ListActive returns active clients ordered by ID, limited to ids when given.
func (r *ClientRepository) ListActive(ctx context.Context, ids []string) ([]models.Client, error) {
	query := fmt.Sprintf("SELECT %s FROM clients WHERE active = TRUE", clientColumns)
	var args []interface{}
	if len(ids) > 0 {
		query += " AND id = ANY($1)"
		args = append(args, pq.Array(ids))
	}
	query += " ORDER BY id"
	return r.list(ctx, "clients.list_active", query, args...)
}

// ListByIDs returns the named clients regardless of status.
func (r *ClientRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Client, error) {
	if len(ids) == 0 {
		return []models.Client{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM clients WHERE id = ANY($1) ORDER BY id", clientColumns)
	return r.list(ctx, "clients.list_by_ids", query, pq.Array(ids))
}

func (r *ClientRepository) list(ctx context.Context, label, query string, args ...interface{}) ([]models.Client, error) {
	start := time.Now()
	var rows []clientRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	r.observer.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]models.Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
