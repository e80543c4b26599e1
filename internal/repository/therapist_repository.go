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

const therapistColumns = `id, full_name, service_types, specialties, languages, years_experience, availability,
	weekly_hours_min, weekly_hours_max, max_daily_hours, latitude, longitude, address, service_radius_km`

type therapistRow struct {
	ID              string                    `db:"id"`
	FullName        string                    `db:"full_name"`
	ServiceTypes    pq.StringArray            `db:"service_types"`
	Specialties     pq.StringArray            `db:"specialties"`
	Languages       pq.StringArray            `db:"languages"`
	YearsExperience int                       `db:"years_experience"`
	Availability    models.WeeklyAvailability `db:"availability"`
	WeeklyHoursMin  int                       `db:"weekly_hours_min"`
	WeeklyHoursMax  int                       `db:"weekly_hours_max"`
	MaxDailyHours   sql.NullInt64             `db:"max_daily_hours"`
	Latitude        sql.NullFloat64           `db:"latitude"`
	Longitude       sql.NullFloat64           `db:"longitude"`
	Address         sql.NullString            `db:"address"`
	ServiceRadiusKm sql.NullFloat64           `db:"service_radius_km"`
}

func (r therapistRow) toModel() models.Therapist {
	t := models.Therapist{
		ID:              r.ID,
		Name:            r.FullName,
		ServiceTypes:    []string(r.ServiceTypes),
		Specialties:     []string(r.Specialties),
		Languages:       []string(r.Languages),
		YearsExperience: r.YearsExperience,
		Availability:    r.Availability,
		WeeklyHoursMin:  r.WeeklyHoursMin,
		WeeklyHoursMax:  r.WeeklyHoursMax,
		Location:        coordinateFrom(r.Latitude, r.Longitude, r.Address),
	}
	if r.MaxDailyHours.Valid {
		t.MaxDailyHours = int(r.MaxDailyHours.Int64)
	}
	if r.ServiceRadiusKm.Valid {
		radius := r.ServiceRadiusKm.Float64
		t.ServiceRadiusKm = &radius
	}
	return t
}

// TherapistRepository reads therapist records for snapshot generation.
type TherapistRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewTherapistRepository constructs a TherapistRepository.
func NewTherapistRepository(db *sqlx.DB, observer QueryObserver) *TherapistRepository {
	return &TherapistRepository{db: db, observer: observerOrNop(observer)}
}

// ListActive returns active therapists ordered by ID, limited to ids when given.
func (r *TherapistRepository) ListActive(ctx context.Context, ids []string) ([]models.Therapist, error) {
	query := fmt.Sprintf("SELECT %s FROM therapists WHERE active = TRUE", therapistColumns)
	var args []interface{}
	if len(ids) > 0 {
		query += " AND id = ANY($1)"
		args = append(args, pq.Array(ids))
	}
	query += " ORDER BY id"

	start := time.Now()
	var rows []therapistRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	r.observer.ObserveDBQuery("therapists.list_active", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("list therapists: %w", err)
	}
	out := make([]models.Therapist, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// FindByID fetches a therapist regardless of status. Missing rows yield sql.ErrNoRows.
func (r *TherapistRepository) FindByID(ctx context.Context, id string) (*models.Therapist, error) {
	query := fmt.Sprintf("SELECT %s FROM therapists WHERE id = $1", therapistColumns)
	start := time.Now()
	var row therapistRow
	err := r.db.GetContext(ctx, &row, query, id)
	r.observer.ObserveDBQuery("therapists.find_by_id", time.Since(start))
	if err != nil {
		return nil, err
	}
	t := row.toModel()
	return &t, nil
}

func coordinateFrom(lat, lng sql.NullFloat64, address sql.NullString) *models.Coordinate {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	c := &models.Coordinate{Latitude: lat.Float64, Longitude: lng.Float64}
	if address.Valid && address.String != "" {
		addr := address.String
		c.Address = &addr
	}
	return c
}
