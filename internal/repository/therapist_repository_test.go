package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
)

var therapistRowColumns = []string{"id", "full_name", "service_types", "specialties", "languages", "years_experience", "availability",
	"weekly_hours_min", "weekly_hours_max", "max_daily_hours", "latitude", "longitude", "address", "service_radius_km"}

func TestTherapistRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	observer := &recordingObserver{}
	repo := NewTherapistRepository(db, observer)
	rows := sqlmock.NewRows(therapistRowColumns).
		AddRow("T1", "Dana Reyes", "{ABA,OT}", "{autism}", "{English,Spanish}", 6, `{"monday":{"start":"09:00","end":"17:00"}}`,
			20, 30, 6, 40.7128, -74.006, "1 Main St", 15.0).
		AddRow("T2", "Lee Park", "{speech}", "{}", "{}", 1, `{}`, 0, 40, nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM therapists WHERE active = TRUE ORDER BY id")).
		WillReturnRows(rows)

	therapists, err := repo.ListActive(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, therapists, 2)

	first := therapists[0]
	assert.Equal(t, "Dana Reyes", first.Name)
	assert.Equal(t, []string{"ABA", "OT"}, first.ServiceTypes)
	assert.Equal(t, []string{"English", "Spanish"}, first.Languages)
	assert.Equal(t, 6, first.MaxDailyHours)
	window, ok := first.Availability.Window(time.Monday)
	require.True(t, ok)
	assert.Equal(t, models.ClockTime(9*60), window.Start)
	require.NotNil(t, first.Location)
	assert.InDelta(t, 40.7128, first.Location.Latitude, 1e-9)
	require.NotNil(t, first.Location.Address)
	require.NotNil(t, first.ServiceRadiusKm)

	second := therapists[1]
	assert.Nil(t, second.Location)
	assert.Nil(t, second.ServiceRadiusKm)
	assert.Zero(t, second.MaxDailyHours)
	assert.Empty(t, second.Availability)

	assert.Equal(t, []string{"therapists.list_active"}, observer.labels)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTherapistRepositoryListActiveFiltersByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTherapistRepository(db, nil)
	mock.ExpectQuery(regexp.QuoteMeta("AND id = ANY($1) ORDER BY id")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(therapistRowColumns))

	therapists, err := repo.ListActive(context.Background(), []string{"T1", "T2"})
	require.NoError(t, err)
	assert.Empty(t, therapists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTherapistRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTherapistRepository(db, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM therapists WHERE id = $1")).
		WithArgs("T1").
		WillReturnRows(sqlmock.NewRows(therapistRowColumns).
			AddRow("T1", "Dana Reyes", "{ABA}", "{}", "{}", 3, `{}`, 20, 40, nil, 40.0, -74.0, nil, nil))

	therapist, err := repo.FindByID(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "T1", therapist.ID)
	require.NotNil(t, therapist.Location)
	assert.Nil(t, therapist.Location.Address)

	mock.ExpectQuery(regexp.QuoteMeta("FROM therapists WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
