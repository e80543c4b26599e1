package service

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/config"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/geo"
)

func stop(id string, lat, lng float64) models.Location {
	return models.Location{ID: id, Coordinate: models.Coordinate{Latitude: lat, Longitude: lng}}
}

func stopIDs(plan *models.RoutePlan) []string {
	ids := make([]string, 0, len(plan.Stops))
	for _, s := range plan.Stops {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestOptimizeRouteEmpty(t *testing.T) {
	optimizer := NewRouteOptimizer(DefaultAnnealingConfig(), nil)
	plan, err := optimizer.OptimizeRoute(nil, stop("home", 0, 0), nil)
	require.NoError(t, err)
	assert.NotNil(t, plan.Stops)
	assert.Empty(t, plan.Stops)
	assert.Zero(t, plan.DistanceKm)
}

func TestOptimizeRouteSingleStop(t *testing.T) {
	optimizer := NewRouteOptimizer(DefaultAnnealingConfig(), nil)
	home := stop("home", 0, 0)
	plan, err := optimizer.OptimizeRoute([]models.Location{stop("a", 0, 1)}, home, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stopIDs(plan))
	assert.InDelta(t, 2*geo.DistanceKm(geo.Point{}, geo.Point{Lng: 1}), plan.DistanceKm, 1e-9)
	assert.Zero(t, plan.Iterations)
}

func TestOptimizeRouteUnitSquare(t *testing.T) {
	optimizer := NewRouteOptimizer(DefaultAnnealingConfig(), nil)
	home := stop("home", 0, 0)
	// Listed in a crossing order; the perimeter is the best closed tour.
	locations := []models.Location{stop("b", 1, 1), stop("a", 0, 1), stop("c", 1, 0)}

	plan, err := optimizer.OptimizeRoute(locations, home, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	require.Len(t, plan.Stops, 3)
	assert.Equal(t, "b", plan.Stops[1].ID, "the diagonal corner sits in the middle of the tour")

	perimeter := geo.PathDistanceKm([]geo.Point{{}, {Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1}}, true)
	assert.InDelta(t, perimeter, plan.DistanceKm, 1e-6)
	assert.InDelta(t, 444.76, plan.DistanceKm, 0.5)
	assert.LessOrEqual(t, plan.DistanceKm, plan.SeedDistanceKm)
	assert.Equal(t, DefaultAnnealingConfig().Iterations(), plan.Iterations)
}

func TestOptimizeRouteQuadrilateralFromCorner(t *testing.T) {
	optimizer := NewRouteOptimizer(DefaultAnnealingConfig(), nil)
	home := stop("home", 0, 0)
	locations := []models.Location{stop("a", 0, 0), stop("b", 0, 1), stop("c", 1, 1), stop("d", 1, 0)}

	plan, err := optimizer.OptimizeRoute(locations, home, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	ids := stopIDs(plan)
	sort.Strings(ids)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)

	crossing := []geo.Point{{}, {}, {Lat: 1, Lng: 1}, {Lng: 1}, {Lat: 1}}
	assert.LessOrEqual(t, plan.DistanceKm, geo.PathDistanceKm(crossing, true)+1e-9)
}

func TestOptimizeRouteNeverWorseThanSeed(t *testing.T) {
	optimizer := NewRouteOptimizer(DefaultAnnealingConfig(), nil)
	points := rand.New(rand.NewSource(7))
	locations := make([]models.Location, 12)
	for i := range locations {
		locations[i] = stop(fmt.Sprintf("s%02d", i), 40+points.Float64(), -74+points.Float64())
	}
	home := stop("home", 40.5, -73.5)

	for seed := int64(1); seed <= 5; seed++ {
		plan, err := optimizer.OptimizeRoute(locations, home, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.LessOrEqual(t, plan.DistanceKm, plan.SeedDistanceKm+1e-9)

		ids := stopIDs(plan)
		sort.Strings(ids)
		want := make([]string, 0, len(locations))
		for _, l := range locations {
			want = append(want, l.ID)
		}
		assert.Equal(t, want, ids, "every stop appears exactly once")

		points := []geo.Point{home.Coordinate.Point()}
		for _, s := range plan.Stops {
			points = append(points, s.Coordinate.Point())
		}
		assert.InDelta(t, geo.PathDistanceKm(points, true), plan.DistanceKm, 1e-6)
	}
}

func TestOptimizeRouteDeterministicForSeed(t *testing.T) {
	optimizer := NewRouteOptimizer(AnnealingConfig{Seed: 99}, nil)
	locations := []models.Location{
		stop("a", 40.71, -74.00), stop("b", 40.73, -73.99), stop("c", 40.75, -73.98),
		stop("d", 40.70, -74.01), stop("e", 40.78, -73.96), stop("f", 40.69, -73.94),
	}
	home := stop("home", 40.72, -73.97)

	first, err := optimizer.OptimizeRoute(locations, home, nil)
	require.NoError(t, err)
	second, err := optimizer.OptimizeRoute(locations, home, nil)
	require.NoError(t, err)
	assert.Equal(t, stopIDs(first), stopIDs(second))
	assert.Equal(t, first.DistanceKm, second.DistanceKm)
}

func TestOptimizeRouteRejectsBadCoordinates(t *testing.T) {
	optimizer := NewRouteOptimizer(DefaultAnnealingConfig(), nil)

	_, err := optimizer.OptimizeRoute([]models.Location{stop("a", 91, 0)}, stop("home", 0, 0), nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsInvalidInput(err))

	_, err = optimizer.OptimizeRoute(nil, stop("home", 0, 181), nil)
	assert.True(t, appErrors.IsInvalidInput(err))
}

func TestAnnealingIterations(t *testing.T) {
	assert.Equal(t, 3066, DefaultAnnealingConfig().Iterations())

	cfg := AnnealingConfigFromConfig(config.RouteConfig{InitialTemperature: 100, CoolingRate: 0.5, MinTemperature: 1, Seed: 3})
	assert.Equal(t, 7, cfg.Iterations())
	assert.Equal(t, int64(3), cfg.Seed)

	cfg = AnnealingConfigFromConfig(config.RouteConfig{CoolingRate: 2})
	assert.Equal(t, DefaultAnnealingConfig(), cfg)
}

func TestNearestNeighbourTour(t *testing.T) {
	home := stop("home", 0, 0)
	locations := []models.Location{stop("far", 0, 3), stop("near", 0, 1), stop("mid", 0, 2)}
	dist := distanceMatrix(home, locations)

	assert.Equal(t, []int{1, 2, 0}, nearestNeighbourTour(dist, len(locations)))
	assert.InDelta(t, 2*dist[0][1], tourDistance(dist, []int{1, 2, 0}), 1e-6)
}
