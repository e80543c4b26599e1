package service

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/config"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/geo"
)

// AnnealingConfig is the cooling schedule. Seed 0 draws a time-based seed per call.
type AnnealingConfig struct {
	InitialTemperature float64
	CoolingRate        float64
	MinTemperature     float64
	Seed               int64
}

func DefaultAnnealingConfig() AnnealingConfig {
	return AnnealingConfig{InitialTemperature: 10000, CoolingRate: 0.003, MinTemperature: 1}
}

func AnnealingConfigFromConfig(cfg config.RouteConfig) AnnealingConfig {
	return AnnealingConfig{
		InitialTemperature: cfg.InitialTemperature,
		CoolingRate:        cfg.CoolingRate,
		MinTemperature:     cfg.MinTemperature,
		Seed:               cfg.Seed,
	}.normalized()
}

func (c AnnealingConfig) normalized() AnnealingConfig {
	defaults := DefaultAnnealingConfig()
	if c.MinTemperature <= 0 {
		c.MinTemperature = defaults.MinTemperature
	}
	if c.InitialTemperature <= c.MinTemperature {
		c.InitialTemperature = math.Max(defaults.InitialTemperature, c.MinTemperature*2)
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		c.CoolingRate = defaults.CoolingRate
	}
	return c
}

// Iterations is the fixed number of annealing steps the schedule allows.
func (c AnnealingConfig) Iterations() int {
	c = c.normalized()
	return int(math.Ceil(math.Log(c.MinTemperature/c.InitialTemperature) / math.Log(1-c.CoolingRate)))
}

// RouteOptimizer orders a therapist's stops for a short closed tour.
type RouteOptimizer struct {
	cfg    AnnealingConfig
	logger *zap.Logger
}

func NewRouteOptimizer(cfg AnnealingConfig, logger *zap.Logger) *RouteOptimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteOptimizer{cfg: cfg.normalized(), logger: logger}
}

// NewRNG returns a generator for one call. Never share it between goroutines.
func (o *RouteOptimizer) NewRNG() *rand.Rand {
	seed := o.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// OptimizeRoute seeds a tour with nearest neighbour from start, then improves it by
// simulated annealing over random two-position swaps. The best tour seen is
// returned, so its distance never exceeds the seed's. A nil rng uses NewRNG.
func (o *RouteOptimizer) OptimizeRoute(locations []models.Location, start models.Location, rng *rand.Rand) (*models.RoutePlan, error) {
	if err := start.Coordinate.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "start: "+err.Error())
	}
	for i := range locations {
		if err := locations[i].Coordinate.Validate(); err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("location %d (%s): %s", i, locations[i].ID, err.Error()))
		}
	}
	plan := &models.RoutePlan{Start: start, Stops: []models.Location{}}
	if len(locations) == 0 {
		return plan, nil
	}
	if rng == nil {
		rng = o.NewRNG()
	}

	dist := distanceMatrix(start, locations)
	seed := nearestNeighbourTour(dist, len(locations))
	seedDistance := tourDistance(dist, seed)

	best, bestDistance, iterations := o.anneal(dist, seed, seedDistance, rng)

	for _, idx := range best {
		plan.Stops = append(plan.Stops, locations[idx])
	}
	plan.DistanceKm = bestDistance
	plan.SeedDistanceKm = seedDistance
	plan.Iterations = iterations

	o.logger.Debug("route optimized",
		zap.Int("stops", len(locations)),
		zap.Float64("seed_km", seedDistance),
		zap.Float64("best_km", bestDistance),
		zap.Int("iterations", iterations),
	)
	return plan, nil
}

func (o *RouteOptimizer) anneal(dist [][]float64, seed []int, seedDistance float64, rng *rand.Rand) ([]int, float64, int) {
	n := len(seed)
	current := append([]int(nil), seed...)
	best := append([]int(nil), seed...)
	currentDistance, bestDistance := seedDistance, seedDistance
	if n < 2 {
		return best, bestDistance, 0
	}

	iterations := 0
	for temperature := o.cfg.InitialTemperature; temperature > o.cfg.MinTemperature; temperature *= 1 - o.cfg.CoolingRate {
		iterations++
		i := rng.Intn(n)
		j := rng.Intn(n - 1)
		if j >= i {
			j++
		}
		current[i], current[j] = current[j], current[i]
		candidate := tourDistance(dist, current)

		if candidate < currentDistance || rng.Float64() < math.Exp((currentDistance-candidate)/temperature) {
			currentDistance = candidate
			if candidate < bestDistance {
				bestDistance = candidate
				copy(best, current)
			}
			continue
		}
		current[i], current[j] = current[j], current[i]
	}
	return best, bestDistance, iterations
}

// distanceMatrix holds great-circle distances; index 0 is the start, i+1 is locations[i].
func distanceMatrix(start models.Location, locations []models.Location) [][]float64 {
	points := make([]geo.Point, 0, len(locations)+1)
	points = append(points, start.Coordinate.Point())
	for i := range locations {
		points = append(points, locations[i].Coordinate.Point())
	}
	dist := make([][]float64, len(points))
	for i := range points {
		dist[i] = make([]float64, len(points))
		for j := range points {
			if i != j {
				dist[i][j] = geo.DistanceKm(points[i], points[j])
			}
		}
	}
	return dist
}

// nearestNeighbourTour returns location indexes (0-based) greedily from the start.
func nearestNeighbourTour(dist [][]float64, n int) []int {
	visited := make([]bool, n)
	tour := make([]int, 0, n)
	from := 0
	for len(tour) < n {
		next := -1
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			if next == -1 || dist[from][i+1] < dist[from][next+1] {
				next = i
			}
		}
		visited[next] = true
		tour = append(tour, next)
		from = next + 1
	}
	return tour
}

// tourDistance sums the closed tour start -> stops -> start.
func tourDistance(dist [][]float64, tour []int) float64 {
	if len(tour) == 0 {
		return 0
	}
	total := dist[0][tour[0]+1]
	for i := 1; i < len(tour); i++ {
		total += dist[tour[i-1]+1][tour[i]+1]
	}
	return total + dist[tour[len(tour)-1]+1][0]
}
