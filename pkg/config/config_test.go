package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaultsMatchSchedulerReference(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, "UTC", cfg.Scheduler.Timezone)
	assert.Equal(t, 0.3, cfg.Scheduler.MinScore)
	assert.Equal(t, 8, cfg.Scheduler.DayStartHour)
	assert.Equal(t, 18, cfg.Scheduler.DayEndHour)
	assert.Equal(t, []string{"sunday"}, cfg.Scheduler.ExcludedDays)
	assert.Equal(t, 100, cfg.Scheduler.MaxResults)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.ProposalTTL)

	sum := cfg.Weights.Compatibility + cfg.Weights.Availability + cfg.Weights.Workload +
		cfg.Weights.Travel + cfg.Weights.Continuity + cfg.Weights.Urgency + cfg.Weights.Efficiency
	assert.InDelta(t, 1.0, sum, 1e-9)

	assert.Equal(t, 10000.0, cfg.Route.InitialTemperature)
	assert.Equal(t, 0.003, cfg.Route.CoolingRate)
	assert.Equal(t, 1.0, cfg.Route.MinTemperature)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_EXCLUDED_DAYS", "saturday, sunday")
	t.Setenv("SCHEDULER_CACHE_TTL", "not-a-duration")
	t.Setenv("ROUTE_SEED", "42")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, []string{"saturday", "sunday"}, cfg.Scheduler.ExcludedDays)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.CacheTTL)
	assert.Equal(t, int64(42), cfg.Route.Seed)
}
