package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Log          LogConfig
	Scheduler    SchedulerConfig
	Weights      WeightsConfig
	Travel       TravelConfig
	Alternatives AlternativesConfig
	Route        RouteConfig
	Jobs         JobsConfig
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig tunes the candidate generator and its per-call caches.
type SchedulerConfig struct {
	Timezone         string
	MinScore         float64
	DayStartHour     int
	DayEndHour       int
	StepMinutes      int
	DefaultDuration  int
	ExcludedDays     []string
	MaxResults       int
	BreakMinutes     int
	MaxDailyHours    int
	DefaultWeeklyMax int
	Workers          int
	FactorMode       string
	CacheSize        int
	CacheTTL         time.Duration
	ProposalTTL      time.Duration
	ResultCacheTTL   time.Duration
}

// WeightsConfig holds the combined score weights.
type WeightsConfig struct {
	Compatibility float64
	Availability  float64
	Workload      float64
	Travel        float64
	Continuity    float64
	Urgency       float64
	Efficiency    float64
}

// TravelConfig sets average speeds for travel-time estimates.
type TravelConfig struct {
	RushHourKmh float64
	OffPeakKmh  float64
}

// AlternativesConfig bounds the alternative-time search neighbourhood.
type AlternativesConfig struct {
	DayRadius  int
	HourRadius int
	MaxResults int
}

// RouteConfig controls the simulated annealing schedule.
type RouteConfig struct {
	InitialTemperature float64
	CoolingRate        float64
	MinTemperature     float64
	Seed               int64
}

// JobsConfig configures the async generation queue.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("DB_ENABLED"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Timezone:         v.GetString("SCHEDULER_TIMEZONE"),
		MinScore:         v.GetFloat64("SCHEDULER_MIN_SCORE"),
		DayStartHour:     v.GetInt("SCHEDULER_DAY_START_HOUR"),
		DayEndHour:       v.GetInt("SCHEDULER_DAY_END_HOUR"),
		StepMinutes:      v.GetInt("SCHEDULER_STEP_MINUTES"),
		DefaultDuration:  v.GetInt("SCHEDULER_DEFAULT_DURATION"),
		ExcludedDays:     splitAndTrim(v.GetString("SCHEDULER_EXCLUDED_DAYS")),
		MaxResults:       v.GetInt("SCHEDULER_MAX_RESULTS"),
		BreakMinutes:     v.GetInt("SCHEDULER_BREAK_MINUTES"),
		MaxDailyHours:    v.GetInt("SCHEDULER_MAX_DAILY_HOURS"),
		DefaultWeeklyMax: v.GetInt("SCHEDULER_DEFAULT_WEEKLY_MAX"),
		Workers:          v.GetInt("SCHEDULER_WORKERS"),
		FactorMode:       v.GetString("SCHEDULER_FACTOR_MODE"),
		CacheSize:        v.GetInt("SCHEDULER_CACHE_SIZE"),
		CacheTTL:         parseDuration(v.GetString("SCHEDULER_CACHE_TTL"), 5*time.Minute),
		ProposalTTL:      parseDuration(v.GetString("SCHEDULER_PROPOSAL_TTL"), 30*time.Minute),
		ResultCacheTTL:   parseDuration(v.GetString("SCHEDULER_RESULT_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Weights = WeightsConfig{
		Compatibility: v.GetFloat64("SCHEDULER_WEIGHT_COMPATIBILITY"),
		Availability:  v.GetFloat64("SCHEDULER_WEIGHT_AVAILABILITY"),
		Workload:      v.GetFloat64("SCHEDULER_WEIGHT_WORKLOAD"),
		Travel:        v.GetFloat64("SCHEDULER_WEIGHT_TRAVEL"),
		Continuity:    v.GetFloat64("SCHEDULER_WEIGHT_CONTINUITY"),
		Urgency:       v.GetFloat64("SCHEDULER_WEIGHT_URGENCY"),
		Efficiency:    v.GetFloat64("SCHEDULER_WEIGHT_EFFICIENCY"),
	}

	cfg.Travel = TravelConfig{
		RushHourKmh: v.GetFloat64("TRAVEL_RUSH_HOUR_KMH"),
		OffPeakKmh:  v.GetFloat64("TRAVEL_OFF_PEAK_KMH"),
	}

	cfg.Alternatives = AlternativesConfig{
		DayRadius:  v.GetInt("ALTERNATIVES_DAY_RADIUS"),
		HourRadius: v.GetInt("ALTERNATIVES_HOUR_RADIUS"),
		MaxResults: v.GetInt("ALTERNATIVES_MAX_RESULTS"),
	}

	cfg.Route = RouteConfig{
		InitialTemperature: v.GetFloat64("ROUTE_INITIAL_TEMPERATURE"),
		CoolingRate:        v.GetFloat64("ROUTE_COOLING_RATE"),
		MinTemperature:     v.GetFloat64("ROUTE_MIN_TEMPERATURE"),
		Seed:               v.GetInt64("ROUTE_SEED"),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), time.Second),
		Timeout:    parseDuration(v.GetString("JOBS_TIMEOUT"), 2*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "therapy_scheduling")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_TIMEZONE", "UTC")
	v.SetDefault("SCHEDULER_MIN_SCORE", 0.3)
	v.SetDefault("SCHEDULER_DAY_START_HOUR", 8)
	v.SetDefault("SCHEDULER_DAY_END_HOUR", 18)
	v.SetDefault("SCHEDULER_STEP_MINUTES", 60)
	v.SetDefault("SCHEDULER_DEFAULT_DURATION", 60)
	v.SetDefault("SCHEDULER_EXCLUDED_DAYS", "sunday")
	v.SetDefault("SCHEDULER_MAX_RESULTS", 100)
	v.SetDefault("SCHEDULER_BREAK_MINUTES", 0)
	v.SetDefault("SCHEDULER_MAX_DAILY_HOURS", 8)
	v.SetDefault("SCHEDULER_DEFAULT_WEEKLY_MAX", 40)
	v.SetDefault("SCHEDULER_WORKERS", 4)
	v.SetDefault("SCHEDULER_FACTOR_MODE", "neutral")
	v.SetDefault("SCHEDULER_CACHE_SIZE", 50000)
	v.SetDefault("SCHEDULER_CACHE_TTL", "5m")
	v.SetDefault("SCHEDULER_PROPOSAL_TTL", "30m")
	v.SetDefault("SCHEDULER_RESULT_CACHE_TTL", "10m")

	v.SetDefault("SCHEDULER_WEIGHT_COMPATIBILITY", 0.25)
	v.SetDefault("SCHEDULER_WEIGHT_AVAILABILITY", 0.20)
	v.SetDefault("SCHEDULER_WEIGHT_WORKLOAD", 0.15)
	v.SetDefault("SCHEDULER_WEIGHT_TRAVEL", 0.15)
	v.SetDefault("SCHEDULER_WEIGHT_CONTINUITY", 0.10)
	v.SetDefault("SCHEDULER_WEIGHT_URGENCY", 0.10)
	v.SetDefault("SCHEDULER_WEIGHT_EFFICIENCY", 0.05)

	v.SetDefault("TRAVEL_RUSH_HOUR_KMH", 25)
	v.SetDefault("TRAVEL_OFF_PEAK_KMH", 40)

	v.SetDefault("ALTERNATIVES_DAY_RADIUS", 2)
	v.SetDefault("ALTERNATIVES_HOUR_RADIUS", 3)
	v.SetDefault("ALTERNATIVES_MAX_RESULTS", 5)

	v.SetDefault("ROUTE_INITIAL_TEMPERATURE", 10000)
	v.SetDefault("ROUTE_COOLING_RATE", 0.003)
	v.SetDefault("ROUTE_MIN_TEMPERATURE", 1)
	v.SetDefault("ROUTE_SEED", 0)

	v.SetDefault("JOBS_WORKERS", 2)
	v.SetDefault("JOBS_BUFFER_SIZE", 16)
	v.SetDefault("JOBS_MAX_RETRIES", 1)
	v.SetDefault("JOBS_RETRY_DELAY", "1s")
	v.SetDefault("JOBS_TIMEOUT", "2m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
