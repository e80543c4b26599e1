package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/cache"
	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
)

// CacheRepository abstracts persistence for cached generation results.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheServiceConfig controls the generation result cache.
type CacheServiceConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
	// Namespace prefixes every key. Deriving it from the scoring and
	// generator settings keeps results from one configuration invisible to
	// another.
	Namespace string
}

// CacheService fronts the result cache. Lookup and write failures are logged and
// reported but never block a generation.
type CacheService struct {
	repo      CacheRepository
	metrics   *MetricsService
	cfg       CacheServiceConfig
	logger    *zap.Logger
	namespace string
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, cfg CacheServiceConfig, logger *zap.Logger) *CacheService {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = cache.Key("results")
	}
	return &CacheService{repo: repo, metrics: metrics, cfg: cfg, logger: logger, namespace: namespace}
}

// CacheNamespace fingerprints the settings that shape generation output.
// Changing any of them yields a fresh namespace, so stale results age out
// instead of being served.
func CacheNamespace(settings ...interface{}) string {
	raw, err := json.Marshal(settings)
	if err != nil {
		return cache.Key("results")
	}
	sum := sha256.Sum256(raw)
	return cache.Key("results", hex.EncodeToString(sum[:6]))
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.cfg.Enabled && s.repo != nil
}

// Namespace returns the key prefix in use.
func (s *CacheService) Namespace() string {
	return s.namespace
}

func (s *CacheService) key(k string) string {
	return s.namespace + ":" + k
}

// Get reports whether key was found and decoded into dest.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, s.key(key), dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores the value, falling back to the default TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, s.key(key), value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops every result in the current namespace.
func (s *CacheService) Invalidate(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	pattern := s.key("*")
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	s.logger.Info("result cache invalidated", zap.String("namespace", s.namespace))
	return nil
}
