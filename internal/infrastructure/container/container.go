// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alchemorsel/ingredients/internal/application/normalize"
	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/infrastructure/cache"
	"github.com/alchemorsel/ingredients/internal/infrastructure/config"
	"github.com/alchemorsel/ingredients/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/ingredients/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/ingredients/internal/infrastructure/http/server"
	"github.com/alchemorsel/ingredients/internal/infrastructure/monitoring"
	"github.com/alchemorsel/ingredients/internal/infrastructure/referencedata"
	"github.com/alchemorsel/ingredients/internal/ports/inbound"
	"github.com/alchemorsel/ingredients/internal/ports/outbound"
	"github.com/alchemorsel/ingredients/pkg/healthcheck"
	"github.com/alchemorsel/ingredients/pkg/logger"
)

// ConfigPath is the configuration file to load. Empty searches the
// default locations.
type ConfigPath string

// ResultCache is the concrete cache behind the outbound.ResultCache port
type ResultCache = cache.LocalCache[ingredient.NormalizedIngredient]

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	ReferenceDataModule,
	CacheModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HealthModule,
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		log, err := logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
		if err != nil {
			return nil, err
		}
		zap.ReplaceGlobals(log)
		return log, nil
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) outbound.MetricsRecorder {
		return m
	},
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			Endpoint:       cfg.Monitoring.TracingEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
)

// ReferenceDataModule loads the unit and density tables
var ReferenceDataModule = fx.Provide(
	func(cfg *config.Config) referencedata.Source {
		return referencedata.Source{
			UnitsFile:       cfg.Reference.UnitsFile,
			DensitiesFile:   cfg.Reference.DensitiesFile,
			ReplaceDefaults: cfg.Reference.ReplaceDefaults,
		}
	},
	NewNormalizer,
)

// CacheModule provides the result cache: the in-memory LRU, Redis, or
// none when the memory cache size is zero
var CacheModule = fx.Provide(
	func(cfg *config.Config) *ResultCache {
		if cfg.Normalize.CacheBackend != config.CacheBackendMemory || cfg.Normalize.CacheSize == 0 {
			return nil
		}
		return cache.NewLocalCache[ingredient.NormalizedIngredient](cfg.Normalize.CacheSize, cfg.Normalize.CacheTTL)
	},
	func(cfg *config.Config, log *zap.Logger) (*cache.RedisCache, error) {
		if cfg.Normalize.CacheBackend != config.CacheBackendRedis {
			return nil, nil
		}
		return cache.NewRedisCache(cfg.Redis, cfg.Normalize.CacheTTL, log)
	},
	SelectResultCache,
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(
		cfg *config.Config,
		n *ingredient.Normalizer,
		c outbound.ResultCache,
		metrics outbound.MetricsRecorder,
		log *zap.Logger,
	) (*normalize.Service, error) {
		return normalize.NewService(n, c, metrics, log, normalize.Options{
			Workers:       cfg.Normalize.Workers,
			MaxBatchLines: cfg.Normalize.MaxBatchLines,
		})
	},
	func(s *normalize.Service) inbound.NormalizeService {
		return s
	},
	NewWatcher,
)

// HealthModule provides the health checks
var HealthModule = fx.Provide(
	NewHealthCheck,
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	func(cfg *config.Config, s inbound.NormalizeService, log *zap.Logger) *handlers.NormalizeHandlers {
		return handlers.NewNormalizeHandlers(s, cfg.Server.MaxBodyBytes, log)
	},
	func(cfg *config.Config, log *zap.Logger) *middleware.RateLimiter {
		if !cfg.RateLimit.Enable {
			return nil
		}
		return middleware.NewRateLimiter(cfg.RateLimit, log)
	},
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// NewNormalizer builds the normalizer over the configured reference data
func NewNormalizer(src referencedata.Source, log *zap.Logger) (*ingredient.Normalizer, error) {
	units, densities, err := referencedata.Load(src)
	if err != nil {
		return nil, err
	}
	log.Info("Reference data loaded",
		zap.Int("units", units.Len()),
		zap.Int("densities", densities.Len()),
		zap.Strings("files", src.Paths()),
	)
	return ingredient.NewNormalizer(ingredient.WithUnitTable(units), ingredient.WithDensityTable(densities))
}

// NewWatcher creates the reference data watcher, or nil when hot reload
// is off
func NewWatcher(cfg *config.Config, src referencedata.Source, s *normalize.Service, log *zap.Logger) (*referencedata.Watcher, error) {
	if !cfg.Reference.Watch {
		return nil, nil
	}
	w, err := referencedata.NewWatcher(src, s.SwapTables, cfg.Reference.WatchDebounce, log)
	if err != nil {
		return nil, fmt.Errorf("failed to start reference data watcher: %w", err)
	}
	return w, nil
}

// SelectResultCache picks the configured cache. Nil pointers must become
// a nil interface so the service skips memoization.
func SelectResultCache(local *ResultCache, shared *cache.RedisCache) outbound.ResultCache {
	switch {
	case shared != nil:
		return shared
	case local != nil:
		return local
	default:
		return nil
	}
}

// NewHealthCheck registers the reference data check and, with the Redis
// backend, a Redis check. Redis being down only degrades the service.
func NewHealthCheck(cfg *config.Config, log *zap.Logger, s *normalize.Service, shared *cache.RedisCache) *healthcheck.HealthCheck {
	health := healthcheck.New(cfg.App.Version, log)
	health.Register("reference_data", healthcheck.NewReferenceDataChecker(func() map[string]int {
		units, densities := s.Tables()
		return map[string]int{"units": units.Len(), "densities": densities.Len()}
	}))
	if shared != nil {
		health.Register("redis", healthcheck.NewCustomChecker("redis", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
			if err := shared.Ping(ctx); err != nil {
				return healthcheck.StatusDegraded, "Redis unreachable, results are not cached: " + err.Error(), nil
			}
			return healthcheck.StatusHealthy, "Redis reachable", nil
		}))
	}
	return health
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	srv *server.Server,
	metrics *monitoring.MetricsCollector,
	tracing *monitoring.TracingProvider,
	resultCache *ResultCache,
	sharedCache *cache.RedisCache,
	watcher *referencedata.Watcher,
	limiter *middleware.RateLimiter,
) {
	var (
		stopCleanup  chan struct{}
		cancelUptime context.CancelFunc
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting ingredients service",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			var uptimeCtx context.Context
			uptimeCtx, cancelUptime = context.WithCancel(context.Background())
			go metrics.StartUptimeCounter(uptimeCtx)

			if resultCache != nil && cfg.Normalize.CacheTTL > 0 {
				stopCleanup = resultCache.AutoCleanup(cfg.Normalize.CacheTTL)
			}
			if watcher != nil {
				watcher.Start(context.Background())
			}
			if limiter != nil {
				limiter.StartCleanup()
			}

			// Start HTTP server
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server failed", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down ingredients service")

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			if watcher != nil {
				if err := watcher.Stop(); err != nil {
					log.Warn("Failed to stop reference data watcher", zap.Error(err))
				}
			}
			if limiter != nil {
				limiter.Stop()
			}
			if stopCleanup != nil {
				close(stopCleanup)
			}
			if sharedCache != nil {
				if err := sharedCache.Close(); err != nil {
					log.Warn("Failed to close Redis cache", zap.Error(err))
				}
			}
			if cancelUptime != nil {
				cancelUptime()
			}
			if err := tracing.Shutdown(ctx); err != nil {
				log.Warn("Failed to flush traces", zap.Error(err))
			}

			// Flush logs
			_ = log.Sync()

			return nil
		},
	})
}
