package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"llm-service/internal/generation"
	"llm-service/internal/jobparse"
	"llm-service/internal/llm"
	"llm-service/internal/llm/anthropic"
	"llm-service/internal/llm/bedrock"
	"llm-service/internal/llm/gemini"
	"llm-service/internal/llm/openai"
	"llm-service/internal/llmcache"
	"llm-service/internal/services/health"
	"llm-service/internal/shared/config"
	"llm-service/internal/shared/server"
	"llm-service/internal/shared/storage/db"
	"llm-service/internal/shared/storage/object"
	localstore "llm-service/internal/shared/storage/object/local"
	s3store "llm-service/internal/shared/storage/object/s3"
	"llm-service/internal/shared/telemetry"
	"llm-service/internal/userdata"
	"llm-service/internal/webfetch"
)

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Cache     llmcache.Store
	Snapshots object.ObjectStore
	Registry  *llm.Registry
	Health    *health.Service
	Sweeper   *llmcache.Sweeper

	GenerationService *generation.Service
	JobParseService   *jobparse.Service
	UserDataService   *userdata.Service

	closers []io.Closer
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg, Health: health.NewService(0)}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.Health.Register("database", sqlDB.PingContext)
	}

	cache, err := BuildCache(ctx, cfg, sqlDB)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Cache = cache
	app.trackCloser(cache)
	if p, ok := cache.(interface{ Ping(context.Context) error }); ok {
		app.Health.Register("cache", p.Ping)
	}

	registry, err := BuildRegistry(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Registry = registry

	snapshots, err := BuildSnapshots(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Snapshots = snapshots

	var userRepo userdata.Repo
	if sqlDB != nil {
		userRepo = &userdata.PGRepo{DB: sqlDB}
	} else {
		userRepo = userdata.NewMemoryRepo()
	}

	app.GenerationService = &generation.Service{Registry: registry, Cache: cache}
	app.JobParseService = &jobparse.Service{
		Registry:  registry,
		Fetcher:   webfetch.New(cfg.FetchTimeout, cfg.FetchMaxBytes),
		Snapshots: snapshots,
	}
	app.UserDataService = userdata.NewService(userRepo)
	app.Sweeper = &llmcache.Sweeper{Store: cache, Interval: cfg.CacheSweepInterval}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		Health:            app.Health,
		GenerationHandler: generation.NewHandler(app.GenerationService),
		JobParseHandler:   jobparse.NewHandler(app.JobParseService),
		UserDataHandler:   userdata.NewHandler(app.UserDataService),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":              cfg.Env,
		"cache_backend":    backendName(cache),
		"providers":        registry.Names(),
		"default_provider": registry.Default(),
		"snapshot_store":   cfg.SnapshotStore,
		"api_keys":         len(cfg.APIKeys),
	})
	return app, nil
}

// Close releases the cache backend and database.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.DB != nil && !db.IsLambdaRuntime() {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
		a.DB = nil
	}
	return errors.Join(errs...)
}

func (a *App) trackCloser(v any) {
	if c, ok := v.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.CacheBackend == "postgres" && !cfg.IsDevLike() {
			return nil, fmt.Errorf("DATABASE_URL is required for CACHE_BACKEND=postgres")
		}
		return nil, nil
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db_unavailable", map[string]any{
				"error":    err.Error(),
				"fallback": "memory",
			})
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		if !db.IsLambdaRuntime() {
			sqlDB.Close()
		}
		return nil, err
	}
	return sqlDB, nil
}

// BuildCache selects the cache backend named by cfg.CacheBackend. In dev-like
// environments an unavailable backend falls back to memory.
func BuildCache(ctx context.Context, cfg config.Config, sqlDB *sql.DB) (llmcache.Store, error) {
	var (
		store llmcache.Store
		err   error
	)
	switch cfg.CacheBackend {
	case "postgres":
		if sqlDB == nil {
			err = errors.New("postgres cache requires a database connection")
		} else {
			store = &llmcache.PGRepo{DB: sqlDB}
		}
	case "sqlite":
		store, err = llmcache.OpenSQLite(cfg.CacheSQLitePath)
	case "redis":
		if strings.TrimSpace(cfg.RedisURL) == "" {
			err = errors.New("REDIS_URL is required for CACHE_BACKEND=redis")
		} else {
			store, err = llmcache.OpenRedis(ctx, cfg.RedisURL, cfg.CacheKeyPrefix)
		}
	default:
		store = llmcache.NewMemoryRepo()
	}
	if err == nil {
		return store, nil
	}
	if !cfg.IsDevLike() {
		return nil, fmt.Errorf("cache backend %s: %w", cfg.CacheBackend, err)
	}
	telemetry.Warn("bootstrap.cache_unavailable", map[string]any{
		"backend":  cfg.CacheBackend,
		"error":    err.Error(),
		"fallback": "memory",
	})
	return llmcache.NewMemoryRepo(), nil
}

// BuildRegistry constructs every provider whose credentials are configured.
// Providers listed as disabled in PROVIDERS_FILE are skipped.
func BuildRegistry(ctx context.Context, cfg config.Config) (*llm.Registry, error) {
	overrides, err := config.LoadProviderOverrides(cfg.ProvidersFile)
	if err != nil {
		return nil, err
	}
	prompts := llm.EmbeddedPrompts{}

	var providers []llm.Provider
	add := func(name string, build func(o config.ProviderOverride) (llm.Provider, error)) error {
		o := overrides.For(name)
		if o.Disabled {
			telemetry.Info("bootstrap.provider_disabled", map[string]any{"provider": name})
			return nil
		}
		p, err := build(o)
		if err != nil {
			return fmt.Errorf("build %s provider: %w", name, err)
		}
		if p == nil {
			return nil
		}
		providers = append(providers, llm.Resilient(p, resilienceFor(cfg, o)))
		return nil
	}

	steps := []struct {
		name  string
		build func(o config.ProviderOverride) (llm.Provider, error)
	}{
		{"gemini", func(o config.ProviderOverride) (llm.Provider, error) {
			if cfg.GoogleAPIKey == "" {
				return nil, nil
			}
			return gemini.NewClient(cfg.GoogleAPIKey, pick(o.Model, cfg.GeminiModel), prompts, gemini.Options{BaseURL: o.BaseURL, Timeout: o.Timeout})
		}},
		{"openai", func(o config.ProviderOverride) (llm.Provider, error) {
			if cfg.OpenAIAPIKey == "" {
				return nil, nil
			}
			return openai.NewClient(cfg.OpenAIAPIKey, pick(o.Model, cfg.OpenAIModel), openai.Options{BaseURL: o.BaseURL, Timeout: o.Timeout})
		}},
		{"anthropic", func(o config.ProviderOverride) (llm.Provider, error) {
			if cfg.AnthropicAPIKey == "" {
				return nil, nil
			}
			return anthropic.NewClient(cfg.AnthropicAPIKey, pick(o.Model, cfg.AnthropicModel), prompts, anthropic.Options{BaseURL: o.BaseURL, Timeout: o.Timeout})
		}},
		{"bedrock", func(o config.ProviderOverride) (llm.Provider, error) {
			modelID := pick(o.Model, cfg.BedrockModelID)
			if modelID == "" {
				return nil, nil
			}
			return bedrock.New(ctx, cfg.AWSRegion, modelID)
		}},
	}
	for _, step := range steps {
		if err := add(step.name, step.build); err != nil {
			return nil, err
		}
	}

	registry := llm.NewRegistry(cfg.DefaultProvider, providers...)
	if _, _, err := registry.Resolve(""); err != nil {
		telemetry.Warn("bootstrap.default_provider_missing", map[string]any{
			"default":   registry.Default(),
			"available": registry.Names(),
		})
	}
	return registry, nil
}

func resilienceFor(cfg config.Config, o config.ProviderOverride) llm.ResilienceOptions {
	opts := llm.DefaultResilienceOptions()
	opts.MaxRetries = uint64(cfg.ProviderMaxRetries)
	if o.MaxRetries != nil {
		opts.MaxRetries = uint64(*o.MaxRetries)
	}
	if cfg.ProviderTimeout > 0 {
		opts.CallTimeout = cfg.ProviderTimeout
	}
	if o.Timeout > 0 {
		opts.CallTimeout = o.Timeout
	}
	return opts
}

// BuildSnapshots returns the configured snapshot store, or nil when SNAPSHOT_STORE=none.
func BuildSnapshots(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.SnapshotStore {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("SNAPSHOT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

func backendName(store llmcache.Store) string {
	switch store.(type) {
	case *llmcache.PGRepo:
		return "postgres"
	case *llmcache.SQLiteRepo:
		return "sqlite"
	case *llmcache.RedisRepo:
		return "redis"
	default:
		return "memory"
	}
}

func pick(override, def string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return def
}
