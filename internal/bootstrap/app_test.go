package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"llm-service/internal/llmcache"
	"llm-service/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:               "dev",
		CacheBackend:      "memory",
		DefaultProvider:   "gemini",
		GoogleAPIKey:      "g-key",
		OpenAIAPIKey:      "o-key",
		SnapshotStore:     "local",
		LocalStoreDir:     t.TempDir(),
		GenerateRateRPS:   5,
		GenerateRateBurst: 10,
		ParseRateRPS:      1,
		ParseRateBurst:    3,
	}
}

func TestBuildWiresServicesAndRouter(t *testing.T) {
	app, err := Build(context.Background(), devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	if got := strings.Join(app.Registry.Names(), ","); got != "gemini,openai" {
		t.Fatalf("unexpected providers %q", got)
	}
	if _, ok := app.Cache.(*llmcache.MemoryRepo); !ok {
		t.Fatalf("expected memory cache, got %T", app.Cache)
	}
	if app.Snapshots == nil || app.JobParseService.Snapshots == nil {
		t.Fatalf("expected local snapshot store")
	}
	if app.DB != nil {
		t.Fatalf("expected no database")
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/llm/providers", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"default":"gemini"`) {
		t.Fatalf("unexpected providers response %d %s", resp.Code, resp.Body.String())
	}
}

func TestBuildCacheBackends(t *testing.T) {
	ctx := context.Background()

	cfg := devConfig(t)
	cfg.CacheBackend = "sqlite"
	cfg.CacheSQLitePath = filepath.Join(t.TempDir(), "cache", "llm.db")
	store, err := BuildCache(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	sqliteRepo, ok := store.(*llmcache.SQLiteRepo)
	if !ok {
		t.Fatalf("expected sqlite repo, got %T", store)
	}
	_ = sqliteRepo.Close()

	mr := miniredis.RunT(t)
	cfg.CacheBackend = "redis"
	cfg.RedisURL = "redis://" + mr.Addr()
	store, err = BuildCache(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	redisRepo, ok := store.(*llmcache.RedisRepo)
	if !ok {
		t.Fatalf("expected redis repo, got %T", store)
	}
	_ = redisRepo.Close()
}

func TestBuildCacheFallsBackOnlyInDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.CacheBackend = "postgres"
	store, err := BuildCache(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("dev fallback: %v", err)
	}
	if _, ok := store.(*llmcache.MemoryRepo); !ok {
		t.Fatalf("expected memory fallback, got %T", store)
	}

	cfg.Env = "production"
	if _, err := BuildCache(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error outside dev")
	}
}

func TestBuildRegistryHonoursProvidersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	yaml := "providers:\n  openai:\n    disabled: true\n  gemini:\n    model: gemini-1.5-pro\n    max_retries: 0\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := devConfig(t)
	cfg.ProvidersFile = path

	registry, err := BuildRegistry(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if got := strings.Join(registry.Names(), ","); got != "gemini" {
		t.Fatalf("expected only gemini, got %q", got)
	}
}

func TestBuildRegistryWithoutCredentials(t *testing.T) {
	cfg := config.Config{Env: "dev", DefaultProvider: "gemini"}
	registry, err := BuildRegistry(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if len(registry.Names()) != 0 {
		t.Fatalf("expected no providers, got %v", registry.Names())
	}
}

func TestResilienceForPrefersOverride(t *testing.T) {
	retries := 5
	cfg := config.Config{ProviderMaxRetries: 1}
	opts := resilienceFor(cfg, config.ProviderOverride{MaxRetries: &retries})
	if opts.MaxRetries != 5 {
		t.Fatalf("expected override retries, got %d", opts.MaxRetries)
	}
	if opts := resilienceFor(cfg, config.ProviderOverride{}); opts.MaxRetries != 1 {
		t.Fatalf("expected env retries, got %d", opts.MaxRetries)
	}
}
