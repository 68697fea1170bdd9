package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string
	APIKeys         []string

	CacheBackend       string
	CacheSQLitePath    string
	RedisURL           string
	CacheKeyPrefix     string
	CacheSweepInterval time.Duration

	DefaultProvider    string
	OpenAIAPIKey       string
	OpenAIModel        string
	GoogleAPIKey       string
	GeminiModel        string
	AnthropicAPIKey    string
	AnthropicModel     string
	BedrockModelID     string
	AWSRegion          string
	ProviderTimeout    time.Duration
	ProviderMaxRetries int
	ProvidersFile      string

	FetchTimeout  time.Duration
	FetchMaxBytes int64

	SnapshotStore string
	LocalStoreDir string
	S3Bucket      string
	S3Prefix      string
	SSEKMSKeyID   string

	GenerateRateRPS   float64
	GenerateRateBurst int
	ParseRateRPS      float64
	ParseRateBurst    int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	redisURL := os.Getenv("REDIS_URL")

	backend := normalizeCacheBackend(getEnv("CACHE_BACKEND", ""), dbURL)
	if env == "production" && backend == "postgres" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if backend == "redis" && redisURL == "" {
		log.Printf("CACHE_BACKEND=redis requires REDIS_URL")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,
		APIKeys:         splitAndTrim(os.Getenv("API_KEYS")),

		CacheBackend:       backend,
		CacheSQLitePath:    getEnv("CACHE_SQLITE_PATH", "./data/llm_cache.db"),
		RedisURL:           redisURL,
		CacheKeyPrefix:     getEnv("CACHE_KEY_PREFIX", "llmcache:"),
		CacheSweepInterval: getDuration("CACHE_SWEEP_INTERVAL", 0),

		DefaultProvider:    strings.ToLower(strings.TrimSpace(getEnv("DEFAULT_LLM_PROVIDER", "gemini"))),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		BedrockModelID:     os.Getenv("BEDROCK_MODEL_ID"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		ProviderTimeout:    getDuration("PROVIDER_TIMEOUT", 60*time.Second),
		ProviderMaxRetries: getInt("PROVIDER_MAX_RETRIES", 2),
		ProvidersFile:      os.Getenv("PROVIDERS_FILE"),

		FetchTimeout:  getDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchMaxBytes: int64(getInt("FETCH_MAX_BYTES", 5<<20)),

		SnapshotStore: normalizeSnapshotStore(getEnv("SNAPSHOT_STORE", "none")),
		LocalStoreDir: getEnv("LOCAL_STORE_DIR", "./data"),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Prefix:      getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:   getEnv("SSE_KMS_KEY_ID", ""),

		GenerateRateRPS:   getFloat("RATE_LIMIT_GENERATE_RPS", 5),
		GenerateRateBurst: getInt("RATE_LIMIT_GENERATE_BURST", 10),
		ParseRateRPS:      getFloat("RATE_LIMIT_PARSE_RPS", 1),
		ParseRateBurst:    getInt("RATE_LIMIT_PARSE_BURST", 3),
	}
}

// IsDevLike reports whether memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		log.Printf("invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return v
}

// getDuration accepts Go durations ("90s") or a bare number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeCacheBackend(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "sqlite":
		return "sqlite"
	case "redis":
		return "redis"
	case "memory":
		return "memory"
	}
	if dbURL != "" {
		return "postgres"
	}
	return "memory"
}

func normalizeSnapshotStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "local":
		return "local"
	default:
		return "none"
	}
}
