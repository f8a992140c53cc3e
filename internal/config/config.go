package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Cache   CacheConfig
	Cors    CorsConfig
	Discogs DiscogsConfig
	Lastfm  LastfmConfig
	Observe ObserveConfig
	OpenAI  OpenAIConfig
	Pplx    PerplexityConfig
	Server  ServerConfig
	Spotify SpotifyConfig
}

type ServerConfig struct {
	Port                   int `env:"SERVER_PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`
}

// CacheConfig specifies the key-value store configuration.
type CacheConfig struct {
	// Type selects the store implementation: "memory" (default) or "valkey"
	Type string `env:"CACHE_TYPE, default=memory"`

	// MemoryMaxSize bounds the in-memory store.
	MemoryMaxSize int `env:"CACHE_MEMORY_MAX_SIZE, default=10000"`

	// FactMaxEntries bounds the random-fact namespace, which has no TTL.
	FactMaxEntries int `env:"CACHE_FACT_MAX_ENTRIES, default=10"`

	// Valkey holds durable store settings.
	Valkey ValkeyConfig
}

// ValkeyConfig specifies durable store configuration.
type ValkeyConfig struct {
	// Address is the Valkey server address (host:port).
	Address string `env:"VALKEY_ADDRESS"`

	// TLS enables TLS connection to Valkey. Defaults to true so the secure
	// option is the default.
	TLS bool `env:"VALKEY_TLS, default=true"`

	// Username for Valkey authentication.
	Username string `env:"VALKEY_USERNAME"`

	// Password for Valkey authentication.
	Password string `env:"VALKEY_PASSWORD"`
}

// CorsConfig specifies the allow-list applied to the random-fact route.
// Every other route answers with a wildcard origin.
type CorsConfig struct {
	FactAllowedOrigins []string `env:"CORS_FACT_ALLOWED_ORIGINS"`
}

type LastfmConfig struct {
	APIURL string // internal only
	APIKey string `env:"LASTFM_API_KEY, required"`
}

type SpotifyConfig struct {
	AccountsURL string // internal only
	APIURL      string // internal only

	ClientID     string `env:"SPOTIFY_CLIENT_ID, required"`
	ClientSecret string `env:"SPOTIFY_CLIENT_SECRET, required"`
	RefreshToken string `env:"SPOTIFY_REFRESH_TOKEN, required"`
}

type OpenAIConfig struct {
	APIURL string // internal only
	APIKey string `env:"OPENAI_API_KEY, required"`
	Model  string `env:"OPENAI_MODEL, default=gpt-4o-mini"`
}

type PerplexityConfig struct {
	APIURL string // internal only
	APIKey string `env:"PERPLEXITY_API_KEY, required"`
	Model  string `env:"PERPLEXITY_MODEL, default=sonar"`
}

type DiscogsConfig struct {
	APIURL string // internal only
	Token  string `env:"DISCOGS_TOKEN, required"`
}

type ObserveConfig struct {
	SDKLogLevel               string `env:"OBSERVE_OTEL_LOG_LEVEL, default=info"`
	Enabled                   bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled            bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                      string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName               string `env:"OBSERVE_SERVICE_NAME, default=discolens-bridge"`
	TraceBatchTimeoutSeconds  int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled      bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Cache.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid cache configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if c.Type == "valkey" && c.Valkey.Address == "" {
		return fmt.Errorf("VALKEY_ADDRESS required when CACHE_TYPE=valkey")
	}

	if c.FactMaxEntries < 1 {
		return fmt.Errorf("CACHE_FACT_MAX_ENTRIES must be at least 1")
	}

	return nil
}
