package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/windfall/spellcheck_service/internal/errors"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Blob backends.
const (
	BlobBackendR2     = "r2"
	BlobBackendGCS    = "gcs"
	BlobBackendMemory = "memory"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Host     string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"SERVER_HTTP_PORT" default:"8080"`

	Environment string `envconfig:"SERVER_ENV" default:"development"`

	// Timeouts. WriteTimeout covers a full convert + assess round trip.
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"75s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Storage
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	DatabaseName  string `envconfig:"DB_NAME"`
	BlobBackend   string `envconfig:"BLOB_BACKEND" default:"r2"`

	DatabaseMaxConns int32 `envconfig:"DB_MAX_CONNS" default:"10"`

	// Cloudflare R2
	CloudflareAccessKeyID string `envconfig:"CLOUDFLARE_ACCESS_KEY_ID"`
	CloudflareSecretKey   string `envconfig:"CLOUDFLARE_SECRET_ACCESS_KEY"`
	CloudflareR2Endpoint  string `envconfig:"CLOUDFLARE_R2_ENDPOINT"`
	CloudflareBucketName  string `envconfig:"CLOUDFLARE_BUCKET_NAME"`

	// Google Cloud Storage
	GCSBucketName      string `envconfig:"GCS_BUCKET_NAME"`
	GCSCredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE"`

	// Azure AI Speech
	AzureAISpeechKey    string `envconfig:"AZURE_AI_SPEECH_KEY"`
	AzureServiceRegion  string `envconfig:"AZURE_SERVICE_REGION"`
	AzureSpeechEndpoint string `envconfig:"AZURE_SPEECH_ENDPOINT"`
	SpeechLanguage      string `envconfig:"SPEECH_LANGUAGE" default:"en-US"`

	// Audio pipeline
	FFmpegPath     string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	AudioTempDir   string `envconfig:"AUDIO_TEMP_DIR"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	// Remote assessment tier
	AssessmentServiceURL string        `envconfig:"ASSESSMENT_SERVICE_URL"`
	AssessmentTimeout    time.Duration `envconfig:"ASSESSMENT_TIMEOUT" default:"60s"`

	// Sessions
	SessionSecret string        `envconfig:"SESSION_SECRET"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"72h"`

	// Redis
	RedisURL        string        `envconfig:"REDIS_URL"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"10m"`

	// Pub/Sub
	PubSubProjectID string `envconfig:"PUBSUB_PROJECT_ID"`
	PubSubTopic     string `envconfig:"PUBSUB_TOPIC"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`

	// Seed
	SeedSpellsFile string `envconfig:"SEED_SPELLS_FILE"`
	SeedDemoUsers  bool   `envconfig:"SEED_DEMO_USERS" default:"false"`

	// CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	CORSAllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	CORSAllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Accept,Authorization,Content-Type,X-Request-ID"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &cfg, nil
}

// HTTPAddress returns the HTTP server address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RemoteAssessment reports whether assessment runs in a separate deployment.
func (c *Config) RemoteAssessment() bool {
	return c.AssessmentServiceURL != ""
}

// ValidateStore checks the database and blob store settings.
func (c *Config) ValidateStore() error {
	var missing []string

	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StorageDriverMemory:
	default:
		return errors.Configuration(fmt.Sprintf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	switch c.BlobBackend {
	case BlobBackendR2:
		for key, val := range map[string]string{
			"CLOUDFLARE_ACCESS_KEY_ID":     c.CloudflareAccessKeyID,
			"CLOUDFLARE_SECRET_ACCESS_KEY": c.CloudflareSecretKey,
			"CLOUDFLARE_R2_ENDPOINT":       c.CloudflareR2Endpoint,
			"CLOUDFLARE_BUCKET_NAME":       c.CloudflareBucketName,
		} {
			if val == "" {
				missing = append(missing, key)
			}
		}
	case BlobBackendGCS:
		if c.GCSBucketName == "" {
			missing = append(missing, "GCS_BUCKET_NAME")
		}
	case BlobBackendMemory:
	default:
		return errors.Configuration(fmt.Sprintf("unknown BLOB_BACKEND %q", c.BlobBackend))
	}

	return missingErr(missing)
}

// ValidateSpeech checks the pronunciation-assessment provider credentials.
func (c *Config) ValidateSpeech() error {
	var missing []string
	if c.AzureAISpeechKey == "" {
		missing = append(missing, "AZURE_AI_SPEECH_KEY")
	}
	if c.AzureServiceRegion == "" && c.AzureSpeechEndpoint == "" {
		missing = append(missing, "AZURE_SERVICE_REGION")
	}
	return missingErr(missing)
}

// ValidateSession checks the session signing secret.
func (c *Config) ValidateSession() error {
	if c.SessionSecret == "" {
		return missingErr([]string{"SESSION_SECRET"})
	}
	return nil
}

func missingErr(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	// map iteration order is random; keep messages stable
	sort.Strings(keys)
	return errors.Configuration("missing required settings: " + strings.Join(keys, ", "))
}
