package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration, loaded from the environment.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Env         string `envconfig:"ENV" default:"development"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	CORSAllowOrigin []string `envconfig:"CORS_ALLOW_ORIGIN" default:"http://localhost:5173"`
	MaxUploadBytes  int64    `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	BlobStore    string `envconfig:"BLOB_STORE" default:"local"`
	BlobLocalDir string `envconfig:"BLOB_LOCAL_DIR" default:"."`
	AWSRegion    string `envconfig:"AWS_REGION"`
	S3Bucket     string `envconfig:"BLOB_S3_BUCKET"`
	S3Prefix     string `envconfig:"BLOB_S3_PREFIX"`

	AMQPURL     string `envconfig:"AMQP_URL"`
	VerifyQueue string `envconfig:"VERIFY_QUEUE" default:"check_course_queue"`

	DispatchMaxAttempts  int           `envconfig:"DISPATCH_MAX_ATTEMPTS" default:"10"`
	DispatchStartBackoff time.Duration `envconfig:"DISPATCH_START_BACKOFF" default:"1s"`
	DispatchStepBackoff  time.Duration `envconfig:"DISPATCH_STEP_BACKOFF" default:"1s"`
	DispatchMaxBackoff   time.Duration `envconfig:"DISPATCH_MAX_BACKOFF" default:"20s"`
	PollInterval         time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	PollTimeout          time.Duration `envconfig:"POLL_TIMEOUT" default:"10m"`

	StuckAfter    time.Duration `envconfig:"STUCK_AFTER" default:"30m"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`

	IconWidth  int `envconfig:"ICON_WIDTH" default:"100"`
	IconHeight int `envconfig:"ICON_HEIGHT" default:"100"`
}

// Load reads configuration from .env files (best effort) and the environment.
func Load() (Config, error) {
	loadEnvFiles(".env.local", ".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)

	if cfg.Env == "production" && strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required in production")
	}
	if cfg.BlobStore == "s3" && strings.TrimSpace(cfg.S3Bucket) == "" {
		return Config{}, fmt.Errorf("BLOB_STORE=s3 requires BLOB_S3_BUCKET")
	}
	return cfg, nil
}

// IsDevLike reports whether the environment tolerates missing external deps.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "development":
		return true
	default:
		return false
	}
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "development"
	}
}
