package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/alog"
)

// EnvConfig holds settings taken only from the environment.
type EnvConfig struct {
	LogDir        string `envconfig:"LOGDIR"`
	LogTerm       string `envconfig:"LOGTERM"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	S3AccessKey   string `envconfig:"AIMLESS_S3_ACCESS_KEY"`
	S3SecretKey   string `envconfig:"AIMLESS_S3_SECRET_KEY"`
	DBPassword    string `envconfig:"AIMLESS_DB_PASSWORD"`
	RedisPassword string `envconfig:"AIMLESS_REDIS_PASSWORD"`
}

// LoadEnv reads an optional .env file, then the environment.
func LoadEnv(dotenv ...string) (*EnvConfig, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, aerr.Newf(aerr.CodeConfig, "loading .env: %w", err)
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, aerr.Newf(aerr.CodeConfig, "failed to load environment variables: %w", err)
	}

	var problems []string
	switch strings.ToLower(cfg.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, "LOG_LEVEL must be one of debug, info, warn, error")
	}
	if (cfg.S3AccessKey == "") != (cfg.S3SecretKey == "") {
		problems = append(problems, "AIMLESS_S3_ACCESS_KEY and AIMLESS_S3_SECRET_KEY must be set together")
	}
	if len(problems) > 0 {
		return nil, aerr.Newf(aerr.CodeConfig, "environment validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return &cfg, nil
}

// LogOptions maps the environment onto logger options. verbose forces
// debug output.
func (c *EnvConfig) LogOptions(verbose bool) alog.Options {
	level := alog.ParseLevel(c.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	return alog.Options{Level: level, Dir: c.LogDir, Terminal: c.LogTerm != ""}
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func (c *EnvConfig) Print(fmtr func(string, ...any)) {
	fmtr("Environment:\n")
	logTarget := "file"
	if c.LogTerm != "" {
		logTarget = "terminal"
	}
	fmtr("  Log: %s (level %s, dir %s)\n", logTarget, c.LogLevel, orUnset(c.LogDir))
	fmtr("  S3 access key: %s\n", MaskSecret(c.S3AccessKey))
	fmtr("  S3 secret key: %s\n", MaskSecret(c.S3SecretKey))
	fmtr("  DB password: %s\n", MaskSecret(c.DBPassword))
}

func orUnset(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}
