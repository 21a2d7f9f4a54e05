package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/finder/server/timezone"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultOverpassURL  = "https://overpass-api.de/api/interpreter"
	DefaultUserAgent    = "finder/1.0 (+https://github.com/hrygo/finder)"
	DefaultAIBaseURL    = "https://api.openai.com/v1"
	DefaultAIModel      = "gpt-4o-mini"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where finder stores favorites, settings and chat history
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// Timezone is the IANA location "now" is resolved in for the open-now filter.
	Timezone string

	// OpenStreetMap endpoints
	NominatimURL string // FINDER_NOMINATIM_URL
	OverpassURL  string // FINDER_OVERPASS_URL
	UserAgent    string // FINDER_USER_AGENT, required by the Nominatim usage policy

	// AI Configuration
	AIEnabled     bool    // FINDER_AI_ENABLED
	AIBaseURL     string  // FINDER_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey      string  // FINDER_AI_API_KEY
	AIModel       string  // FINDER_AI_MODEL (default: gpt-4o-mini)
	AIMaxTokens   int     // FINDER_AI_MAX_TOKENS (default: 500)
	AITemperature float32 // FINDER_AI_TEMPERATURE (default: 0.7)

	// RedisAddr enables the shared L2 search cache when set.
	RedisAddr string // FINDER_CACHE_REDIS_ADDR
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and an API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from FINDER_* environment variables.
// Fields already set are only overwritten by non-empty variables.
func (p *Profile) FromEnv() {
	getInt := func(key string, defaultValue int) int {
		if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
			return n
		}
		return defaultValue
	}
	getFloat := func(key string, defaultValue float32) float32 {
		if f, err := strconv.ParseFloat(os.Getenv(key), 32); err == nil {
			return float32(f)
		}
		return defaultValue
	}

	p.Timezone = getEnvOrDefault("FINDER_TIMEZONE", orDefault(p.Timezone, "UTC"))
	p.NominatimURL = getEnvOrDefault("FINDER_NOMINATIM_URL", orDefault(p.NominatimURL, DefaultNominatimURL))
	p.OverpassURL = getEnvOrDefault("FINDER_OVERPASS_URL", orDefault(p.OverpassURL, DefaultOverpassURL))
	p.UserAgent = getEnvOrDefault("FINDER_USER_AGENT", orDefault(p.UserAgent, DefaultUserAgent))

	if v := os.Getenv("FINDER_AI_ENABLED"); v != "" {
		p.AIEnabled = v == "true"
	}
	p.AIBaseURL = getEnvOrDefault("FINDER_AI_BASE_URL", orDefault(p.AIBaseURL, DefaultAIBaseURL))
	p.AIAPIKey = getEnvOrDefault("FINDER_AI_API_KEY", p.AIAPIKey)
	p.AIModel = getEnvOrDefault("FINDER_AI_MODEL", orDefault(p.AIModel, DefaultAIModel))
	if p.AIMaxTokens == 0 {
		p.AIMaxTokens = 500
	}
	p.AIMaxTokens = getInt("FINDER_AI_MAX_TOKENS", p.AIMaxTokens)
	if p.AITemperature == 0 {
		p.AITemperature = 0.7
	}
	p.AITemperature = getFloat("FINDER_AI_TEMPERATURE", p.AITemperature)

	p.RedisAddr = getEnvOrDefault("FINDER_CACHE_REDIS_ADDR", p.RedisAddr)
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if !timezone.IsValidTimezone(p.Timezone) {
		return errors.Errorf("invalid timezone %q", p.Timezone)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "finder")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/finder"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("finder_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
