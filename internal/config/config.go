package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultIndicatorsBaseURL = "https://www.inegi.org.mx/app/api/indicadores/desarrolladores/jsonxml"
	DefaultDenueBaseURL      = "https://www.inegi.org.mx/app/api/denue/v1/consulta"

	DefaultLanguage   = "es"
	DefaultSource     = "BISE"
	DefaultAPIVersion = "2.0"

	DefaultTimeoutSeconds = 30

	// DENUE caps BuscarAreaAct at 1000 records per request.
	DefaultMaxPageSize = 1000
	// Documented DENUE maximum search radius, in meters.
	DefaultMaxRadiusMeters = 5000

	DefaultHost = "127.0.0.1"
	DefaultPort = 18830

	DefaultHealthSchedule = "@every 15m"
)

type Config struct {
	Indicators IndicatorsConfig `json:"indicators"`
	Denue      DenueConfig      `json:"denue"`
	HTTP       HTTPConfig       `json:"http"`
	Server     ServerConfig     `json:"server"`
	Health     HealthConfig     `json:"health"`
}

type IndicatorsConfig struct {
	BaseURL  string `json:"baseUrl"`
	Token    string `json:"token"`
	Language string `json:"language"`
	Source   string `json:"source"`
	Version  string `json:"version"`
}

type DenueConfig struct {
	BaseURL         string `json:"baseUrl"`
	Token           string `json:"token"`
	MaxPageSize     int    `json:"maxPageSize"`
	MaxRadiusMeters int    `json:"maxRadiusMeters"`
}

type HTTPConfig struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type HealthConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Indicators: IndicatorsConfig{
			BaseURL:  DefaultIndicatorsBaseURL,
			Language: DefaultLanguage,
			Source:   DefaultSource,
			Version:  DefaultAPIVersion,
		},
		Denue: DenueConfig{
			BaseURL:         DefaultDenueBaseURL,
			MaxPageSize:     DefaultMaxPageSize,
			MaxRadiusMeters: DefaultMaxRadiusMeters,
		},
		HTTP: HTTPConfig{TimeoutSeconds: DefaultTimeoutSeconds},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Health: HealthConfig{
			Enabled:  false,
			Schedule: DefaultHealthSchedule,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".inegimcp")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// LoadConfig layers, in order: defaults, the config file, a .env file
// in the working directory, and process environment variables. Tokens
// normally arrive through INEGI_INDICADORES_TOKEN / INEGI_DENUE_TOKEN.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; existing process env wins over it.
	_ = godotenv.Load()

	if token := os.Getenv("INEGI_INDICADORES_TOKEN"); token != "" {
		cfg.Indicators.Token = token
	}
	if token := os.Getenv("INEGI_DENUE_TOKEN"); token != "" {
		cfg.Denue.Token = token
	}
	// Legacy single-token setups used INEGI_TOKEN for the DENUE.
	if token := os.Getenv("INEGI_TOKEN"); token != "" && cfg.Denue.Token == "" {
		cfg.Denue.Token = token
	}
	if url := os.Getenv("INEGIMCP_INDICATORS_BASE_URL"); url != "" {
		cfg.Indicators.BaseURL = url
	}
	if url := os.Getenv("INEGIMCP_DENUE_BASE_URL"); url != "" {
		cfg.Denue.BaseURL = url
	}
	if lang := os.Getenv("INEGIMCP_LANGUAGE"); lang != "" {
		cfg.Indicators.Language = lang
	}
	if timeout := os.Getenv("INEGIMCP_TIMEOUT_SECONDS"); timeout != "" {
		if parsed, err := strconv.Atoi(timeout); err == nil && parsed > 0 {
			cfg.HTTP.TimeoutSeconds = parsed
		}
	}
	if enabled := os.Getenv("INEGIMCP_HEALTH_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			cfg.Health.Enabled = parsed
		}
	}

	if cfg.HTTP.TimeoutSeconds <= 0 {
		cfg.HTTP.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.Denue.MaxPageSize <= 0 {
		cfg.Denue.MaxPageSize = DefaultMaxPageSize
	}
	if cfg.Denue.MaxRadiusMeters <= 0 {
		cfg.Denue.MaxRadiusMeters = DefaultMaxRadiusMeters
	}
	if cfg.Indicators.Language == "" {
		cfg.Indicators.Language = DefaultLanguage
	}
	if cfg.Indicators.Source == "" {
		cfg.Indicators.Source = DefaultSource
	}
	if cfg.Indicators.Version == "" {
		cfg.Indicators.Version = DefaultAPIVersion
	}
	if cfg.Health.Schedule == "" {
		cfg.Health.Schedule = DefaultHealthSchedule
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
