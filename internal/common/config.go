package common

import (
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/bg-batch/constants"
)

// Remover modes.
const (
	RemoverModeCLI  = "cli"
	RemoverModeHTTP = "http"
)

// Config holds all run-wide configuration. It is built once at start-up and
// never mutated while a batch is running.
type Config struct {
	InputDir        string
	OutputDir       string
	Workers         int
	Quality         int
	Format          constants.OutputFormat
	SolidBackground bool
	ForceBackground bool
	BackgroundColor string

	Remover RemoverConfig
	Ledger  LedgerConfig

	ReportPath string
	RunLock    bool
	LogLevel   string
}

// RemoverConfig holds background-removal collaborator configuration
type RemoverConfig struct {
	Mode    string // cli | http
	Binary  string
	Model   string
	URL     string
	Timeout time.Duration // 0 = no client timeout
}

// LedgerConfig holds run ledger configuration
type LedgerConfig struct {
	DSN             string // empty disables the ledger
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// Enabled reports whether a ledger DSN was configured.
func (l LedgerConfig) Enabled() bool {
	return strings.TrimSpace(l.DSN) != ""
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		InputDir:        getEnv("INPUT_DIR", "input"),
		OutputDir:       getEnv("OUTPUT_DIR", "output"),
		Workers:         getEnvAsInt("MAX_WORKERS", 4),
		Quality:         getEnvAsInt("OUTPUT_QUALITY", 95),
		Format:          constants.OutputFormat(strings.ToUpper(getEnv("OUTPUT_FORMAT", string(constants.FormatJPEG)))),
		SolidBackground: getEnvAsBool("SOLID_BACKGROUND", true),
		ForceBackground: getEnvAsBool("FORCE_BACKGROUND", false),
		BackgroundColor: getEnv("BACKGROUND_COLOR", "#000000"),
		Remover: RemoverConfig{
			Mode:    getEnv("REMBG_MODE", RemoverModeCLI),
			Binary:  getEnv("REMBG_BIN", "rembg"),
			Model:   getEnv("REMBG_MODEL", ""),
			URL:     getEnv("REMBG_URL", "http://127.0.0.1:7000"),
			Timeout: getEnvAsDuration("REMBG_TIMEOUT", 0),
		},
		Ledger: LedgerConfig{
			DSN:             getEnv("LEDGER_DSN", ""),
			MaxConns:        getEnvAsInt32("LEDGER_MAX_CONNS", 4),
			MinConns:        getEnvAsInt32("LEDGER_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("LEDGER_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("LEDGER_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("LEDGER_DIAL_TIMEOUT", 3*time.Second),
		},
		ReportPath: getEnv("REPORT_PATH", ""),
		RunLock:    getEnvAsBool("RUN_LOCK", true),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// NeedsComposite reports whether outputs get flattened onto BackgroundColor.
// Formats that keep transparency are only flattened when ForceBackground is set.
func (c *Config) NeedsComposite() bool {
	if !c.SolidBackground {
		return false
	}
	return !c.Format.SupportsAlpha() || c.ForceBackground
}

// Background returns the parsed BackgroundColor, black if it does not parse.
func (c *Config) Background() color.NRGBA {
	bg, err := ParseHexColor(c.BackgroundColor)
	if err != nil {
		return color.NRGBA{A: 0xff}
	}
	return bg
}

// Validate validates the loaded configuration and normalizes the output format name.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("input_dir", c.InputDir, Required).
		Field("output_dir", c.OutputDir, Required).
		Field("workers", c.Workers, AtLeast(1)).
		Field("quality", c.Quality, Between(1, 100)).
		Field("background_color", c.BackgroundColor, HexColor).
		Field("rembg_mode", c.Remover.Mode, OneOf(RemoverModeCLI, RemoverModeHTTP)).
		Field("log_level", strings.ToLower(c.LogLevel), OneOf("debug", "info", "warn", "error"))

	switch c.Remover.Mode {
	case RemoverModeCLI:
		v.Field("rembg_bin", c.Remover.Binary, Required)
	case RemoverModeHTTP:
		v.Field("rembg_url", c.Remover.URL, Required)
	}

	format, err := constants.ParseFormat(string(c.Format))
	if err != nil {
		v.errors = append(v.errors, ValidationError{Field: "output_format", Value: c.Format, Message: err.Error()})
	} else {
		c.Format = format
	}

	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
