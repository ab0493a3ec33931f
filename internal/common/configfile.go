package common

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/bg-batch/constants"
)

//go:embed config.schema.json
var configSchemaJSON string

var configSchema = jsonschema.MustCompileString("config.schema.json", configSchemaJSON)

// fileConfig mirrors config.schema.json; nil fields leave the current value untouched.
type fileConfig struct {
	InputDir        *string `json:"input_dir"`
	OutputDir       *string `json:"output_dir"`
	Workers         *int    `json:"workers"`
	Quality         *int    `json:"quality"`
	OutputFormat    *string `json:"output_format"`
	SolidBackground *bool   `json:"solid_background"`
	ForceBackground *bool   `json:"force_background"`
	BackgroundColor *string `json:"background_color"`
	Rembg           *struct {
		Mode    *string `json:"mode"`
		Binary  *string `json:"binary"`
		Model   *string `json:"model"`
		URL     *string `json:"url"`
		Timeout *string `json:"timeout"`
	} `json:"rembg"`
	LedgerDSN  *string `json:"ledger_dsn"`
	ReportPath *string `json:"report_path"`
	RunLock    *bool   `json:"run_lock"`
	LogLevel   *string `json:"log_level"`
}

// LoadFile overlays a JSON config file onto cfg after validating it against the embedded schema.
func LoadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("read config file %s", path), err)
	}
	return ApplyJSON(raw, cfg)
}

// ApplyJSON validates raw against the config schema and overlays the values present onto cfg.
func ApplyJSON(raw []byte, cfg *Config) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return NewAppError("CONFIG_ERROR", "config file is not valid JSON", err)
	}
	if err := configSchema.Validate(doc); err != nil {
		return NewAppError("CONFIG_ERROR", "config file does not match schema", fmt.Errorf("%w: %v", ErrValidation, err))
	}

	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return NewAppError("CONFIG_ERROR", "decode config file", err)
	}

	setString(&cfg.InputDir, fc.InputDir)
	setString(&cfg.OutputDir, fc.OutputDir)
	setInt(&cfg.Workers, fc.Workers)
	setInt(&cfg.Quality, fc.Quality)
	if fc.OutputFormat != nil {
		cfg.Format = constants.OutputFormat(strings.ToUpper(*fc.OutputFormat))
	}
	setBool(&cfg.SolidBackground, fc.SolidBackground)
	setBool(&cfg.ForceBackground, fc.ForceBackground)
	setString(&cfg.BackgroundColor, fc.BackgroundColor)
	if r := fc.Rembg; r != nil {
		setString(&cfg.Remover.Mode, r.Mode)
		setString(&cfg.Remover.Binary, r.Binary)
		setString(&cfg.Remover.Model, r.Model)
		setString(&cfg.Remover.URL, r.URL)
		if r.Timeout != nil {
			d, err := time.ParseDuration(*r.Timeout)
			if err != nil {
				return NewAppError("CONFIG_ERROR", "rembg.timeout", err)
			}
			cfg.Remover.Timeout = d
		}
	}
	setString(&cfg.Ledger.DSN, fc.LedgerDSN)
	setString(&cfg.ReportPath, fc.ReportPath)
	setBool(&cfg.RunLock, fc.RunLock)
	setString(&cfg.LogLevel, fc.LogLevel)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
