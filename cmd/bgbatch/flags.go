package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/joseph-ayodele/bg-batch/constants"
	"github.com/joseph-ayodele/bg-batch/internal/common"
)

// parseFlags layers configuration as env (already in cfg) < -config file < explicit flags.
func parseFlags(args []string, cfg *common.Config, stderr io.Writer) error {
	fs := flag.NewFlagSet("bgbatch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fc := *cfg
	format := string(cfg.Format)
	var configPath string

	fs.StringVar(&configPath, "config", "", "JSON config file (validated against the embedded schema)")
	fs.StringVar(&fc.InputDir, "input", cfg.InputDir, "directory to read images from")
	fs.StringVar(&fc.OutputDir, "output", cfg.OutputDir, "directory to write numbered outputs to")
	fs.IntVar(&fc.Workers, "workers", cfg.Workers, "number of concurrent workers")
	fs.IntVar(&fc.Quality, "quality", cfg.Quality, "encoder quality for JPEG/WEBP (1-100)")
	fs.StringVar(&format, "format", format, "output format: "+strings.Join(constants.FormatNames(), ", "))
	fs.BoolVar(&fc.SolidBackground, "solid-background", cfg.SolidBackground, "flatten onto a solid colour when the format has no alpha")
	fs.BoolVar(&fc.ForceBackground, "force-background", cfg.ForceBackground, "flatten even when the format supports alpha")
	fs.StringVar(&fc.BackgroundColor, "bg-color", cfg.BackgroundColor, "background colour (#rgb, #rrggbb, black, white)")
	fs.StringVar(&fc.Remover.Mode, "rembg-mode", cfg.Remover.Mode, "background remover: cli or http")
	fs.StringVar(&fc.Remover.Binary, "rembg-bin", cfg.Remover.Binary, "rembg executable for cli mode")
	fs.StringVar(&fc.Remover.Model, "rembg-model", cfg.Remover.Model, "rembg model name (empty = rembg default)")
	fs.StringVar(&fc.Remover.URL, "rembg-url", cfg.Remover.URL, "rembg server base URL for http mode")
	fs.DurationVar(&fc.Remover.Timeout, "rembg-timeout", cfg.Remover.Timeout, "per-request timeout for http mode (0 = none)")
	fs.StringVar(&fc.Ledger.DSN, "ledger", cfg.Ledger.DSN, "run ledger DSN: postgres:// URL or SQLite file path (empty = off)")
	fs.StringVar(&fc.ReportPath, "report", cfg.ReportPath, "write an XLSX run report to this path")
	fs.BoolVar(&fc.RunLock, "lock", cfg.RunLock, "hold a lock file in the output directory while running")
	fs.StringVar(&fc.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if configPath != "" {
		if err := common.LoadFile(configPath, cfg); err != nil {
			return err
		}
	}

	fc.Format = constants.OutputFormat(format)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputDir = fc.InputDir
		case "output":
			cfg.OutputDir = fc.OutputDir
		case "workers":
			cfg.Workers = fc.Workers
		case "quality":
			cfg.Quality = fc.Quality
		case "format":
			cfg.Format = fc.Format
		case "solid-background":
			cfg.SolidBackground = fc.SolidBackground
		case "force-background":
			cfg.ForceBackground = fc.ForceBackground
		case "bg-color":
			cfg.BackgroundColor = fc.BackgroundColor
		case "rembg-mode":
			cfg.Remover.Mode = fc.Remover.Mode
		case "rembg-bin":
			cfg.Remover.Binary = fc.Remover.Binary
		case "rembg-model":
			cfg.Remover.Model = fc.Remover.Model
		case "rembg-url":
			cfg.Remover.URL = fc.Remover.URL
		case "rembg-timeout":
			cfg.Remover.Timeout = fc.Remover.Timeout
		case "ledger":
			cfg.Ledger.DSN = fc.Ledger.DSN
		case "report":
			cfg.ReportPath = fc.ReportPath
		case "lock":
			cfg.RunLock = fc.RunLock
		case "log-level":
			cfg.LogLevel = fc.LogLevel
		}
	})
	return nil
}
