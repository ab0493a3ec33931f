// Package rembg talks to the background-removal engine. The engine is opaque: it
// receives encoded image bytes and returns encoded image bytes (PNG with alpha) of
// the same dimensions with the background made transparent.
package rembg

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/bg-batch/internal/common"
)

// Remover removes the background from an encoded image.
type Remover interface {
	Remove(ctx context.Context, raw []byte) ([]byte, error)
}

// RemoverFunc adapts a plain function to Remover.
type RemoverFunc func(ctx context.Context, raw []byte) ([]byte, error)

func (f RemoverFunc) Remove(ctx context.Context, raw []byte) ([]byte, error) {
	return f(ctx, raw)
}

// New builds the Remover selected by cfg.Mode.
func New(cfg common.RemoverConfig, logger *slog.Logger) (Remover, error) {
	switch cfg.Mode {
	case common.RemoverModeCLI:
		return NewCLIRemover(cfg.Binary, cfg.Model, logger), nil
	case common.RemoverModeHTTP:
		return NewHTTPRemover(cfg.URL, cfg.Model, &http.Client{Timeout: cfg.Timeout}, logger), nil
	default:
		return nil, fmt.Errorf("unknown remover mode %q", cfg.Mode)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
