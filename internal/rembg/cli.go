package rembg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// CLIRemover pipes images through the rembg command line: `rembg i [-m model] - -`.
type CLIRemover struct {
	binary string
	model  string
	runner Runner
	logger *slog.Logger
}

func NewCLIRemover(binary, model string, logger *slog.Logger) *CLIRemover {
	if logger == nil {
		logger = slog.Default()
	}
	if binary == "" {
		binary = "rembg"
	}
	return &CLIRemover{binary: binary, model: model, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner; used by tests.
func (c *CLIRemover) WithRunner(r Runner) *CLIRemover {
	c.runner = r
	return c
}

func (c *CLIRemover) Remove(ctx context.Context, raw []byte) ([]byte, error) {
	args := []string{"i"}
	if c.model != "" {
		args = append(args, "-m", c.model)
	}
	args = append(args, "-", "-")

	stdout, stderr, err := c.runner.Run(ctx, raw, c.binary, c.logger, args...)
	if err != nil {
		msg := strings.TrimSpace(truncate(string(stderr), 512))
		if msg == "" {
			return nil, fmt.Errorf("%s failed: %w", c.binary, err)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", c.binary, err, msg)
	}
	if len(stdout) == 0 {
		return nil, errors.New(c.binary + " produced no output")
	}
	return stdout, nil
}
