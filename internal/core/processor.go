package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/bg-batch/internal/common"
	"github.com/joseph-ayodele/bg-batch/internal/imagecodec"
	"github.com/joseph-ayodele/bg-batch/internal/ingest"
	"github.com/joseph-ayodele/bg-batch/internal/rembg"
)

// ErrOutputExists is returned when the assigned output name is already taken.
var ErrOutputExists = errors.New("output file already exists")

// Processor runs the full pipeline for a single file: remove background,
// optionally flatten, encode, write, then delete the source.
type Processor struct {
	logger  *slog.Logger
	remover rembg.Remover
	cfg     common.Config
}

func NewProcessor(logger *slog.Logger, remover rembg.Remover, cfg common.Config) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:  logger,
		remover: remover,
		cfg:     cfg,
	}
}

// ProcessOne handles one file under its pre-assigned output number. It never
// returns an error or panics: every failure becomes a failed Result, and the
// source file is only removed after the output was written.
func (p *Processor) ProcessOne(ctx context.Context, path string, number int) (res Result) {
	start := time.Now()
	src := filepath.Base(path)
	logger := common.LoggerFromContext(ctx, p.logger)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			logger.Error("processor.panic", "source", src, "number", number, "error", err)
			res = failed(src, res.Destination, number, time.Since(start), err)
			res.SourcePath = path
		}
	}()

	dst, err := p.process(ctx, path, number)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("processor.failed", "source", src, "number", number, "destination", dst, "error", err)
		res = failed(src, dst, number, elapsed, err)
	} else {
		logger.Debug("processor.ok", "source", src, "destination", dst, "elapsed_ms", elapsed.Milliseconds())
		res = succeeded(src, dst, number, elapsed)
	}
	res.SourcePath = path
	return res
}

// process returns the destination base name once something was written, so a
// failed source delete still reports where the output went.
func (p *Processor) process(ctx context.Context, path string, number int) (string, error) {
	// 1) read
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	// 2) background removal
	cut, err := p.remover.Remove(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("remove background: %w", err)
	}

	// 3) decode
	img, err := imagecodec.Decode(cut)
	if err != nil {
		return "", err
	}

	// 4) flatten onto the solid background when the format can't carry alpha (or forced)
	if p.cfg.NeedsComposite() {
		img = imagecodec.Composite(img, p.cfg.Background())
	}

	// 5) + 6) encode and write under the assigned name
	name := ingest.OutputName(number, p.cfg.Format)
	data, err := imagecodec.EncodeBytes(img, p.cfg.Format, p.cfg.Quality)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", p.cfg.Format, err)
	}
	if err := writeOutput(p.cfg.OutputDir, name, data); err != nil {
		return "", err
	}

	// 7) only now is the source expendable
	if err := os.Remove(path); err != nil {
		return name, fmt.Errorf("output %s written but source not removed: %w", name, err)
	}
	return name, nil
}

// writeOutput writes data to a hidden temp file in dir and hard-links it onto name.
// Link fails when name already exists, so an existing file is never replaced even
// if it appears while the temp file is being written.
func writeOutput(dir, name string, data []byte) error {
	final := filepath.Join(dir, name)
	if _, err := os.Lstat(final); err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, name)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat output: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return linkNoClobber(tmpName, final)
}

// linkNoClobber makes tmpName visible as final, failing with ErrOutputExists if final is taken.
func linkNoClobber(tmpName, final string) error {
	if err := os.Link(tmpName, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, filepath.Base(final))
		}
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
