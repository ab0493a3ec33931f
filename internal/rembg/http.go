package rembg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HTTPRemover calls a rembg server (`rembg s`): POST {baseURL}/api/remove with the
// image in the multipart field "file"; the response body is the cut-out PNG.
type HTTPRemover struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

func NewHTTPRemover(baseURL, model string, client *http.Client, logger *slog.Logger) *HTTPRemover {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPRemover{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/remove",
		model:    model,
		client:   client,
		logger:   logger,
	}
}

func (h *HTTPRemover) Remove(ctx context.Context, raw []byte) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "image")
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(raw); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if h.model != "" {
		if err := mw.WriteField("model", h.model); err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, &body)
	if err != nil {
		h.logger.Error("rembg.http.build_request_error", "req_id", reqID, "error", err)
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	h.logger.Debug("rembg.http.request",
		"req_id", reqID,
		"url", h.endpoint,
		"content_length", body.Len(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("rembg.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			h.logger.Warn("rembg.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	h.logger.Debug("rembg.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("rembg server returned %d: %s", resp.StatusCode, strings.TrimSpace(truncate(string(out), 512)))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rembg server returned an empty body")
	}
	return out, nil
}
