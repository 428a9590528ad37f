package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

const (
	detectEndpoint = "/detect"
	healthEndpoint = "/"

	// maxErrorBody caps how much of a failed response is quoted in errors.
	maxErrorBody = 512
)

// detectResponse is the body returned by POST /detect.
type detectResponse struct {
	Count          int    `json:"count"`
	AnnotatedImage string `json:"annotated_image,omitempty"`
}

// Detector implements ports.Detector against the phone-detection backend.
type Detector struct {
	client     ports.HTTPClient
	baseURL    string
	confidence float64
	logger     ports.Logger
}

// NewDetector creates a detector client for the backend at baseURL.
func NewDetector(client ports.HTTPClient, baseURL string, confidence float64, logger ports.Logger) *Detector {
	return &Detector{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		confidence: confidence,
		logger:     logger,
	}
}

// Detect uploads one JPEG frame and returns the backend's verdict.
func (d *Detector) Detect(ctx context.Context, jpeg []byte) (domain.Detection, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	filePart, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return domain.Detection{}, fmt.Errorf("create file field: %w", err)
	}
	if _, err := filePart.Write(jpeg); err != nil {
		return domain.Detection{}, fmt.Errorf("write frame: %w", err)
	}

	if err := writer.WriteField("confidence", strconv.FormatFloat(d.confidence, 'f', -1, 64)); err != nil {
		return domain.Detection{}, fmt.Errorf("write confidence: %w", err)
	}

	if err := writer.Close(); err != nil {
		return domain.Detection{}, fmt.Errorf("finalize multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+detectEndpoint, &body)
	if err != nil {
		return domain.Detection{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Request-Id", uuid.NewString())

	var out detectResponse
	if err := d.do(req, &out); err != nil {
		return domain.Detection{}, err
	}

	det := domain.Detection{Count: out.Count}
	if out.AnnotatedImage != "" {
		img, err := base64.StdEncoding.DecodeString(out.AnnotatedImage)
		if err != nil {
			// The verdict is still usable without the debug image.
			d.logger.Warn("annotated image is not valid base64", ports.Err(err))
		} else {
			det.Annotated = img
		}
	}
	return det, nil
}

// Health reports whether the backend is up and has its model loaded.
func (d *Detector) Health(ctx context.Context) (domain.Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+healthEndpoint, nil)
	if err != nil {
		return domain.Health{}, fmt.Errorf("create request: %w", err)
	}

	var out domain.Health
	if err := d.do(req, &out); err != nil {
		return domain.Health{}, err
	}
	return out, nil
}

func (d *Detector) do(req *http.Request, out any) error {
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: server returned %d: %s", domain.ErrBackendOffline, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

var _ ports.Detector = (*Detector)(nil)
