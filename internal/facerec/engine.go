package facerec

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Box is a face bounding box in [top, right, bottom, left] order, matching
// the engine's face-location convention.
type Box [4]int

// Detection is one face found in a frame: its location plus the encoding
// computed for it.
type Detection struct {
	Box      Box      `json:"box"`
	Encoding Encoding `json:"encoding"`
}

// Detector finds faces in a decoded image and computes their encodings.
// Implementations wrap the external face-recognition capability; the core
// never runs detection itself.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]Detection, error)
}

// HTTPEngine calls a face-recognition sidecar over HTTP.
type HTTPEngine struct {
	baseURL string
	http    *http.Client
}

// NewHTTPEngine creates an engine client with the given timeout.
func NewHTTPEngine(baseURL string, timeout time.Duration) *HTTPEngine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPEngine{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Detect submits the image and returns all detected faces with encodings.
// Face order follows the engine's detection order.
func (e *HTTPEngine) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	payload, _ := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(image),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/detect", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face engine request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face engine error %s: %s", resp.Status, string(body))
	}

	var out struct {
		Faces []Detection `json:"faces"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode face engine response: %w", err)
	}
	return out.Faces, nil
}
