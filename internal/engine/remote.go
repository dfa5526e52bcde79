package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/MeKo-Tech/idscan/internal/extraction"
)

// remoteResponse is the wire format of external recognizer services, such as
// the handwritten-text model this system delegates to.
type remoteResponse struct {
	Detections []struct {
		Text string `json:"text"`
		Box  struct {
			X int `json:"x"`
			Y int `json:"y"`
			W int `json:"w"`
			H int `json:"h"`
		} `json:"box"`
		Confidence float64 `json:"confidence"`
	} `json:"detections"`
}

// RemoteEngine calls an external OCR service over HTTP. The service receives
// the page as PNG and returns detections with 0-1 confidences.
type RemoteEngine struct {
	id         string
	capability Capability
	endpoint   string
	client     *http.Client
}

// NewRemote creates a remote engine client. A zero timeout defaults to 30s.
func NewRemote(id string, capability Capability, endpoint string, timeout time.Duration) *RemoteEngine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteEngine{
		id:         id,
		capability: capability,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
	}
}

func (e *RemoteEngine) ID() string             { return e.id }
func (e *RemoteEngine) Capability() Capability { return e.capability }
func (e *RemoteEngine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// Detect posts the image to the remote service and maps its response into
// detections tagged with this engine's id.
func (e *RemoteEngine) Detect(ctx context.Context, img image.Image, pageIndex int) ([]extraction.Detection, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding image for %s: %w", e.id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", e.id, err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", e.id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s returned status %d: %s", e.id, resp.StatusCode, string(body))
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", e.id, err)
	}

	detections := make([]extraction.Detection, 0, len(parsed.Detections))
	for _, d := range parsed.Detections {
		if d.Text == "" {
			continue
		}
		detections = append(detections, extraction.Detection{
			Text:          d.Text,
			Box:           extraction.BoundingBox{X: d.Box.X, Y: d.Box.Y, W: d.Box.W, H: d.Box.H},
			RawConfidence: d.Confidence,
			EngineID:      e.id,
			PageIndex:     pageIndex,
		})
	}
	return detections, nil
}
