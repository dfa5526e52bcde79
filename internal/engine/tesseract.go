package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/idscan/internal/extraction"
)

// TesseractID is the registry id and the key for confidence scale lookup
// (Tesseract reports 0-100).
const TesseractID = "tesseract"

// TesseractEngine reads printed text through a local Tesseract installation.
// gosseract clients are not safe for concurrent use, so one is created per
// Detect call.
type TesseractEngine struct {
	languages []string
}

// NewTesseract creates a printed-text engine. Languages default to English.
func NewTesseract(languages ...string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages}
}

func (e *TesseractEngine) ID() string             { return TesseractID }
func (e *TesseractEngine) Capability() Capability { return CapabilityPrinted }
func (e *TesseractEngine) Close() error           { return nil }

// Detect runs Tesseract line detection over the image and maps text lines to
// detections with their native 0-100 confidences.
func (e *TesseractEngine) Detect(ctx context.Context, img image.Image, pageIndex int) ([]extraction.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding image for tesseract: %w", err)
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("setting tesseract languages: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("loading image into tesseract: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract detection: %w", err)
	}

	detections := make([]extraction.Detection, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		detections = append(detections, extraction.Detection{
			Text: text,
			Box: extraction.BoundingBox{
				X: box.Box.Min.X,
				Y: box.Box.Min.Y,
				W: box.Box.Dx(),
				H: box.Box.Dy(),
			},
			RawConfidence: box.Confidence,
			EngineID:      TesseractID,
			PageIndex:     pageIndex,
		})
	}
	return detections, nil
}
