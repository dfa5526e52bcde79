package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/idscan/internal/input"
	"github.com/MeKo-Tech/idscan/internal/pipeline"
	"github.com/MeKo-Tech/idscan/internal/quality"
	"github.com/MeKo-Tech/idscan/internal/verify"
	"github.com/MeKo-Tech/idscan/internal/version"
)

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// enginesHandler handles GET /engines.
func (s *Server) enginesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ids := s.pipeline.Engines()
	writeJSON(w, http.StatusOK, EnginesResponse{
		Engines: ids,
		Count:   len(ids),
		Info:    s.pipeline.Info(),
	})
}

// extractHandler handles POST /extract: a multipart upload with a "file"
// part (image or PDF), an optional "reference" JSON part for inline
// verification, an optional "corrections" JSON part, and "pages" for PDFs.
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	if input.IsPDF(header.Filename) {
		s.extractPDF(w, r, file, header)
		return
	}
	s.extractImage(w, r, file)
}

func (s *Server) extractImage(w http.ResponseWriter, r *http.Request, file multipart.File) {
	img, _, err := input.DecodeImage(file)
	if err != nil {
		extractionRequestsTotal.WithLabelValues("image", "error").Inc()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding image: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.Process(ctx, img)
	extractionDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrAllEnginesFailed) {
			status = http.StatusUnprocessableEntity
		}
		extractionRequestsTotal.WithLabelValues("image", "error").Inc()
		writeJSON(w, status, ExtractResponse{Success: false, Result: res, Error: err.Error()})
		return
	}

	if res.NeedsRecapture() {
		extractionRequestsTotal.WithLabelValues("image", "recapture").Inc()
		qualityGateDecisions.WithLabelValues(string(res.QualityDecision)).Inc()
		writeJSON(w, http.StatusOK, ExtractResponse{Success: true, Result: res})
		return
	}
	if res.QualityDecision != "" {
		qualityGateDecisions.WithLabelValues(string(res.QualityDecision)).Inc()
	}
	extractionRequestsTotal.WithLabelValues("image", "success").Inc()
	extractionFieldCount.WithLabelValues("image").Observe(float64(len(res.Fields)))

	if corrections, err := jsonMapFormValue(r, "corrections"); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing corrections: %v", err))
		return
	} else if corrections != nil {
		s.pipeline.ApplyCorrections(res, corrections)
	}

	resp := ExtractResponse{Success: true, Result: res}
	reference, err := jsonMapFormValue(r, "reference")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing reference: %v", err))
		return
	}
	if reference != nil {
		report := verify.Verify(res.ExtractedFields, reference, s.pipeline.Catalog())
		verificationRequestsTotal.WithLabelValues(string(report.OverallStatus)).Inc()
		resp.Verification = &report
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) extractPDF(w http.ResponseWriter, r *http.Request, file multipart.File, header *multipart.FileHeader) {
	// pdfcpu wants a file on disk
	tmp, err := os.CreateTemp("", "idscan-upload-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storing upload failed")
		return
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		writeError(w, http.StatusInternalServerError, "storing upload failed")
		return
	}
	if err := tmp.Close(); err != nil {
		writeError(w, http.StatusInternalServerError, "storing upload failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.ProcessPDF(ctx, tmpName, r.FormValue("pages"))
	extractionDuration.WithLabelValues("pdf").Observe(time.Since(start).Seconds())
	if err != nil {
		extractionRequestsTotal.WithLabelValues("pdf", "error").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, ExtractResponse{Success: false, Error: err.Error()})
		return
	}
	if res != nil {
		res.Filename = filepath.Base(header.Filename)
	}

	extractionRequestsTotal.WithLabelValues("pdf", "success").Inc()
	for _, page := range res.Pages {
		extractionFieldCount.WithLabelValues("pdf").Observe(float64(len(page.Fields)))
	}
	writeJSON(w, http.StatusOK, ExtractResponse{Success: true, PDF: res})
}

// verifyHandler handles POST /verify with extracted and reference field maps.
func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing request: %v", err))
		return
	}
	if len(req.Extracted) == 0 && len(req.Reference) == 0 {
		writeError(w, http.StatusBadRequest, "extracted and reference are both empty")
		return
	}

	report := verify.Verify(req.Extracted, req.Reference, s.pipeline.Catalog())
	verificationRequestsTotal.WithLabelValues(string(report.OverallStatus)).Inc()
	writeJSON(w, http.StatusOK, VerifyResponse{Success: true, Report: &report})
}

// qualityHandler handles POST /quality: image upload in, quality report and
// gate decision out. No OCR runs.
func (s *Server) qualityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	img, _, err := input.DecodeImage(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding image: %v", err))
		return
	}

	report := quality.Analyze(img)
	gate := quality.Gate(report, s.pipeline.Config().QualityThreshold)
	qualityGateDecisions.WithLabelValues(string(gate.Decision)).Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"report":   report,
		"decision": gate.Decision,
		"warnings": gate.Warnings,
	})
}

func jsonMapFormValue(r *http.Request, field string) (map[string]string, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
