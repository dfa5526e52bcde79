package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/idscan/internal/verify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Capture UIs connect from arbitrary origins; CORS policy is applied
		// on the HTTP endpoints.
		return true
	},
}

// wsExtractRequest is an extraction request over WebSocket. Image bytes are
// base64 in JSON per encoding/json []byte handling.
type wsExtractRequest struct {
	Type      string            `json:"type"` // "extract"
	Image     []byte            `json:"image"`
	Reference map[string]string `json:"reference,omitempty"`
}

// wsExtractResponse is a progress or terminal message for one request.
type wsExtractResponse struct {
	Type         string         `json:"type"`
	Status       string         `json:"status"` // "processing", "completed", "error"
	Progress     float64        `json:"progress,omitempty"`
	Result       any            `json:"result,omitempty"`
	Verification *verify.Report `json:"verification,omitempty"`
	Error        string         `json:"error,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
}

// wsConnWriter abstracts the connection for tests.
type wsConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// extractWebSocketHandler upgrades the connection and serves extraction
// requests with progress updates.
func (s *Server) extractWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("websocket connection established", "remote", r.RemoteAddr)
	s.serveWebSocket(r.Context(), conn)
}

func (s *Server) serveWebSocket(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// keepalive pings
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("websocket read failed", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

func (s *Server) handleWebSocketMessage(ctx context.Context, conn *websocket.Conn, data []byte) {
	var req wsExtractRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", fmt.Sprintf("parsing request: %v", err))
		return
	}
	if req.Type != "extract" {
		s.sendWebSocketError(conn, "", "unsupported request type: "+req.Type)
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)
	s.sendWebSocketResponse(conn, wsExtractResponse{
		Type: "extract_response", Status: "processing", Progress: 0.0, RequestID: requestID,
	})

	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, requestID, "no image data provided")
		return
	}
	img, _, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		s.sendWebSocketError(conn, requestID, fmt.Sprintf("decoding image: %v", err))
		return
	}

	s.sendWebSocketResponse(conn, wsExtractResponse{
		Type: "extract_response", Status: "processing", Progress: 0.5, RequestID: requestID,
	})

	procCtx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.Process(procCtx, img)
	extractionDuration.WithLabelValues("websocket_image").Observe(time.Since(start).Seconds())
	if err != nil {
		extractionRequestsTotal.WithLabelValues("websocket_image", "error").Inc()
		s.sendWebSocketError(conn, requestID, fmt.Sprintf("extraction failed: %v", err))
		return
	}
	extractionRequestsTotal.WithLabelValues("websocket_image", "success").Inc()
	extractionFieldCount.WithLabelValues("websocket_image").Observe(float64(len(res.Fields)))

	resp := wsExtractResponse{
		Type: "extract_response", Status: "completed", Progress: 1.0,
		Result: res, RequestID: requestID,
	}
	if len(req.Reference) > 0 && !res.NeedsRecapture() {
		report := verify.Verify(res.ExtractedFields, req.Reference, s.pipeline.Catalog())
		verificationRequestsTotal.WithLabelValues(string(report.OverallStatus)).Inc()
		resp.Verification = &report
	}
	s.sendWebSocketResponse(conn, resp)
}

func (s *Server) sendWebSocketResponse(conn wsConnWriter, resp wsExtractResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshaling websocket response failed", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("writing websocket message failed", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (s *Server) sendWebSocketError(conn wsConnWriter, requestID, message string) {
	s.sendWebSocketResponse(conn, wsExtractResponse{
		Type: "error", Status: "error", Error: message, RequestID: requestID,
	})
}
