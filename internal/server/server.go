// Package server provides HTTP and WebSocket handlers
package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/nfnt/resize"

	"github.com/GriffinCanCode/cardscan/internal/catalog"
	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/history"
	"github.com/GriffinCanCode/cardscan/internal/pipeline"
	"github.com/GriffinCanCode/cardscan/internal/trace"
)

// Scanner is the view of the pipeline the server needs.
type Scanner interface {
	Events() <-chan pipeline.Event
	Latest() (*pipeline.Event, uint64)
	Background() *image.RGBA
	Stats() pipeline.Stats
	Recent(window time.Duration) []history.Entry
	RequestReset()
	Catalog() *catalog.Catalog
}

// Message is the envelope every websocket message shares.
type Message struct {
	Type    string `json:"type"`
	TraceID string `json:"trace_id,omitempty"`
}

type MatchMessage struct {
	Type  string          `json:"type"`
	Event *pipeline.Event `json:"event"`
}

type StatsMessage struct {
	Type  string         `json:"type"`
	Stats pipeline.Stats `json:"stats"`
}

type AckMessage struct {
	Type    string `json:"type"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}
	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	scanner Scanner
	mu      sync.RWMutex
	conns   map[*websocket.Conn]*rateLimiter
}

// New creates a server and starts broadcasting scanner events.
func New(sc Scanner) *Server {
	s := &Server{
		scanner: sc,
		conns:   make(map[*websocket.Conn]*rateLimiter),
	}
	go s.broadcastMatches()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/latest", s.handleLatest)
	mux.HandleFunc("GET /api/card.png", s.handleCardImage)
	mux.HandleFunc("GET /api/background.png", s.handleBackgroundImage)
	mux.HandleFunc("POST /api/background/reset", s.handleReset)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/catalog/image", s.handleCatalogImage)

	// trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	rl := &rateLimiter{}
	s.mu.Lock()
	s.conns[conn] = rl
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// late joiners see the card currently on the table
	if ev, _ := s.scanner.Latest(); ev != nil {
		_ = wsjson.Write(baseCtx, conn, MatchMessage{Type: TypeMatch, Event: ev})
	}

	for {
		var raw json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &raw); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, ErrorMessage{Type: TypeError, Message: "rate limit exceeded"})
			continue
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = wsjson.Write(baseCtx, conn, ErrorMessage{Type: TypeError, Message: "malformed message"})
			continue
		}

		ctx := baseCtx
		if tc, ok := trace.ExtractFromJSON(raw); ok {
			ctx = trace.WithContext(ctx, tc)
		}
		s.handleMessage(ctx, conn, msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	log := trace.Logger(ctx)
	switch msg.Type {
	case TypeReset:
		log.Info("background reset requested over websocket")
		s.scanner.RequestReset()
		_ = wsjson.Write(ctx, conn, AckMessage{Type: TypeResetAck, TraceID: msg.TraceID})
	case TypeStats:
		_ = wsjson.Write(ctx, conn, StatsMessage{Type: TypeStats, Stats: s.scanner.Stats()})
	default:
		_ = wsjson.Write(ctx, conn, ErrorMessage{Type: TypeError, Message: "unknown message type " + msg.Type})
	}
}

func (s *Server) broadcastMatches() {
	for ev := range s.scanner.Events() {
		msg := MatchMessage{Type: TypeMatch, Event: &ev}

		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn) {
				ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
				defer cancel()
				_ = wsjson.Write(ctx, c, msg)
			}(conn)
		}
		s.mu.RUnlock()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.scanner.Stats()
	status := http.StatusOK
	if !st.Running {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"running": st.Running,
		"catalog": s.scanner.Catalog().Len(),
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	ev, _ := s.scanner.Latest()
	if ev == nil {
		writeError(w, r, apperrors.New(apperrors.NotFound, "no card recognised yet"))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleCardImage(w http.ResponseWriter, r *http.Request) {
	ev, _ := s.scanner.Latest()
	if ev == nil || ev.Card == nil {
		writeError(w, r, apperrors.New(apperrors.NotFound, "no card recognised yet"))
		return
	}
	writePNG(w, r, ev.Card)
}

func (s *Server) handleBackgroundImage(w http.ResponseWriter, r *http.Request) {
	bg := s.scanner.Background()
	if bg == nil {
		writeError(w, r, apperrors.New(apperrors.NotFound, "no background captured"))
		return
	}
	writePNG(w, r, bg)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	trace.Logger(r.Context()).Info("background reset requested over http")
	s.scanner.RequestReset()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reset_requested"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scanner.Stats())
}

// handleHistory lists recent cards; ?seconds=0 returns everything kept.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	window := DefaultHistoryWindow
	if v := r.URL.Query().Get("seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, apperrors.New(apperrors.InvalidArgument, "seconds must be a non-negative integer").
				WithMetadata("seconds", v))
			return
		}
		window = time.Duration(n) * time.Second
	}
	entries := s.scanner.Recent(window)
	writeJSON(w, http.StatusOK, map[string]any{"count": len(entries), "entries": entries})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.scanner.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"count": cat.Len(),
		"sets":  cat.Sets(),
	})
}

func (s *Server) handleCatalogImage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, r, apperrors.New(apperrors.InvalidArgument, "missing id"))
		return
	}
	e, ok := s.scanner.Catalog().Lookup(id)
	if !ok || e.Image == nil {
		writeError(w, r, apperrors.New(apperrors.NotFound, "no such card").WithMetadata("id", id))
		return
	}
	img := e.Image
	if img.Bounds().Dy() > PreviewHeight {
		img = resize.Resize(0, PreviewHeight, img, resize.Bilinear)
	}
	writePNG(w, r, img)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, r *http.Request, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		trace.Logger(r.Context()).Warn("png encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.Internal
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	status := httpStatus(code)
	if status >= http.StatusInternalServerError {
		trace.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": code.String()})
}

func httpStatus(code apperrors.Code) int {
	switch code {
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.InvalidArgument, apperrors.ImageDecodeFailed, apperrors.ImageTooSmall, apperrors.SizeMismatch:
		return http.StatusBadRequest
	case apperrors.Unavailable, apperrors.SourceUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
