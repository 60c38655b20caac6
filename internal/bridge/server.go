package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/FocuswithJustin/JuniperHelps/internal/helps"
	"github.com/FocuswithJustin/JuniperHelps/internal/logging"
	"github.com/FocuswithJustin/JuniperHelps/internal/server"
	"github.com/FocuswithJustin/JuniperHelps/internal/validation"
)

// maxRequestBody bounds resolve and activate request bodies.
const maxRequestBody = 8 << 20

// APIResponse is the standard response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is returned by /health.
type HealthInfo struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Clients int    `json:"clients"`
	Engines int    `json:"engines"`
}

// EngineFunc returns a new engine for a book.
type EngineFunc func(book string) (*helps.Engine, error)

// Server exposes the hub and row resolution over HTTP.
type Server struct {
	hub       *Hub
	newEngine EngineFunc
	started   time.Time

	// ctx bounds the engines' view-following goroutines.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	engines map[string]*helps.Engine
}

// NewServer returns a server for hub. Engines are created on first use per
// book, share the bus of hub and follow the chapter the reading view shows
// until Close.
func NewServer(hub *Hub, newEngine EngineFunc) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		hub:       hub,
		newEngine: newEngine,
		started:   time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		engines:   make(map[string]*helps.Engine),
	}
}

// Close stops the engines from following the reading view.
func (s *Server) Close() {
	s.cancel()
}

// Handler returns the HTTP handler. Browser origins accepted by the hub may
// also call the JSON endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/resolve", s.handleResolve)
	mux.HandleFunc("/activate", s.handleActivate)

	var handler http.Handler = server.RequireJSON(mux)
	handler = server.CORS(server.CORSConfig{AllowedOrigins: s.hub.config.AllowedOrigins}, handler)
	handler = server.SecurityHeaders(handler)
	return logging.CombinedMiddleware(handler)
}

func (s *Server) engine(book string) (*helps.Engine, error) {
	book = strings.ToUpper(strings.TrimSpace(book))
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.engines[book]; ok {
		return e, nil
	}
	e, err := s.newEngine(book)
	if err != nil {
		return nil, err
	}
	s.engines[book] = e
	go e.Follow(s.ctx)
	return e, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	s.mu.Lock()
	engines := len(s.engines)
	s.mu.Unlock()

	respond(w, http.StatusOK, HealthInfo{
		Status:  "healthy",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Clients: s.hub.ClientCount(),
		Engines: engines,
	})
}

// ResolveRequest asks for the rows of one book to be resolved against the
// current snapshot.
type ResolveRequest struct {
	Book string      `json:"book"`
	Rows []helps.Row `json:"rows"`
}

// RowResponse is a resolved row.
type RowResponse struct {
	helps.RowResult
	Title string `json:"title"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	engine, ok := s.decode(w, r, &req, func() string { return req.Book })
	if !ok {
		return
	}

	results := engine.ResolveAll(r.Context(), req.Rows)
	out := make([]RowResponse, len(results))
	for i, res := range results {
		out[i] = RowResponse{RowResult: res, Title: engine.Title(res.Row)}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	respondList(w, out, len(out))
}

// ActivateRequest asks for an activation event for one row.
type ActivateRequest struct {
	Book string    `json:"book"`
	Row  helps.Row `json:"row"`
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	engine, ok := s.decode(w, r, &req, func() string { return req.Book })
	if !ok {
		return
	}

	ev, ok := engine.Activate(r.Context(), req.Row)
	if !ok {
		respondError(w, http.StatusUnprocessableEntity, "QUOTE_NOT_MATCHED", "the row's quote could not be matched")
		return
	}
	respond(w, http.StatusOK, ev)
}

// decode reads a POST body into v and returns the engine for the book it names.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, book func() string) (*helps.Engine, bool) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return nil, false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return nil, false
	}
	if book() == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "book is required")
		return nil, false
	}
	if err := validation.BookCode(book()); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BOOK", err.Error())
		return nil, false
	}
	engine, err := s.engine(book())
	if err != nil {
		respondError(w, http.StatusNotFound, "NO_ORIGINAL", err.Error())
		return nil, false
	}
	return engine, true
}

// Serve runs the hub and an HTTP server on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	defer s.Close()
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logging.ServerStartup("bridge", addr, "websocket_path", "/ws")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	snap, ok := s.hub.bus.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "NO_SNAPSHOT", "no reading view has published tokens")
		return
	}
	respond(w, http.StatusOK, snap)
}

func respond(w http.ResponseWriter, status int, data any) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondList(w http.ResponseWriter, data any, total int) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
