package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/peterkuimelis/tcgodds/internal/api"
	"github.com/peterkuimelis/tcgodds/internal/sim"
)

const maxRequestBytes = 1 << 20

// Options configures a Server.
type Options struct {
	DecksFile      string
	Workers        int
	MaxSimulations int
	Timeout        time.Duration // per run; 0 = none
	Logger         *zap.Logger
	Metrics        *Metrics
}

// Server is the tcgodds HTTP API server.
type Server struct {
	decksFile string
	timeout   time.Duration
	runner    *api.Runner
	metrics   *Metrics
	logger    *zap.Logger
	mux       *http.ServeMux
}

// NewServer creates a new API server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{
		decksFile: opts.DecksFile,
		timeout:   opts.Timeout,
		runner: &api.Runner{
			Workers:        opts.Workers,
			MaxSimulations: opts.MaxSimulations,
			Logger:         logger,
		},
		metrics: metrics,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API endpoints
	s.mux.HandleFunc("GET /api/decks", s.handleDecks)
	s.mux.HandleFunc("POST /api/decks/{number}/simulate", s.handleDeckSimulate)
	s.mux.HandleFunc("POST /api/simulate", s.handleSimulate)

	// Progress streaming
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)

	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server and stops it when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.timeout)
}

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	sf, err := sim.ParseScenarioFile(s.decksFile)
	if err != nil {
		s.logger.Warn("could not load decks file", zap.String("path", s.decksFile), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "could not read decks file"})
		return
	}

	decks := make([]api.DeckInfo, 0, len(sf.Decks))
	for i, d := range sf.Decks {
		decks = append(decks, api.NewDeckInfo(i+1, d))
	}
	writeJSON(w, http.StatusOK, decks)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req api.SimulateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.metrics.observeFailure("http", "invalid")
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return
	}

	ctx, cancel := s.runContext(r.Context())
	defer cancel()
	resp, err := s.runner.Simulate(ctx, &req, nil)
	s.finish(w, "http", resp, err)
}

func (s *Server) handleDeckSimulate(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "deck number must be an integer"})
		return
	}
	sc, err := sim.ScenarioByNumber(s.decksFile, n)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}

	var seed uint64
	if v := r.URL.Query().Get("seed"); v != "" {
		if seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "seed must be an unsigned integer", Field: "seed"})
			return
		}
	}
	if v := r.URL.Query().Get("trials"); v != "" {
		trials, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "trials must be an integer", Field: "simulations"})
			return
		}
		sc.Trials = &trials
	}
	if limit := s.runner.MaxSimulations; limit > 0 && sc.TrialsOrDefault() > limit {
		s.finish(w, "http", nil, &sim.ConfigError{Field: "simulations", Reason: "exceeds the server limit " + strconv.Itoa(limit)})
		return
	}

	ctx, cancel := s.runContext(r.Context())
	defer cancel()
	resp, err := s.runner.SimulateScenario(ctx, sc, seed, nil)
	s.finish(w, "http", resp, err)
}

// finish records the outcome and writes the response or the mapped error.
func (s *Server) finish(w http.ResponseWriter, surface string, resp *api.SimulateResponse, err error) {
	if err != nil {
		status, body := errorResponse(err)
		s.metrics.observeFailure(surface, resultLabel(status))
		writeJSON(w, status, body)
		return
	}
	s.metrics.observeRun(surface, resp.Simulations, resp.SuccessRate, time.Duration(resp.TimeTaken*float64(time.Second)))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		s.logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer wsConn.CloseNow()

	ctx := r.Context()

	// One simulate message per connection.
	var msg api.ClientMessage
	if err := wsjson.Read(ctx, wsConn, &msg); err != nil {
		s.logger.Debug("websocket read", zap.Error(err))
		return
	}
	if msg.Type != "simulate" || msg.Request == nil {
		wsConn.Close(websocket.StatusPolicyViolation, "expected simulate message")
		return
	}

	// Progress is reported from the simulator's workers; drop updates rather
	// than stall them on a slow client.
	updates := make(chan api.ProgressView, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for p := range updates {
			if err := wsjson.Write(ctx, wsConn, api.ServerMessage{Type: "progress", Progress: &p}); err != nil {
				s.logger.Debug("websocket write progress", zap.Error(err))
			}
		}
	}()

	runCtx, cancel := s.runContext(ctx)
	resp, err := s.runner.Simulate(runCtx, msg.Request, func(p api.ProgressView) {
		select {
		case updates <- p:
		default:
		}
	})
	cancel()
	close(updates)
	<-writerDone

	if err != nil {
		status, body := errorResponse(err)
		s.metrics.observeFailure("ws", resultLabel(status))
		wsjson.Write(ctx, wsConn, api.ServerMessage{Type: "error", Error: body.Error, Field: body.Field})
		wsConn.Close(websocket.StatusNormalClosure, "simulation failed")
		return
	}
	s.metrics.observeRun("ws", resp.Simulations, resp.SuccessRate, time.Duration(resp.TimeTaken*float64(time.Second)))
	if err := wsjson.Write(ctx, wsConn, api.ServerMessage{Type: "result", Result: resp}); err != nil {
		s.logger.Debug("websocket write result", zap.Error(err))
		return
	}
	wsConn.Close(websocket.StatusNormalClosure, "simulation complete")
}

// --- Responses ---

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// errorResponse maps a run error to an HTTP status.
func errorResponse(err error) (int, errorBody) {
	var ce *sim.ConfigError
	switch {
	case errors.As(err, &ce):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Field: ce.Field}
	case errors.Is(err, sim.ErrConfig):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Error: "simulation timed out"}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errorBody{Error: "simulation canceled"}
	default:
		return http.StatusInternalServerError, errorBody{Error: err.Error()}
	}
}

func resultLabel(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusGatewayTimeout, http.StatusServiceUnavailable:
		return "canceled"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
