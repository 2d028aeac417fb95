// Package httpapi exposes the curvature engine over HTTP:
//
//	GET  /          greeting
//	GET  /metricas  catalog names
//	POST /tensores  one computation
//	GET  /health    liveness check
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/internal/catalog"
	"github.com/njchilds90/gocurvature/internal/curvature"
)

// Options configures a Server.
type Options struct {
	MaxBodyBytes   int64
	ComputeTimeout time.Duration
	Workers        int
	CORSOrigins    []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Logger         *zap.Logger
}

// Server is a stateless handler: every request builds its own metric and
// engine.
type Server struct {
	opts    Options
	log     *zap.Logger
	handler http.Handler
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	s := &Server{opts: opts, log: opts.Logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /metricas", s.handleMetrics)
	mux.HandleFunc("POST /tensores", s.handleTensors)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.recoverer(s.requestLog(withCORS(opts.CORSOrigins, mux)))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.log.Info("listening", zap.String("addr", ln.Addr().String()))
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		<-errCh
		s.log.Info("server stopped")
		return err
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// ============================================================
// Handlers
// ============================================================

type tensorRequest struct {
	Metrica       string                 `json:"metrica"`
	Tipo          string                 `json:"tipo"`
	Substituicoes map[string]interface{} `json:"substituicoes,omitempty"`
	Formato       string                 `json:"formato,omitempty"`
}

type metricItem struct {
	Value string `json:"value"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello world"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	names := catalog.Names()
	items := make([]metricItem, len(names))
	for i, n := range names {
		items[i] = metricItem{Value: string(n)}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTensors(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	dec.UseNumber()

	var req tensorRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "invalid JSON: trailing data")
		return
	}
	if req.Metrica == "" || req.Tipo == "" {
		writeError(w, http.StatusBadRequest, "metrica and tipo are required")
		return
	}

	creq, metric, err := s.prepare(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if s.opts.ComputeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ComputeTimeout)
		defer cancel()
	}
	log := s.log.With(
		zap.String("request_id", RequestID(r.Context())),
		zap.String("metric", req.Metrica),
		zap.String("operation", req.Tipo),
	)
	engine := curvature.New(metric, curvature.WithWorkers(s.opts.Workers), curvature.WithLogger(log))

	start := time.Now()
	out, err := engine.Evaluate(ctx, creq)
	if err != nil {
		status, msg := classify(err)
		if status >= 500 {
			log.Error("computation failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		}
		writeError(w, status, msg)
		return
	}
	log.Info("computed", zap.Duration("duration", time.Since(start)), zap.Int("bytes", len(out)))
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}

// prepare resolves everything a request names before any computation.
func (s *Server) prepare(req tensorRequest) (curvature.Request, *catalog.MetricTensor, error) {
	metric, err := catalog.Lookup(req.Metrica)
	if err != nil {
		return curvature.Request{}, nil, err
	}
	op, err := curvature.ParseOperation(req.Tipo)
	if err != nil {
		return curvature.Request{}, nil, err
	}
	format, err := curvature.ParseFormat(req.Formato)
	if err != nil {
		return curvature.Request{}, nil, err
	}
	raw := make(map[string]string, len(req.Substituicoes))
	for k, v := range req.Substituicoes {
		switch v := v.(type) {
		case string:
			raw[k] = v
		case json.Number:
			raw[k] = v.String()
		default:
			return curvature.Request{}, nil, errors.New("substituicoes values must be strings or numbers")
		}
	}
	subs, err := curvature.ParseSubstitutions(raw)
	if err != nil {
		return curvature.Request{}, nil, err
	}
	return curvature.Request{Operation: op, Substitutions: subs, Format: format}, metric, nil
}

// classify maps an engine error to a status code and a client message.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "computation timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request cancelled"
	case errors.Is(err, catalog.ErrUnknownMetric),
		errors.Is(err, curvature.ErrInvalidOperation),
		errors.Is(err, curvature.ErrInvalidFormat),
		errors.Is(err, curvature.ErrInvalidSubstitution):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "symbolic computation failed"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
