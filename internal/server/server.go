package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plasmaforge/fusor/internal/artifact"
	"github.com/plasmaforge/fusor/internal/config"
	"github.com/plasmaforge/fusor/internal/constraints"
	"github.com/plasmaforge/fusor/internal/evaluator"
	"github.com/plasmaforge/fusor/internal/logging"
	"github.com/plasmaforge/fusor/internal/physics"
	"github.com/plasmaforge/fusor/internal/solver"
)

// Logger defines the logging interface used by the server.
// This keeps the server flexible about the logging implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// SolveJob tracks one asynchronous target-matching run.
type SolveJob struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Result      *solver.SolveResult
	Error       string
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server exposes the evaluator, ledger, solver and frontier search over
// HTTP (REST + JSON-RPC 2.0). Jobs live in memory only.
type Server struct {
	cfg    *config.Config
	logger Logger
	eval   *evaluator.Evaluator
	limits constraints.LimitTable

	jobs   map[string]*SolveJob
	jobsMu sync.RWMutex

	metrics *Metrics
}

// NewServer wires the service shell. The limit table comes from the
// configured YAML path, or the built-in defaults when unset.
func NewServer(cfg *config.Config, logger Logger) (*Server, error) {
	limits := constraints.DefaultLimits()
	if cfg.Evaluator.LimitTable != "" {
		loaded, err := constraints.LoadLimits(cfg.Evaluator.LimitTable)
		if err != nil {
			return nil, err
		}
		limits = loaded
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		eval:    evaluator.New(cfg.Evaluator.CacheSize),
		limits:  limits,
		jobs:    make(map[string]*SolveJob),
		metrics: serverMetrics(),
	}, nil
}

// Limits returns the active limit table.
func (s *Server) Limits() constraints.LimitTable {
	return s.limits
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/solve", s.handleSolve)
		r.Get("/solve/{id}", s.handleSolveStatus)
		r.Delete("/solve/{id}", s.handleSolveCancel)
		r.Post("/frontier", s.handleFrontier)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// pointRequest is the shared input shape: knob overrides on the reference
// point plus an optional scaling-law name.
type pointRequest struct {
	Overrides map[string]float64 `json:"overrides,omitempty"`
	Scaling   string             `json:"scaling,omitempty"`
}

func (s *Server) buildPoint(req pointRequest) (physics.PointInputs, error) {
	pt := physics.Defaults()
	if req.Scaling != "" {
		sc, err := physics.ParseScaling(req.Scaling)
		if err != nil {
			return pt, err
		}
		pt = pt.WithScaling(sc)
	}
	if len(req.Overrides) > 0 {
		return pt.With(physics.Overrides(req.Overrides))
	}
	return pt, nil
}

// evaluatePoint runs the evaluator and ledger once and wraps the result
// as a NaN-safe run record.
func (s *Server) evaluatePoint(req pointRequest) (artifact.Document, error) {
	pt, err := s.buildPoint(req)
	if err != nil {
		return artifact.Document{}, err
	}
	started := time.Now()
	out, err := s.eval.Evaluate(pt)
	if err != nil {
		return artifact.Document{}, err
	}
	s.metrics.ObserveEvaluation(time.Since(started), s.eval.Stats())
	led := constraints.BuildLedger(out, s.limits)
	return artifact.New(pt, out, &led), nil
}

// handleJSONRPC handles JSON-RPC 2.0 requests.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string        `json:"jsonrpc"`
		ID      interface{}   `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	var result interface{}
	var err error
	switch request.Method {
	case "point.evaluate":
		result, err = s.rpcEvaluate(request.Params)
	case "solve.start":
		result, err = s.rpcSolveStart(request.Params)
	case "solve.status":
		result, err = s.rpcSolveStatus(request.Params)
	case "solve.cancel":
		err = s.rpcSolveCancel(request.Params)
	case "frontier.search":
		result, err = s.rpcFrontier(request.Params)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}
	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func firstParamObject(params []interface{}) (map[string]interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing required parameters")
	}
	obj, ok := params[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid parameter format, expected object")
	}
	return obj, nil
}

// reparse round-trips a generic RPC parameter object into a typed request.
func reparse(obj map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (s *Server) rpcEvaluate(params []interface{}) (interface{}, error) {
	obj, err := firstParamObject(params)
	if err != nil {
		return nil, err
	}
	var req pointRequest
	if err := reparse(obj, &req); err != nil {
		return nil, err
	}
	return s.evaluatePoint(req)
}

type solveRequest struct {
	pointRequest
	Targets   []solver.Target   `json:"targets"`
	Variables []solver.Variable `json:"variables"`
	Tol       float64           `json:"tol,omitempty"`
	MaxIter   int               `json:"max_iter,omitempty"`
}

func (s *Server) rpcSolveStart(params []interface{}) (interface{}, error) {
	obj, err := firstParamObject(params)
	if err != nil {
		return nil, err
	}
	var req solveRequest
	if err := reparse(obj, &req); err != nil {
		return nil, err
	}
	return s.startSolve(req)
}

func (s *Server) startSolve(req solveRequest) (interface{}, error) {
	base, err := s.buildPoint(req.pointRequest)
	if err != nil {
		return nil, err
	}
	if len(req.Targets) == 0 {
		return nil, physics.NewConfigError("targets are required")
	}
	if len(req.Variables) == 0 {
		return nil, physics.NewConfigError("variables are required")
	}
	opt := solver.Options{Tol: req.Tol, MaxIter: req.MaxIter}
	if opt.Tol <= 0 {
		opt.Tol = s.cfg.Solver.Tol
	}
	if opt.MaxIter <= 0 {
		opt.MaxIter = s.cfg.Solver.MaxIter
	}

	id := fmt.Sprintf("solve_%d", time.Now().UnixNano())
	ctx, cancel := context.WithCancel(context.Background())
	job := &SolveJob{
		ID:          id,
		Status:      "pending",
		StartTime:   time.Now(),
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}
	s.jobsMu.Lock()
	s.jobs[id] = job
	s.jobsMu.Unlock()

	go s.runSolve(ctx, job, base, req.Targets, req.Variables, opt)

	return map[string]interface{}{"solve_id": id, "status": "pending"}, nil
}

// runSolve executes a solve job in the background. Cancellation cannot
// interrupt a running iteration; it discards the result instead.
func (s *Server) runSolve(ctx context.Context, job *SolveJob, base physics.PointInputs,
	targets []solver.Target, vars []solver.Variable, opt solver.Options) {

	s.jobsMu.Lock()
	job.Status = "running"
	job.LastUpdated = time.Now()
	s.jobsMu.Unlock()

	started := time.Now()
	result, err := solver.SolveForTargets(s.eval, base, targets, vars, opt)
	s.metrics.ObserveSolve(time.Since(started), err == nil && result.Converged)

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if ctx.Err() != nil || job.Status == "cancelled" {
		return
	}
	if err != nil {
		s.logger.Error("solve failed", map[string]interface{}{
			"solve_id": job.ID,
			"error":    err.Error(),
		})
		job.Status = "failed"
		job.Error = err.Error()
	} else {
		job.Status = "completed"
		job.Result = &result
	}
	now := time.Now()
	job.EndTime = &now
	job.LastUpdated = now
}

func (s *Server) rpcSolveStatus(params []interface{}) (interface{}, error) {
	obj, err := firstParamObject(params)
	if err != nil {
		return nil, err
	}
	id, _ := obj["solve_id"].(string)
	if id == "" {
		return nil, fmt.Errorf("solve_id is required")
	}
	return s.solveStatus(id)
}

func (s *Server) solveStatus(id string) (interface{}, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("solve job not found")
	}

	response := map[string]interface{}{
		"solve_id":    job.ID,
		"status":      job.Status,
		"start_time":  job.StartTime.Format(time.RFC3339),
		"last_update": job.LastUpdated.Format(time.RFC3339),
	}
	if job.EndTime != nil {
		response["end_time"] = job.EndTime.Format(time.RFC3339)
	}
	if job.Error != "" {
		response["error"] = job.Error
	}
	if job.Result != nil {
		response["result"] = solveResultDoc(job.Result, s.limits)
	}
	return response, nil
}

func (s *Server) rpcSolveCancel(params []interface{}) error {
	obj, err := firstParamObject(params)
	if err != nil {
		return err
	}
	id, _ := obj["solve_id"].(string)
	if id == "" {
		return fmt.Errorf("solve_id is required")
	}
	return s.cancelSolve(id)
}

func (s *Server) cancelSolve(id string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("solve job not found")
	}
	switch job.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel solve job with status: %s", job.Status)
	}
	if job.CancelFunc != nil {
		job.CancelFunc()
	}
	job.Status = "cancelled"
	now := time.Now()
	job.EndTime = &now
	job.LastUpdated = now

	s.logger.Info("solve cancelled", map[string]interface{}{"solve_id": id})
	return nil
}

type frontierRequest struct {
	pointRequest
	Levers  []solver.Lever `json:"levers"`
	NRandom int            `json:"n_random,omitempty"`
	Seed    *int64         `json:"seed,omitempty"`
}

func (s *Server) rpcFrontier(params []interface{}) (interface{}, error) {
	obj, err := firstParamObject(params)
	if err != nil {
		return nil, err
	}
	var req frontierRequest
	if err := reparse(obj, &req); err != nil {
		return nil, err
	}
	return s.runFrontier(req)
}

func (s *Server) runFrontier(req frontierRequest) (interface{}, error) {
	base, err := s.buildPoint(req.pointRequest)
	if err != nil {
		return nil, err
	}
	if len(req.Levers) == 0 {
		return nil, physics.NewConfigError("levers are required")
	}
	n := req.NRandom
	if n <= 0 {
		n = s.cfg.Frontier.Samples
	}
	seed := s.cfg.Frontier.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	report, err := solver.FindNearestFeasible(s.eval, base, req.Levers, s.limits, n, seed)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// respondWithError sends a JSON-RPC 2.0 error response.
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Close cancels every pending job.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	return nil
}

// handleEvaluate handles POST /api/v1/evaluate.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	doc, err := s.evaluatePoint(req)
	if err != nil {
		respondJSONError(w, statusForError(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(doc)
}

// handleSolve handles POST /api/v1/solve.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	result, err := s.startSolve(req)
	if err != nil {
		respondJSONError(w, statusForError(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// handleSolveStatus handles GET /api/v1/solve/{id}.
func (s *Server) handleSolveStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondJSONError(w, http.StatusBadRequest, "missing solve ID")
		return
	}
	result, err := s.solveStatus(id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleSolveCancel handles DELETE /api/v1/solve/{id}.
func (s *Server) handleSolveCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondJSONError(w, http.StatusBadRequest, "missing solve ID")
		return
	}
	if err := s.cancelSolve(id); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "cancellation requested"})
}

// handleFrontier handles POST /api/v1/frontier.
func (s *Server) handleFrontier(w http.ResponseWriter, r *http.Request) {
	var req frontierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	report, err := s.runFrontier(req)
	if err != nil {
		respondJSONError(w, statusForError(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}

func respondJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"error": msg})
}

func statusForError(err error) int {
	if physics.IsConfigError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
