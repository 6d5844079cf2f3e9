package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plasmaforge/fusor/internal/config"
	"github.com/plasmaforge/fusor/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{Environment: "test"}

	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"
	cfg.Logging.Output = "stdout"

	cfg.Evaluator.CacheSize = 16
	cfg.Solver.Tol = 1e-3
	cfg.Solver.MaxIter = 200
	cfg.Frontier.Samples = 32
	cfg.Frontier.Seed = 1

	return cfg
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(&logging.Config{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

func testServer(t *testing.T) (*Server, chi.Router) {
	t.Helper()
	srv, err := NewServer(testConfig(t), testLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return srv, r
}

func postJSON(t *testing.T, r chi.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestNewServer(t *testing.T) {
	srv, err := NewServer(testConfig(t), testLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, srv)
	assert.NotEmpty(t, srv.Limits())
}

func TestNewServerBadLimitTable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Evaluator.LimitTable = "/nonexistent/limits.yaml"
	_, err := NewServer(cfg, testLogger(t))
	assert.Error(t, err)
}

func TestRegisterRoutes(t *testing.T) {
	_, r := testServer(t)

	tests := []struct {
		method      string
		path        string
		shouldExist bool
	}{
		{"POST", "/api/v1/evaluate", true},
		{"POST", "/api/v1/solve", true},
		{"GET", "/api/v1/solve/123", true},
		{"DELETE", "/api/v1/solve/123", true},
		{"POST", "/api/v1/frontier", true},
		{"POST", "/rpc", true},
		{"GET", "/healthz", false}, // registered by main, not here
		{"GET", "/nonexistent", false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if tt.shouldExist && rr.Code == http.StatusNotFound {
				t.Errorf("route %s %s should exist but returned 404", tt.method, tt.path)
			}
			if !tt.shouldExist && rr.Code != http.StatusNotFound {
				t.Errorf("route %s %s should not exist, got %d", tt.method, tt.path, rr.Code)
			}
		})
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	_, r := testServer(t)

	rr := postJSON(t, r, "/api/v1/evaluate", map[string]interface{}{
		"overrides": map[string]float64{"Bt": 9.0},
		"scaling":   "IPB98y2",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, "run_artifact.v1", doc["schema_version"])
	assert.Equal(t, "IPB98y2", doc["scaling"])

	inputs, ok := doc["inputs"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 9.0, inputs["Bt"])

	outputs, ok := doc["outputs"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, outputs, "Pfus_MW")

	ledger, ok := doc["ledger"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, ledger, "records")
}

func TestEvaluateEndpointErrors(t *testing.T) {
	_, r := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, r, "/api/v1/evaluate", map[string]interface{}{
		"overrides": map[string]float64{"warp_factor": 9},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, r, "/api/v1/evaluate", map[string]interface{}{
		"scaling": "H-mode-magic",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func waitForSolve(t *testing.T, r chi.Router, id string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/solve/"+id, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var status map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
		switch status["status"] {
		case "completed", "failed", "cancelled":
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("solve job did not finish in time")
	return nil
}

func TestSolveLifecycle(t *testing.T) {
	_, r := testServer(t)

	rr := postJSON(t, r, "/api/v1/solve", map[string]interface{}{
		"overrides": map[string]float64{},
		"targets":   []map[string]interface{}{{"key": "ne20", "value": 5.0}},
		"variables": []map[string]interface{}{{"name": "fG", "x0": 0.85, "lo": 0.1, "hi": 1.2}},
		"tol":       0.01,
		"max_iter":  300,
	})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var started map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &started))
	id, _ := started["solve_id"].(string)
	require.NotEmpty(t, id)

	status := waitForSolve(t, r, id)
	require.Equal(t, "completed", status["status"], "error: %v", status["error"])

	result, ok := status["result"].(map[string]interface{})
	require.True(t, ok, "completed job should carry a result")
	assert.Equal(t, true, result["converged"])

	record, ok := result["record"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "run_artifact.v1", record["schema_version"])

	// A finished job cannot be cancelled.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/solve/"+id, nil)
	del := httptest.NewRecorder()
	r.ServeHTTP(del, req)
	assert.Equal(t, http.StatusBadRequest, del.Code)
}

func TestSolveValidation(t *testing.T) {
	_, r := testServer(t)

	rr := postJSON(t, r, "/api/v1/solve", map[string]interface{}{
		"targets": []map[string]interface{}{},
		"variables": []map[string]interface{}{
			{"name": "fG", "x0": 0.85, "lo": 0.1, "hi": 1.2},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, r, "/api/v1/solve", map[string]interface{}{
		"targets": []map[string]interface{}{{"key": "ne20", "value": 5.0}},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSolveStatusNotFound(t *testing.T) {
	_, r := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/solve/solve_0", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFrontierEndpoint(t *testing.T) {
	_, r := testServer(t)

	rr := postJSON(t, r, "/api/v1/frontier", map[string]interface{}{
		"levers":   []map[string]interface{}{{"name": "fG", "lo": 0.1, "hi": 1.2}},
		"n_random": 16,
		"seed":     9,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, float64(16), report["sample_n"])
	assert.Equal(t, float64(9), report["seed"])
	assert.Contains(t, report, "base_feasible")
	assert.Contains(t, report, "base_status")
}

func TestFrontierValidation(t *testing.T) {
	_, r := testServer(t)
	rr := postJSON(t, r, "/api/v1/frontier", map[string]interface{}{
		"levers": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestJSONRPCEvaluate(t *testing.T) {
	_, r := testServer(t)

	rr := postJSON(t, r, "/rpc", map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "point.evaluate",
		"params": []interface{}{
			map[string]interface{}{"overrides": map[string]float64{"Ti": 12.0}},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2.0", resp["jsonrpc"])
	assert.Equal(t, float64(1), resp["id"])
	result, ok := resp["result"].(map[string]interface{})
	require.True(t, ok, "body: %s", rr.Body.String())
	assert.Equal(t, "run_artifact.v1", result["schema_version"])
}

func TestJSONRPCErrors(t *testing.T) {
	_, r := testServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode float64
	}{
		{name: "parse error", body: "{oops", wantCode: -32700},
		{name: "wrong version", body: `{"jsonrpc":"1.0","id":1,"method":"point.evaluate"}`, wantCode: -32600},
		{name: "unknown method", body: `{"jsonrpc":"2.0","id":1,"method":"optimize.start"}`, wantCode: -32601},
		{name: "missing params", body: `{"jsonrpc":"2.0","id":1,"method":"solve.status"}`, wantCode: -32000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			require.Equal(t, http.StatusOK, rr.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			errObj, ok := resp["error"].(map[string]interface{})
			require.True(t, ok, "body: %s", rr.Body.String())
			assert.Equal(t, tt.wantCode, errObj["code"])
		})
	}
}

func TestJSONRPCSolveRoundTrip(t *testing.T) {
	_, r := testServer(t)

	rr := postJSON(t, r, "/rpc", map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      "job-1",
		"method":  "solve.start",
		"params": []interface{}{map[string]interface{}{
			"targets":   []map[string]interface{}{{"key": "ne20", "value": 5.0}},
			"variables": []map[string]interface{}{{"name": "fG", "x0": 0.85, "lo": 0.1, "hi": 1.2}},
			"tol":       0.01,
		}},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	result, ok := resp["result"].(map[string]interface{})
	require.True(t, ok, "body: %s", rr.Body.String())
	id, _ := result["solve_id"].(string)
	require.NotEmpty(t, id)

	waitForSolve(t, r, id)

	// Status over RPC matches the REST view.
	rr = postJSON(t, r, "/rpc", map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "solve.status",
		"params":  []interface{}{map[string]interface{}{"solve_id": id}},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	status, ok := resp["result"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "completed", status["status"])

	// Cancelling a finished job is a JSON-RPC level error.
	rr = postJSON(t, r, "/rpc", map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      3,
		"method":  "solve.cancel",
		"params":  []interface{}{map[string]interface{}{"solve_id": id}},
	})
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	_, hasErr := resp["error"]
	assert.True(t, hasErr)
}

func TestRespondWithError(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name       string
		code       int
		message    string
		id         interface{}
		expectedID interface{}
	}{
		{name: "string id", code: -32000, message: "invalid input", id: "123", expectedID: "123"},
		{name: "nil id", code: -32700, message: "parse error", id: nil, expectedID: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.respondWithError(rr, tt.code, tt.message, tt.id)

			// Errors ride in the body; the transport status stays 200.
			assert.Equal(t, http.StatusOK, rr.Code)

			var response map[string]interface{}
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
			errObj, ok := response["error"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, float64(tt.code), errObj["code"])
			assert.Equal(t, tt.message, errObj["message"])
			assert.Equal(t, tt.expectedID, response["id"])
		})
	}
}

func TestClose(t *testing.T) {
	srv, err := NewServer(testConfig(t), testLogger(t))
	require.NoError(t, err)
	assert.NoError(t, srv.Close())
}
