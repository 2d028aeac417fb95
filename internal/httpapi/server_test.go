package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/symbolic"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"*"}
	}
	return New(opts)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestIndex(t *testing.T) {
	rec := do(t, newTestServer(Options{}), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]interface{}{"message": "Hello world"}, decode(t, rec))
}

func TestMetrics(t *testing.T) {
	rec := do(t, newTestServer(Options{}), http.MethodGet, "/metricas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	want := []map[string]string{
		{"value": "Schwarzschild"},
		{"value": "Kerr"},
		{"value": "KerrNewman"},
		{"value": "FLRW"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("/metricas mismatch (-want +got):\n%s", diff)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(Options{}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	_, err := time.Parse(time.RFC3339, body["time"].(string))
	assert.NoError(t, err)
}

func TestTensors_Tensor(t *testing.T) {
	rec := do(t, newTestServer(Options{}), http.MethodPost, "/tensores", `{"metrica":"Schwarzschild","tipo":"tensor"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode(t, rec)["result"].(string)
	m, err := symbolic.ParseMatrix(result)
	require.NoError(t, err)
	assert.True(t, m.IsSymmetric())
}

func TestTensors_KretschmannWithSubstitutions(t *testing.T) {
	body := `{"metrica":"Schwarzschild","tipo":"kretschmann","substituicoes":{"G":1,"c":"1"}}`
	rec := do(t, newTestServer(Options{}), http.MethodPost, "/tensores", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "48*M^2/r^6", decode(t, rec)["result"])
}

func TestTensors_LaTeXFormat(t *testing.T) {
	rec := do(t, newTestServer(Options{}), http.MethodPost, "/tensores", `{"metrica":"FLRW","tipo":"tensor","formato":"latex"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec)["result"], `\begin{pmatrix}`)
}

func TestTensors_ClientErrors(t *testing.T) {
	tests := []struct {
		name, body, contains string
	}{
		{"unknown metric", `{"metrica":"Minkowski","tipo":"tensor"}`, "unknown metric"},
		{"invalid operation", `{"metrica":"Schwarzschild","tipo":"bogus"}`, "invalid operation"},
		{"invalid format", `{"metrica":"Schwarzschild","tipo":"tensor","formato":"xml"}`, "invalid format"},
		{"bad substitution", `{"metrica":"Schwarzschild","tipo":"tensor","substituicoes":{"G":"1 +"}}`, "invalid substitution"},
		{"undefined substitution", `{"metrica":"Schwarzschild","tipo":"tensor","substituicoes":{"r":0}}`, "invalid substitution"},
		{"unsupported substitution", `{"metrica":"Schwarzschild","tipo":"tensor","substituicoes":{"r":"r^99999"}}`, "invalid substitution"},
		{"substitution type", `{"metrica":"Schwarzschild","tipo":"tensor","substituicoes":{"G":true}}`, "strings or numbers"},
		{"missing fields", `{"metrica":"Schwarzschild"}`, "required"},
		{"malformed", `{"metrica":`, "invalid JSON"},
		{"unknown field", `{"metrica":"Kerr","tipo":"tensor","extra":1}`, "invalid JSON"},
		{"trailing data", `{"metrica":"Kerr","tipo":"tensor"} {}`, "trailing data"},
	}
	s := newTestServer(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/tensores", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], tt.contains)
		})
	}
}

func TestTensors_BodyTooLarge(t *testing.T) {
	s := newTestServer(Options{MaxBodyBytes: 16})
	rec := do(t, s, http.MethodPost, "/tensores", `{"metrica":"Schwarzschild","tipo":"tensor"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTensors_Timeout(t *testing.T) {
	s := newTestServer(Options{ComputeTimeout: time.Nanosecond})
	rec := do(t, s, http.MethodPost, "/tensores", `{"metrica":"Kerr","tipo":"riemann"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "computation timed out", decode(t, rec)["error"])
}

func TestTensors_MethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(Options{}), http.MethodGet, "/tensores", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestClassify(t *testing.T) {
	status, msg := classify(fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, "computation timed out", msg)

	status, msg = classify(fmt.Errorf("opaque failure with internal detail"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "symbolic computation failed", msg)
}

func TestCORS(t *testing.T) {
	s := newTestServer(Options{})

	req := httptest.NewRequest(http.MethodOptions, "/tensores", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://example.org")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.EqualFold("X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers")))
}

func TestCORS_Disabled(t *testing.T) {
	s := newTestServer(Options{CORSOrigins: []string{}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	s := newTestServer(Options{CORSOrigins: []string{"https://cloudhub.example.org"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://cloudhub.example.org")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "https://cloudhub.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	s := newTestServer(Options{})
	rec := do(t, s, http.MethodGet, "/", "")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRecoverer(t *testing.T) {
	s := newTestServer(Options{})
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode(t, rec)["error"])
}

func TestServe_Lifecycle(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer(Options{}).Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	client.CloseIdleConnections()
}
