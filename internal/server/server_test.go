package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmmorks/chatter/internal/chattercore"
	"github.com/mmmorks/chatter/internal/docstore"
	"github.com/mmmorks/chatter/internal/graph"
	"github.com/mmmorks/chatter/internal/metrics"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := docstore.OpenBolt(filepath.Join(t.TempDir(), "chatter.db"), docstore.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	core := chattercore.New(store, 0)
	schema, err := graph.NewSchema(&graph.Resolver{Core: core, Metrics: m}, graph.SchemaOptions{})
	require.NoError(t, err)

	return New(Options{
		Schema:     schema,
		Store:      core,
		Metrics:    m,
		Gatherer:   reg,
		Playground: true,
	})
}

func postQuery(t *testing.T, h http.Handler, query string) map[string]any {
	t.Helper()
	body, err := json.Marshal(map[string]any{"query": query})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, GraphQLPath, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGraphQLEndpoint(t *testing.T) {
	h := setupTestServer(t).Handler()

	resp := postQuery(t, h, `mutation { cUser(name: "Ada", surname: "Lovelace", email: "ada@x.io") { id name } }`)
	assert.Nil(t, resp["errors"])
	user := resp["data"].(map[string]any)["cUser"].(map[string]any)
	assert.Equal(t, "Ada", user["name"])

	id := user["id"].(string)
	resp = postQuery(t, h, `{ rUser(id: "`+id+`") { email } }`)
	assert.Equal(t, "ada@x.io", resp["data"].(map[string]any)["rUser"].(map[string]any)["email"])

	resp = postQuery(t, h, `mutation { uUser(id: "missing", name: "x") { id } }`)
	errs := resp["errors"].([]any)
	require.Len(t, errs, 1)
	ext := errs[0].(map[string]any)["extensions"].(map[string]any)
	assert.Equal(t, graph.CodeNotFound, ext["code"])
}

func TestPlayground(t *testing.T) {
	h := setupTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, GraphQLPath, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chatter GraphQL")
}

func TestPlaygroundDisabled(t *testing.T) {
	h := New(Options{}).Handler()

	req := httptest.NewRequest(http.MethodGet, GraphQLPath, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name   string
		ping   error
		status int
		want   string
	}{
		{name: "reachable", status: http.StatusOK, want: "ok"},
		{name: "unreachable", ping: errors.New("no reachable servers"), status: http.StatusServiceUnavailable, want: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Options{Store: pingFunc(func(context.Context) error { return tt.ping })}).Handler()

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["status"])
		})
	}
}

func TestRequestIDAndMetrics(t *testing.T) {
	h := setupTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `chatter_http_requests_total{code="200",method="GET",route="/healthz"} 2`)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := New(Options{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:4000", displayAddr(&net.TCPAddr{Port: 4000}))
	assert.Equal(t, "localhost:4000", displayAddr(&net.TCPAddr{IP: net.IPv6unspecified, Port: 4000}))
	assert.Equal(t, "127.0.0.1:8080", displayAddr(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}))
}
