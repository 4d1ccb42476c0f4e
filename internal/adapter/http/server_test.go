package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/plateworks/od600-etl/internal/adapter/http"
)

type stubReadiness struct {
	err error
}

func (s *stubReadiness) CheckReadiness(_ context.Context) error { return s.err }

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &stubReadiness{err: readyErr}, slog.Default())
}

func get(t *testing.T, srv *httpadapter.Server, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]string
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	rec, body := get(t, newTestServer(nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("ready after first processed file", func(t *testing.T) {
		rec, body := get(t, newTestServer(nil), "/readyz")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("503 before any file processed", func(t *testing.T) {
		rec, body := get(t, newTestServer(errors.New("no exports processed yet")), "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not ready", body["status"])
		assert.Equal(t, "no exports processed yet", body["error"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec, _ := get(t, newTestServer(nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
