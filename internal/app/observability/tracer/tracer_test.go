package tracer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPprofMuxServesProfileIndex(t *testing.T) {
	mux := pprofMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine")
}

func TestPprofMuxServesSymbol(t *testing.T) {
	mux := pprofMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/symbol", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartPprofServerShutsDownCleanly(t *testing.T) {
	srv := StartPprofServer("127.0.0.1:0")
	require.NoError(t, srv.Shutdown(context.Background()))
}
