package statusserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHealthzAlwaysOK(t *testing.T) {
	s := New("", func() {})
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestStatusReportsCounters(t *testing.T) {
	s := New("", func() {})
	s.SetPhase("rewrite")
	s.Report(3, 2, 1)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"phase":"rewrite"`)
	require.Contains(t, w.Body.String(), `"discovered":3`)
}

func TestCancelRequiresSecret(t *testing.T) {
	called := false
	s := New("", func() { called = true })
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cancel", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
	require.False(t, called)
}

func TestCancelRejectsMissingToken(t *testing.T) {
	s := New("shh", func() {})
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cancel", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCancelRejectsBadToken(t *testing.T) {
	s := New("shh", func() {})
	req := httptest.NewRequest(http.MethodPost, "/cancel", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelWithValidTokenInvokesCancel(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	cancelled := false
	s := New("shh", func() { cancelled = true; cancel() })

	token, err := GenerateCancelToken("shh", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.True(t, cancelled)
}

func TestCancelIsIdempotent(t *testing.T) {
	calls := 0
	s := New("shh", func() { calls++ })
	token, err := GenerateCancelToken("shh", time.Minute)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/cancel", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.r.ServeHTTP(w, req)
		require.Equal(t, http.StatusAccepted, w.Code)
	}
	require.Equal(t, 1, calls)
}
