package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"cryptoproxy/internal/config"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewServer_ServesThroughUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"bitcoin"}]`))
	}))
	defer upstream.Close()

	cfg := config.Default()
	cfg.CoinGecko.BaseURL = upstream.URL

	srv, err := newServer(cfg, quietLogger())
	require.NoError(t, err)
	require.Equal(t, ":8000", srv.Addr)
	require.Equal(t, 3*10*time.Second+2*100*time.Millisecond+5*time.Second, srv.WriteTimeout)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/top-cryptos", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"success":true,"data":[{"id":"bitcoin"}]}`, rr.Body.String())
	require.Equal(t, "60", rr.Header().Get("X-RateLimit-Limit"))
}

func TestNewServer_RateLimitDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimitPerMinute = 0

	srv, err := newServer(cfg, quietLogger())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestNewServer_InvalidRetry(t *testing.T) {
	cfg := config.Default()
	cfg.CoinGecko.RetryAttempts = 0

	_, err := newServer(cfg, quietLogger())
	require.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = "0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, quietLogger()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
