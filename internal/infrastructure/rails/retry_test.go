package rails

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryable(t *testing.T) {
	require.True(t, retryable(http.StatusInternalServerError))
	require.True(t, retryable(http.StatusBadGateway))
	require.True(t, retryable(http.StatusTooManyRequests))
	require.False(t, retryable(http.StatusBadRequest))
	require.False(t, retryable(http.StatusUnprocessableEntity))
	require.False(t, retryable(http.StatusOK))
}

func TestDoWithRetry_RecoversFromTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: time.Second}
	resp, err := doWithRetry(context.Background(), client, http.MethodPost, srv.URL, []byte(`{}`), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_TerminalClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: time.Second}
	resp, err := doWithRetry(context.Background(), client, http.MethodPost, srv.URL, []byte(`{}`), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: time.Second}
	_, err := doWithRetry(context.Background(), client, http.MethodPost, srv.URL, []byte(`{}`), nil)
	require.Error(t, err)
	require.Equal(t, int32(retryMaxAttempts), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_ContextCancelStopsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := &http.Client{Timeout: time.Second}
	_, err := doWithRetry(ctx, client, http.MethodPost, srv.URL, []byte(`{}`), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
