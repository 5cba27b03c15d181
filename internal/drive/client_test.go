package drive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (t staticToken) Token() (string, error) {
	return string(t), nil
}

type failingToken struct{}

func (failingToken) Token() (string, error) {
	return "", errors.New("token error")
}

// newTestClient points a Client at url and records retry waits instead of
// sleeping.
func newTestClient(t *testing.T, url string) (*Client, *[]time.Duration) {
	t.Helper()

	var waits []time.Duration

	c := NewClient(url, http.DefaultClient, staticToken("test-token"), slog.Default(), "test-agent")
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	return c, &waits
}

// scripted serves the given statuses in order, then 200 forever.
func scripted(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			_, _ = w.Write([]byte(`{"error":{"message":"scripted"}}`))

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestDo_SendsAuthAndUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		_, _ = w.Write([]byte(`{"files":[]}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	resp, err := client.Do(context.Background(), http.MethodGet, "/files", map[string][]string{"pageSize": {"100"}}, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"files":[]}`, string(body))
}

func TestDo_DefaultUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, staticToken("tok"), nil, "")
	resp, err := client.Do(context.Background(), http.MethodGet, "/about", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestDo_Retries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   error
	}{
		{"success first time", nil, 1, nil},
		{"recovers from 503", []int{503, 503}, 3, nil},
		{"recovers from 408", []int{408}, 2, nil},
		{"recovers from 429", []int{429}, 2, nil},
		{"403 is final", []int{403}, 1, ErrForbidden},
		{"404 is final", []int{404}, 1, ErrNotFound},
		{"400 is final", []int{400}, 1, ErrBadRequest},
		{"401 is final", []int{401}, 1, ErrUnauthorized},
		{"409 is final", []int{409}, 1, ErrConflict},
		{
			"gives up after max retries",
			[]int{500, 500, 500, 500, 500, 500, 500},
			maxRetries + 1,
			ErrServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := scripted(t, tt.statuses...)
			client, waits := newTestClient(t, srv.URL)

			resp, err := client.Do(context.Background(), http.MethodGet, "/files", nil, nil)
			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Len(t, *waits, int(tt.wantCalls)-1)

			if tt.wantErr == nil {
				require.NoError(t, err)
				resp.Body.Close()

				return
			}

			require.ErrorIs(t, err, tt.wantErr)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Contains(t, apiErr.Message, "scripted")
		})
	}
}

func TestDo_RetryReplaysBody(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, `{"role":"owner"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	resp, err := client.Do(context.Background(), http.MethodPatch, "/files/f/permissions/p", nil, []byte(`{"role":"owner"}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_HonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, waits := newTestClient(t, srv.URL)
	resp, err := client.Do(context.Background(), http.MethodGet, "/files", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []time.Duration{7 * time.Second}, *waits)
}

func TestDo_NetworkErrorRetriedThenReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, waits := newTestClient(t, url)
	_, err := client.Do(context.Background(), http.MethodGet, "/files", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 5 retries")
	assert.Len(t, *waits, maxRetries)
}

func TestDo_TokenError(t *testing.T) {
	srv, calls := scripted(t)

	client := NewClient(srv.URL, http.DefaultClient, failingToken{}, slog.Default(), "")
	client.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := client.Do(context.Background(), http.MethodGet, "/files", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token error")
	assert.Zero(t, calls.Load())
}

func TestDo_ContextCanceled(t *testing.T) {
	srv, _ := scripted(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, _ := newTestClient(t, srv.URL)
	_, err := client.Do(ctx, http.MethodGet, "/files", nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDo_CanceledDuringBackoff(t *testing.T) {
	srv, calls := scripted(t, http.StatusServiceUnavailable)

	client, _ := newTestClient(t, srv.URL)
	client.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	_, err := client.Do(context.Background(), http.MethodGet, "/files", nil, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMayRetry(t *testing.T) {
	tests := []struct {
		method string
		status int
		want   bool
	}{
		{http.MethodGet, 0, true},
		{http.MethodGet, http.StatusServiceUnavailable, true},
		{http.MethodGet, http.StatusTooManyRequests, true},
		{http.MethodGet, http.StatusForbidden, false},
		{http.MethodPatch, 0, false},
		{http.MethodPatch, http.StatusServiceUnavailable, false},
		{http.MethodPatch, http.StatusRequestTimeout, false},
		{http.MethodPatch, http.StatusTooManyRequests, true},
		{http.MethodPost, http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mayRetry(tt.method, tt.status), "%s %d", tt.method, tt.status)
	}
}

func TestBackoff_Bounded(t *testing.T) {
	client := NewClient("http://unused", nil, staticToken("x"), nil, "")

	for attempt := range 10 {
		d := client.backoff(attempt)
		assert.Positive(t, d)
		assert.LessOrEqual(t, d, time.Duration(float64(maxBackoff)*(1+jitterFraction)))
	}
}

func TestClass(t *testing.T) {
	assert.Empty(t, Class(nil))
	assert.Equal(t, "forbidden", Class(&APIError{StatusCode: 403, Err: ErrForbidden}))
	assert.Equal(t, "rate_limited", Class(&APIError{StatusCode: 429, Err: ErrRateLimited}))
	assert.Equal(t, "canceled", Class(context.Canceled))
	assert.Equal(t, "timeout", Class(context.DeadlineExceeded))
	assert.Equal(t, "other", Class(errors.New("boom")))
}
