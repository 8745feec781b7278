package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
)

func newTestRelay(cfg Config) *Relay {
	return New(cfg, logging.NewNop())
}

func TestFetchSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>hello</html>"))
	}))
	defer upstream.Close()

	r := newTestRelay(DefaultConfig())
	result, err := r.Fetch(context.Background(), upstream.URL)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, []byte("<html>hello</html>"), result.Body)
	assert.Equal(t, "text/html; charset=utf-8", result.ContentType)
}

func TestFetchSpoofsBrowserUserAgent(t *testing.T) {
	var gotUA string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer upstream.Close()

	r := newTestRelay(DefaultConfig())
	_, err := r.Fetch(context.Background(), upstream.URL)

	require.NoError(t, err)
	assert.Contains(t, gotUA, "Mozilla/5.0")
}

func TestFetchMissingContentType(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil // suppress the default
		w.Write([]byte("raw"))
	}))
	defer upstream.Close()

	r := newTestRelay(DefaultConfig())
	result, err := r.Fetch(context.Background(), upstream.URL)

	require.NoError(t, err)
	assert.Empty(t, result.ContentType)
	assert.Equal(t, []byte("raw"), result.Body)
}

func TestFetchInvalidRequest(t *testing.T) {
	r := newTestRelay(DefaultConfig())

	tests := []struct {
		name string
		url  string
	}{
		{"empty url", ""},
		{"no scheme", "example.com/page"},
		{"unsupported scheme", "ftp://example.com/file"},
		{"garbage", "::::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Fetch(context.Background(), tt.url)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer upstream.Close()

	cfg := DefaultConfig()
	cfg.Timeout = 150 * time.Millisecond
	r := newTestRelay(cfg)

	start := time.Now()
	_, err := r.Fetch(context.Background(), upstream.URL)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
	assert.NotErrorIs(t, err, ErrUpstreamUnreachable)
	// The call must abort at the deadline, not wait for the upstream.
	assert.Less(t, elapsed, time.Second)
}

func TestFetchUnreachable(t *testing.T) {
	// Bind and immediately close so the port is known-dead.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := upstream.URL
	upstream.Close()

	r := newTestRelay(DefaultConfig())
	_, err := r.Fetch(context.Background(), addr)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnreachable)
	assert.NotErrorIs(t, err, ErrUpstreamTimeout)
}

func TestFetchBodyTooLarge(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 1024))
	}))
	defer upstream.Close()

	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 512
	r := newTestRelay(cfg)

	_, err := r.Fetch(context.Background(), upstream.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetchBodyAtCap(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 512))
	}))
	defer upstream.Close()

	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 512
	r := newTestRelay(cfg)

	result, err := r.Fetch(context.Background(), upstream.URL)
	require.NoError(t, err)
	assert.Len(t, result.Body, 512)
}

func TestFetchPassesThroughUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not here"))
	}))
	defer upstream.Close()

	r := newTestRelay(DefaultConfig())
	result, err := r.Fetch(context.Background(), upstream.URL)

	// A reachable upstream with a non-2xx status is still a successful relay;
	// the caller re-serves the status as-is.
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Equal(t, []byte("not here"), result.Body)
}

func TestFetchNoRetries(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	r := newTestRelay(DefaultConfig())
	_, err := r.Fetch(context.Background(), upstream.URL)

	require.NoError(t, err)
	assert.Equal(t, 1, hits, "relay must make exactly one attempt per call")
}
