package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medscribe/medscribe/internal/platform/cache"
)

func testProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewProvider("test-key", "westus", cache.New(""))
	p.endpoint = srv.URL
	return p, srv
}

func TestGetFetchesAndCaches(t *testing.T) {
	var calls int64
	p, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "u1", r.Header.Get("X-User-Id"))
		assert.Equal(t, "doctor", r.Header.Get("X-User-Role"))
		w.Write([]byte("tok-abc"))
	})

	tok, err := p.Get(context.Background(), "u1", "doctor")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok.Token)
	assert.Equal(t, "westus", tok.Region)

	// Second call within the soft expiry serves the cached slot.
	tok2, err := p.Get(context.Background(), "u1", "doctor")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok2.Token)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
}

func TestGetNotConfigured(t *testing.T) {
	p := NewProvider("", "", cache.New(""))
	_, err := p.Get(context.Background(), "u1", "doctor")
	require.True(t, errors.Is(err, ErrNotConfigured))
}

func TestGetUpstreamFailure(t *testing.T) {
	p, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := p.Get(context.Background(), "u1", "doctor")
	require.Error(t, err)
}

func TestGetEmptyToken(t *testing.T) {
	p, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("   "))
	})
	_, err := p.Get(context.Background(), "u1", "doctor")
	require.Error(t, err)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var calls int64
	p, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte("tok"))
	})

	_, err := p.Get(context.Background(), "u1", "doctor")
	require.NoError(t, err)
	p.Invalidate(context.Background())
	_, err = p.Get(context.Background(), "u1", "doctor")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}
