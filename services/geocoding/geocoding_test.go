package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"snapbook/apperr"
	"snapbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) (*GoogleGeocoder, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	g := NewGoogleGeocoder("test-key")
	g.BaseURL = server.URL
	return g, &calls
}

func TestGoogleGeocoder(t *testing.T) {
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "-6.8,39.2", r.URL.Query().Get("latlng"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Kivukoni, Dar es Salaam"}]}`))
	})

	addr, err := g.ReadableAddress(context.Background(), models.NewGeoPoint(-6.8, 39.2))
	require.NoError(t, err)
	assert.Equal(t, "Kivukoni, Dar es Salaam", addr)
}

func TestGoogleGeocoderErrors(t *testing.T) {
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})
	_, err := g.ReadableAddress(context.Background(), models.NewGeoPoint(0, 0))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = g.ReadableAddress(context.Background(), models.NewGeoPoint(100, 0))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	denied, _ := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
	})
	_, err = denied.ReadableAddress(context.Background(), models.NewGeoPoint(1, 1))
	assert.ErrorContains(t, err, "bad key")
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
	failGet bool
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return "", false, errors.New("redis down")
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func TestCachedGeocoder(t *testing.T) {
	g, calls := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Westlands, Nairobi"}]}`))
	})
	cache := &mapCache{entries: map[string]string{}}
	cached := NewCachedGeocoder(g, cache, time.Hour, nil)
	point := models.NewGeoPoint(-1.26, 36.8)

	for i := 0; i < 3; i++ {
		addr, err := cached.ReadableAddress(context.Background(), point)
		require.NoError(t, err)
		assert.Equal(t, "Westlands, Nairobi", addr)
	}
	assert.Equal(t, 1, *calls)
	assert.Equal(t, "Westlands, Nairobi", cache.entries["geocode:-1.26,36.8"])

	cache.failGet = true
	_, err := cached.ReadableAddress(context.Background(), point)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}
