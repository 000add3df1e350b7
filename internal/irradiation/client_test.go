// internal/irradiation/client_test.go
package irradiation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-pumping-workers/internal/common/logger"
	"solar-pumping-workers/internal/sizing"
)

// ==========================
// Test Helper Functions
// ==========================

func pvgisServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func dailyOK(value float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"inputs":{},"outputs":{"totals":{"fixed":{"E_d":%v,"E_m":170.2}}}}`, value)
	}
}

func newTestClient(t *testing.T, baseURL string, cache Cache) *Client {
	return NewClient(Config{BaseURL: baseURL, Timeout: 2 * time.Second}, nil, cache, logger.NewTestLogger(t))
}

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// ==========================
// Daily irradiation
// ==========================

func TestDailyIrradiation_Live(t *testing.T) {
	server, _ := pvgisServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/PVcalc", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "6.37", q.Get("lat"))
		assert.Equal(t, "2.39", q.Get("lon"))
		assert.Equal(t, "1", q.Get("peakpower"))
		assert.Equal(t, "14", q.Get("loss"))
		assert.Equal(t, "json", q.Get("outputformat"))
		dailyOK(5.61)(w, r)
	})

	irr := newTestClient(t, server.URL, nil).DailyIrradiation(context.Background(), 6.37, 2.39)

	assert.True(t, irr.IsLive)
	assert.Equal(t, 5.61, irr.ValueKwhPerM2PerDay)
}

func TestDailyIrradiation_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "maintenance", http.StatusServiceUnavailable)
			},
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"Location over the sea"}`, http.StatusBadRequest)
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			},
		},
		{
			name: "missing E_d",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"outputs":{"totals":{"fixed":{}}}}`))
			},
		},
		{
			name:    "non positive E_d",
			handler: dailyOK(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := pvgisServer(t, tt.handler)

			irr := newTestClient(t, server.URL, nil).DailyIrradiation(context.Background(), 6.37, 2.39)

			assert.False(t, irr.IsLive)
			assert.Equal(t, sizing.FallbackIrradiationKwhM2, irr.ValueKwhPerM2PerDay)
		})
	}
}

func TestDailyIrradiation_Timeout(t *testing.T) {
	server, _ := pvgisServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})

	c := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil, nil, logger.NewNoOpLogger())

	start := time.Now()
	irr := c.DailyIrradiation(context.Background(), 10, 10)

	assert.False(t, irr.IsLive)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestDailyIrradiation_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	irr := newTestClient(t, url, nil).DailyIrradiation(context.Background(), 10, 10)
	assert.False(t, irr.IsLive)
}

func TestDailyIrradiation_CustomFallback(t *testing.T) {
	server, _ := pvgisServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := NewClient(Config{BaseURL: server.URL, FallbackKwhM2: 4.2}, nil, nil, logger.NewNoOpLogger())

	assert.Equal(t, 4.2, c.DailyIrradiation(context.Background(), 0, 0).ValueKwhPerM2PerDay)
}

// ==========================
// Cache behaviour
// ==========================

func TestDailyIrradiation_CachesLiveValues(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	server, calls := pvgisServer(t, dailyOK(6.02))
	c := newTestClient(t, server.URL, NewRedisCache(rdb, time.Hour))

	first := c.DailyIrradiation(context.Background(), 12.345678, -1.5)
	second := c.DailyIrradiation(context.Background(), 12.345678, -1.5)

	assert.Equal(t, first, second)
	assert.True(t, second.IsLive)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	val, err := mr.Get("irradiation:daily:12.3457:-1.5000")
	require.NoError(t, err)
	assert.Equal(t, "6.02", val)
	assert.Equal(t, time.Hour, mr.TTL("irradiation:daily:12.3457:-1.5000"))
}

func TestDailyIrradiation_DoesNotCacheFallback(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	server, calls := pvgisServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newTestClient(t, server.URL, NewRedisCache(rdb, time.Hour))

	c.DailyIrradiation(context.Background(), 1, 1)
	c.DailyIrradiation(context.Background(), 1, 1)

	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	assert.False(t, mr.Exists(CacheKey(1, 1)))
}

func TestDailyIrradiation_CacheDownStillLive(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	mr.Close()
	server, _ := pvgisServer(t, dailyOK(5.9))

	irr := newTestClient(t, server.URL, NewRedisCache(rdb, time.Hour)).DailyIrradiation(context.Background(), 3, 3)

	assert.True(t, irr.IsLive)
	assert.Equal(t, 5.9, irr.ValueKwhPerM2PerDay)
}
