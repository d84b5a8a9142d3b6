package sheets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkup-report-server/internal/domain"
)

const sampleCSV = "HN,ชื่อ-สกุล\n650001,สมชาย ใจดี\n"

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	client, err := NewClient(domain.DataSourceConfig{
		SheetURL:   url,
		Timeout:    5 * time.Second,
		RateLimit:  100,
		RetryCount: retries,
	}, newTestLogger())
	require.NoError(t, err)
	client.backoff = time.Millisecond
	return client
}

func TestClient_FetchCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/csv", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	body, err := newTestClient(t, server.URL, 0).FetchCSV(context.Background())

	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(body))
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	body, err := newTestClient(t, server.URL, 3).FetchCSV(context.Background())

	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 3).FetchCSV(context.Background())

	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RejectsOversizedExport(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	client.maxBytes = int64(len(sampleCSV)) - 1

	body, err := client.FetchCSV(context.Background())

	require.ErrorIs(t, err, ErrSheetTooLarge)
	assert.Nil(t, body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_AcceptsExportAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	client.maxBytes = int64(len(sampleCSV))

	body, err := client.FetchCSV(context.Background())

	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(body))
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(domain.DataSourceConfig{SheetURL: "  "}, newTestLogger())
	assert.Error(t, err)
}

type fakeFetcher struct {
	calls int
	err   error
	body  []byte
}

func (f *fakeFetcher) FetchCSV(context.Context) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

func (f *fakeFetcher) URL() string { return "https://example.invalid/sheet.csv" }

func TestResilientClient_PassesThrough(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(sampleCSV)}
	client := NewResilientClient(fetcher, nil, newTestLogger())

	body, err := client.FetchCSV(context.Background())

	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(body))
	assert.Equal(t, gobreaker.StateClosed, client.State())
	assert.Equal(t, fetcher.URL(), client.URL())
}

func TestResilientClient_OpensAfterRepeatedFailures(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	client := NewResilientClient(fetcher, nil, newTestLogger())

	for i := 0; i < 3; i++ {
		_, err := client.FetchCSV(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.State())

	_, err := client.FetchCSV(context.Background())
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, 3, fetcher.calls)
}

func TestCachedSheetEncoding(t *testing.T) {
	now := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)

	raw, err := encodeCachedSheet([]byte(sampleCSV), now, 5*time.Minute)
	require.NoError(t, err)

	body, ok := decodeCachedSheet(raw, now.Add(time.Minute))
	assert.True(t, ok)
	assert.Equal(t, sampleCSV, string(body))

	_, ok = decodeCachedSheet(raw, now.Add(6*time.Minute))
	assert.False(t, ok, "expired entries are misses")

	_, ok = decodeCachedSheet([]byte("{not json"), now)
	assert.False(t, ok, "corrupted entries are misses")
}

func TestSheetKey(t *testing.T) {
	a := SheetKey("https://example.invalid/a.csv")
	b := SheetKey("https://example.invalid/b.csv")

	assert.Contains(t, a, keyPrefix)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, SheetKey("https://example.invalid/a.csv"))
}

func TestNewCacheClient_InvalidURL(t *testing.T) {
	_, err := NewCacheClient(domain.CacheConfig{RedisURL: "not-a-redis-url"})
	assert.Error(t, err)
}
