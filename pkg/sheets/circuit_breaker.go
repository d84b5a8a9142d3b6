package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Fetcher downloads a sheet export
type Fetcher interface {
	FetchCSV(ctx context.Context) ([]byte, error)
	URL() string
}

// ResilientClient wraps a sheet fetcher with a circuit breaker and an optional shared cache
type ResilientClient struct {
	fetcher Fetcher
	cache   *CacheClient
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

// NewResilientClient creates a resilient sheet client; cache may be nil
func NewResilientClient(fetcher Fetcher, cache *CacheClient, logger *logrus.Logger) *ResilientClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Sheet",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientClient{
		fetcher: fetcher,
		cache:   cache,
		breaker: breaker,
		logger:  logger,
	}
}

// FetchCSV returns the sheet export from the shared cache or the upstream sheet
func (r *ResilientClient) FetchCSV(ctx context.Context) ([]byte, error) {
	if r.cache != nil {
		body, found, err := r.cache.GetSheet(ctx, r.fetcher.URL())
		if err != nil {
			r.logger.WithError(err).Warn("Shared sheet cache unavailable")
		} else if found {
			return body, nil
		}
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.fetcher.FetchCSV(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("sheet download failed: %w", err)
	}

	body := result.([]byte)

	if r.cache != nil {
		if err := r.cache.SetSheet(ctx, r.fetcher.URL(), body, 0); err != nil {
			r.logger.WithError(err).Warn("Failed to populate shared sheet cache")
		}
	}

	return body, nil
}

// URL returns the upstream export address
func (r *ResilientClient) URL() string {
	return r.fetcher.URL()
}

// State returns the circuit breaker state
func (r *ResilientClient) State() gobreaker.State {
	return r.breaker.State()
}
