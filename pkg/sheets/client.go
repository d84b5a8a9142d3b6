package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/checkup-report-server/internal/domain"
)

const maxSheetBytes = 32 << 20

// ErrSheetTooLarge is returned when the export exceeds the download limit
var ErrSheetTooLarge = errors.New("sheet export exceeds size limit")

// Client downloads the published CSV export of a checkup sheet
type Client struct {
	url        string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	retryCount int
	backoff    time.Duration
	maxBytes   int64
	logger     *logrus.Logger
}

// StatusError is returned when the sheet endpoint answers with a non-200 status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sheet export returned status %d", e.StatusCode)
}

// Retryable reports whether the request is worth repeating.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewClient creates a sheet client from data source configuration
func NewClient(config domain.DataSourceConfig, logger *logrus.Logger) (*Client, error) {
	if strings.TrimSpace(config.SheetURL) == "" {
		return nil, fmt.Errorf("sheet URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 1
	}
	if config.RetryCount < 0 {
		config.RetryCount = 0
	}

	return &Client{
		url: config.SheetURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		retryCount: config.RetryCount,
		backoff:    500 * time.Millisecond,
		maxBytes:   maxSheetBytes,
		logger:     logger,
	}, nil
}

// URL returns the export address the client reads from
func (c *Client) URL() string {
	return c.url
}

// FetchCSV downloads the sheet export, retrying transient failures
func (c *Client) FetchCSV(ctx context.Context) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"wait_ms": wait.Milliseconds(),
			}).WithError(lastErr).Warn("Retrying sheet download")

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.fetchOnce(ctx)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			break
		}
		if errors.Is(err, ErrSheetTooLarge) {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("failed to download sheet after %d attempt(s): %w", c.retryCount+1, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) ([]byte, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	// one byte past the limit tells a full sheet from a truncated one
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSheetTooLarge, c.maxBytes)
	}

	return body, nil
}
