package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxAttempts    = 3
	DefaultRetryDelay     = 5 * time.Second
	DefaultCallDelay      = 100 * time.Millisecond
	DefaultBatchPause     = time.Second
)

var errUnexpectedStatus = errors.New("unexpected status")

type Config struct {
	BaseURL     string
	Token       string
	RetailerGLN string

	RequestTimeout time.Duration
	// MaxAttempts bounds availability lookups that time out.
	MaxAttempts int
	RetryDelay  time.Duration
	// CallDelay paces consecutive availability lookups within a batch.
	CallDelay time.Duration
	// BatchPause separates batches in sequential mode.
	BatchPause time.Duration
}

func DefaultConfig(baseURL, token, retailerGLN string) Config {
	return Config{
		BaseURL:        baseURL,
		Token:          token,
		RetailerGLN:    retailerGLN,
		RequestTimeout: DefaultRequestTimeout,
		MaxAttempts:    DefaultMaxAttempts,
		RetryDelay:     DefaultRetryDelay,
		CallDelay:      DefaultCallDelay,
		BatchPause:     DefaultBatchPause,
	}
}

type Client struct {
	baseURL     string
	token       string
	retailerGLN string
	maxAttempts int
	retryDelay  time.Duration
	callDelay   time.Duration
	batchPause  time.Duration
	httpClient  *http.Client
	logger      logger.ZapLogger
}

var _ stock.Client = (*Client)(nil)

func NewClient(cfg Config, log logger.ZapLogger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		retailerGLN: cfg.RetailerGLN,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  nonNegative(cfg.RetryDelay),
		callDelay:   nonNegative(cfg.CallDelay),
		batchPause:  nonNegative(cfg.BatchPause),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: log,
	}
}

// ListGtinsWithStock returns every GTIN the supplier currently reports stock for.
// It makes a single attempt.
func (c *Client) ListGtinsWithStock(ctx context.Context, supplierGLN string) ([]string, error) {
	const op = "list gtins with stock"
	if c.token == "" {
		return nil, &stock.APIError{Op: op, Err: stock.ErrMissingToken}
	}

	endpoint := fmt.Sprintf("/supplierStockData/articlesWithStock/%s/%s",
		url.PathEscape(supplierGLN), url.PathEscape(c.retailerGLN))

	var gtins []string
	if err := c.doRequest(ctx, endpoint, url.Values{"token": {c.token}}, &gtins); err != nil {
		var apiErr *stock.APIError
		if errors.As(err, &apiErr) {
			apiErr.Op = op
			return nil, apiErr
		}
		return nil, &stock.APIError{Op: op, Err: err}
	}
	return gtins, nil
}

// GetAvailability never fails: timeouts are retried up to maxAttempts, any
// other error gives up at once, and both end in an empty response.
func (c *Client) GetAvailability(ctx context.Context, gtin, supplierGLN string) dto.AvailabilityResponse {
	log := c.logger.With(zap.String("gtin", gtin), zap.String("supplier_gln", supplierGLN))
	if c.token == "" {
		log.Error("Skipping availability lookup", zap.Error(stock.ErrMissingToken))
		metrics.RecordAvailability(metrics.OutcomeError)
		return dto.AvailabilityResponse{}
	}

	endpoint := "/supplierStockData/availabilities/" + url.PathEscape(gtin)
	query := url.Values{
		"supplierGln": {supplierGLN},
		"retailerGln": {c.retailerGLN},
		"stockType":   {"1"},
		"token":       {c.token},
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		var resp dto.AvailabilityResponse
		err := c.doRequest(ctx, endpoint, query, &resp)
		if err == nil {
			metrics.RecordAvailability(metrics.OutcomeOK)
			return resp
		}

		if ctx.Err() != nil || !isTimeout(err) {
			log.Error("Availability lookup failed", zap.Int("attempt", attempt), zap.Error(err))
			metrics.RecordAvailability(metrics.OutcomeError)
			return dto.AvailabilityResponse{}
		}

		log.Warn("Availability lookup timed out",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
		)
		if attempt < c.maxAttempts && !sleep(ctx, c.retryDelay) {
			metrics.RecordAvailability(metrics.OutcomeError)
			return dto.AvailabilityResponse{}
		}
	}

	log.Error("Availability lookup gave up after repeated timeouts", zap.Int("attempts", c.maxAttempts))
	metrics.RecordAvailability(metrics.OutcomeTimeout)
	return dto.AvailabilityResponse{}
}

func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values, response interface{}) error {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error repeats the full URL, token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("request was cancelled: %w", err)
		default:
			return fmt.Errorf("failed to execute request: %w", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &stock.APIError{Op: endpoint, StatusCode: resp.StatusCode, Err: errUnexpectedStatus}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
