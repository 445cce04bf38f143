package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"catalogsync_api/internal/suppliers/structured/dto"
)

const requestRateLimit = 60 // requests per minute

// Client talks to the structured feed: bearer-token REST, JSON lists,
// stable numeric identifiers. Transport failures are retried with capped
// exponential backoff; exhausting retries degrades to an empty list so
// downstream treats "no data" as a normal (if unproductive) outcome.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   int
	baseDelay  time.Duration
	logger     *zap.Logger
	AuthEngine
}

func NewClient(baseURL string, auth AuthEngine, timeout time.Duration, attempts int, baseDelay time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/requestRateLimit), requestRateLimit),
		attempts:   attempts,
		baseDelay:  baseDelay,
		logger:     logger,
		AuthEngine: auth,
	}
}

func (c *Client) Categories(ctx context.Context) ([]dto.CategoryRecord, error) {
	var resp dto.CategoriesResponse
	if err := c.getJSON(ctx, "/api/categories", nil, &resp); err != nil {
		c.logger.Warn("categories request degraded to empty result", zap.Error(err))
		return nil, nil
	}
	return resp.Data, nil
}

func (c *Client) Manufacturers(ctx context.Context) ([]dto.ManufacturerRecord, error) {
	var resp dto.ManufacturersResponse
	if err := c.getJSON(ctx, "/api/manufacturers", nil, &resp); err != nil {
		c.logger.Warn("manufacturers request degraded to empty result", zap.Error(err))
		return nil, nil
	}
	return resp.Data, nil
}

func (c *Client) ParametersByCategory(ctx context.Context, categoryID int64) ([]dto.ParameterRecord, error) {
	params := url.Values{"category_id": {strconv.FormatInt(categoryID, 10)}}
	var resp dto.ParametersResponse
	if err := c.getJSON(ctx, "/api/parameters", params, &resp); err != nil {
		c.logger.Warn("parameters request degraded to empty result",
			zap.Int64("category_id", categoryID), zap.Error(err))
		return nil, nil
	}
	return resp.Data, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64) ([]dto.ProductRecord, error) {
	params := url.Values{"category_id": {strconv.FormatInt(categoryID, 10)}}
	var resp dto.ProductsResponse
	if err := c.getJSON(ctx, "/api/products", params, &resp); err != nil {
		c.logger.Warn("products request degraded to empty result",
			zap.Int64("category_id", categoryID), zap.Error(err))
		return nil, nil
	}
	return resp.Data, nil
}

func (c *Client) DocumentsByProduct(ctx context.Context, productID int64) ([]dto.DocumentRecord, error) {
	params := url.Values{"product_id": {strconv.FormatInt(productID, 10)}}
	var resp dto.DocumentsResponse
	if err := c.getJSON(ctx, "/api/documents", params, &resp); err != nil {
		c.logger.Warn("documents request degraded to empty result",
			zap.Int64("product_id", productID), zap.Error(err))
		return nil, nil
	}
	return resp.Data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target = fmt.Sprintf("%s?%s", target, params.Encode())
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			if delay > 30*time.Second {
				delay = 30 * time.Second
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		if lastErr = c.doOnce(ctx, target, out); lastErr == nil {
			return nil
		}
		c.logger.Debug("structured feed request failed",
			zap.String("url", target), zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, target string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.AuthEngine != nil {
		c.SetApiKey(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
