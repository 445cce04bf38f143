package scraped

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"
)

const requestRateLimit = 30 // requests per minute; the scrape endpoint is fragile

// Client drives the single action-parameterized scrape endpoint. Every call
// is a GET with an "action" value and a shared access-token query parameter.
type Client struct {
	baseURL     string
	accessToken string
	windows1251 bool
	httpClient  *http.Client
	limiter     *rate.Limiter
	attempts    int
	baseDelay   time.Duration
	cache       *ResponseCache
	logger      *zap.Logger
}

func NewClient(baseURL, accessToken string, windows1251 bool, timeout time.Duration,
	attempts int, baseDelay time.Duration, cache *ResponseCache, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		windows1251: windows1251,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Every(time.Minute/requestRateLimit), requestRateLimit),
		attempts:    attempts,
		baseDelay:   baseDelay,
		cache:       cache,
		logger:      logger,
	}
}

// CategoryTree returns the full nested tree (up to 3 levels). Degrades to
// an empty slice when retries are exhausted.
func (c *Client) CategoryTree(ctx context.Context) ([]CategoryNode, error) {
	if cached, ok := c.cache.Get("categories"); ok {
		return cached.([]CategoryNode), nil
	}

	params := url.Values{"action": {"categories"}}
	var resp CategoriesResponse
	if err := c.getJSON(ctx, params, &resp); err != nil {
		c.logger.Warn("category tree request degraded to empty result", zap.Error(err))
		return nil, nil
	}

	c.cache.Set("categories", resp.Categories)
	return resp.Categories, nil
}

// Browse returns one page of items listed under a source category key.
func (c *Client) Browse(ctx context.Context, categoryKey string, page int) (*BrowseResponse, error) {
	cacheKey := fmt.Sprintf("browse:%s:%d", categoryKey, page)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*BrowseResponse), nil
	}

	params := url.Values{
		"action":   {"browse"},
		"category": {categoryKey},
		"page":     {strconv.Itoa(page)},
	}
	var resp BrowseResponse
	if err := c.getJSON(ctx, params, &resp); err != nil {
		c.logger.Warn("browse request degraded to empty result",
			zap.String("category", categoryKey), zap.Int("page", page), zap.Error(err))
		return &BrowseResponse{Page: page, Pages: page}, nil
	}

	c.cache.Set(cacheKey, &resp)
	return &resp, nil
}

// BrowseAll walks every page of a source category.
func (c *Client) BrowseAll(ctx context.Context, categoryKey string) ([]BrowseItem, error) {
	var items []BrowseItem
	for page := 1; ; page++ {
		resp, err := c.Browse(ctx, categoryKey, page)
		if err != nil {
			return items, err
		}
		items = append(items, resp.Items...)
		if len(resp.Items) == 0 || resp.Pages <= page {
			break
		}
	}
	return items, nil
}

func (c *Client) Invalidate() {
	c.cache.Invalidate()
}

func (c *Client) getJSON(ctx context.Context, params url.Values, out interface{}) error {
	params.Set("access_token", c.accessToken)
	target := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

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
		c.logger.Debug("scrape request failed",
			zap.String("action", params.Get("action")), zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, target string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if c.windows1251 {
		body = transform.NewReader(resp.Body, charmap.Windows1251.NewDecoder())
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
