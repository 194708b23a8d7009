package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/backoff"
)

// errAbsent marks a 403/404 response: the resource is gone or hidden,
// not a transient failure worth retrying.
var errAbsent = errors.New("resource absent")

type ClientConfig struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	RetryMax     int
	RetryBackoff time.Duration
	PageLimit    int
	MaxPages     int
	MaxSitemaps  int
	PageDelay    time.Duration
	LookupDelay  time.Duration
}

// Client retrieves raw product records from a storefront using either
// of the two interchangeable strategies: bulk catalog paging, or
// sitemap URL enumeration plus per-item lookup.
type Client struct {
	base   *url.URL
	http   *http.Client
	cfg    ClientConfig
	logger *zap.Logger
}

func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 1200 * time.Millisecond
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 250
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 40
	}
	if cfg.MaxSitemaps <= 0 {
		cfg.MaxSitemaps = 30
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		cfg:    cfg,
		logger: logger.Named("storefront"),
	}, nil
}

// BaseURL returns the storefront root used to resolve product pages.
func (c *Client) BaseURL() *url.URL {
	return c.base
}

// ListCatalog pages through the bulk catalog listing until an empty
// page, the page cap, or a retrieval failure. A failure mid-pagination
// returns the records collected so far; the caller falls back to the
// sitemap strategy when nothing came back at all.
func (c *Client) ListCatalog(ctx context.Context) ([]Record, error) {
	var records []Record
	for page := 1; page <= c.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		endpoint := c.base.JoinPath("products.json")
		endpoint.RawQuery = url.Values{
			"limit": {fmt.Sprint(c.cfg.PageLimit)},
			"page":  {fmt.Sprint(page)},
		}.Encode()

		var payload struct {
			Products []Record `json:"products"`
		}
		if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
			if errors.Is(err, errAbsent) || page > 1 {
				c.logger.Warn("catalog page fetch stopped",
					zap.Int("page", page),
					zap.Error(err),
				)
				return records, nil
			}
			return nil, fmt.Errorf("list catalog: %w", err)
		}
		if len(payload.Products) == 0 {
			break
		}
		records = append(records, payload.Products...)
		c.pause(ctx, c.cfg.PageDelay)
	}
	return records, nil
}

// LookupByHandle fetches the per-item record for one handle. An absent
// product yields (nil, nil).
func (c *Client) LookupByHandle(ctx context.Context, handle string) (Record, error) {
	endpoint := c.base.JoinPath("products", handle+".js")
	var rec Record
	if err := c.getJSON(ctx, endpoint.String(), &rec); err != nil {
		if errors.Is(err, errAbsent) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup %s: %w", handle, err)
	}
	return rec, nil
}

// ProductURLs enumerates product page URLs from the storefront's
// product sitemaps. Used when the bulk listing yields nothing.
func (c *Client) ProductURLs(ctx context.Context) ([]string, error) {
	var urls []string
	for idx := 1; idx <= c.cfg.MaxSitemaps; idx++ {
		if err := ctx.Err(); err != nil {
			return urls, err
		}
		endpoint := c.base.JoinPath(fmt.Sprintf("sitemap_products_%d.xml", idx))
		body, err := c.getBody(ctx, endpoint.String())
		if err != nil {
			if errors.Is(err, errAbsent) {
				break
			}
			return urls, fmt.Errorf("fetch sitemap %d: %w", idx, err)
		}
		locs, err := parseSitemap(body)
		if err != nil {
			c.logger.Warn("sitemap parse failed", zap.Int("index", idx), zap.Error(err))
			break
		}
		urls = append(urls, locs...)
		c.pause(ctx, c.cfg.PageDelay)
	}
	return urls, nil
}

// Pace inserts the polite pause between per-item lookups.
func (c *Client) Pace(ctx context.Context) {
	c.pause(ctx, c.cfg.LookupDelay)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.getBody(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) getBody(ctx context.Context, endpoint string) ([]byte, error) {
	wait := backoff.New(c.cfg.RetryBackoff, 10*time.Second)
	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryMax; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := c.getOnce(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, errAbsent) {
			return nil, err
		}
		lastErr = err
		c.logger.Debug("request failed",
			zap.String("url", endpoint),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < c.cfg.RetryMax {
			wait.Sleep(ctx)
		}
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		return io.ReadAll(resp.Body)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: status %d", errAbsent, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
