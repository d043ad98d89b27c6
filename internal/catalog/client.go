package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// Sentinel errors for expected upstream failure modes.
var (
	ErrUnauthorized = errors.New("storefront rejected access token")
	ErrNotFound     = errors.New("storefront resource not found")
)

// Client is a Shopify Admin REST API client. It holds no per-store state:
// credentials are passed per call, so a single Client is shared across
// concurrent requests. The rate limiter protects the upstream API
// process-wide.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new catalog client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:     logger.With("component", "catalog"),
	}
}

// baseURL builds the Admin API base for a store domain. A scheme in the
// domain is honored so tests can point at local servers.
func (c *Client) baseURL(domain string) string {
	if strings.Contains(domain, "://") {
		return fmt.Sprintf("%s/admin/api/%s", strings.TrimSuffix(domain, "/"), c.cfg.APIVersion)
	}
	return fmt.Sprintf("https://%s/admin/api/%s", domain, c.cfg.APIVersion)
}

// get performs one authenticated GET against the Admin API. The caller owns
// the response body.
func (c *Client) get(ctx context.Context, creds Credentials, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storefront request failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, fmt.Errorf("storefront returned status %d", resp.StatusCode)
	}

	return resp, nil
}

// getJSON performs a GET and decodes the response body into out.
func (c *Client) getJSON(ctx context.Context, creds Credentials, rawURL string, out interface{}) error {
	resp, err := c.get(ctx, creds, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode storefront response: %w", err)
	}
	return nil
}

// TestConnection performs a lightweight authenticated probe against the
// shop endpoint. Expected failures (bad token, network error, unreachable
// domain) are reported in the returned status, never as an error.
func (c *Client) TestConnection(ctx context.Context, creds Credentials) ConnectionStatus {
	var body struct {
		Shop struct {
			Name string `json:"name"`
		} `json:"shop"`
	}

	err := c.getJSON(ctx, creds, c.baseURL(creds.Domain)+"/shop.json", &body)
	if err != nil {
		c.logger.Warn("Connection probe failed", "domain", creds.Domain, "error", err)
		msg := "Could not reach store: " + err.Error()
		if errors.Is(err, ErrUnauthorized) {
			msg = "Invalid access token for " + creds.Domain
		}
		return ConnectionStatus{Connected: false, Error: msg}
	}

	return ConnectionStatus{Connected: true, ShopName: body.Shop.Name}
}

// GetProductCount returns the authoritative remote product count.
// Used only for diagnostics.
func (c *Client) GetProductCount(ctx context.Context, creds Credentials) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	if err := c.getJSON(ctx, creds, c.baseURL(creds.Domain)+"/products/count.json", &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

// GetAllProducts retrieves the full catalog, paginating via the Link header
// until exhausted. An empty catalog returns an empty slice, not an error.
func (c *Client) GetAllProducts(ctx context.Context, creds Credentials) ([]RawProduct, error) {
	products := []RawProduct{}
	pageInfo := ""

	for {
		u := fmt.Sprintf("%s/products.json?limit=%d", c.baseURL(creds.Domain), c.cfg.PageSize)
		if pageInfo != "" {
			u += "&page_info=" + url.QueryEscape(pageInfo)
		}

		resp, err := c.get(ctx, creds, u)
		if err != nil {
			return nil, err
		}

		var body struct {
			Products []RawProduct `json:"products"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&body)
		link := resp.Header.Get("Link")
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode storefront response: %w", decodeErr)
		}

		products = append(products, body.Products...)

		pageInfo = nextPageInfo(link)
		if pageInfo == "" || len(body.Products) == 0 {
			break
		}
	}

	c.logger.Debug("Catalog fetched", "domain", creds.Domain, "products", len(products))
	return products, nil
}

// nextPageInfo extracts the page_info cursor from a Shopify Link header,
// e.g. `<https://x.myshopify.com/admin/api/2024-01/products.json?page_info=abc&limit=250>; rel="next"`.
// Returns "" when there is no next page.
func nextPageInfo(linkHeader string) string {
	for _, part := range strings.Split(linkHeader, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start == -1 || end == -1 || end <= start {
			continue
		}
		u, err := url.Parse(part[start+1 : end])
		if err != nil {
			continue
		}
		return u.Query().Get("page_info")
	}
	return ""
}
