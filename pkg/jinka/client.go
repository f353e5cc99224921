// Package jinka provides a client for the Jinka apartment-alert API.
package jinka

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Jinka API operations used by the fetch pipeline.
type Client interface {
	// ListAlerts returns the saved search alerts for the account.
	ListAlerts(ctx context.Context) ([]Alert, error)
	// ListApartments returns one page of apartments for an alert.
	ListApartments(ctx context.Context, alertID string, opts ...ListOption) (*ApartmentPage, error)
}

// Alert is one saved search alert.
type Alert struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Apartment is one listing as returned by the Jinka feed.
type Apartment struct {
	ID           string   `json:"id"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Features     string   `json:"features"`
	Price        string   `json:"price"`
	Area         string   `json:"area"`
	Floor        string   `json:"floor"`
	Rooms        string   `json:"rooms"`
	Neighborhood string   `json:"neighborhood"`
	Stations     []string `json:"stations"`
	Images       []string `json:"images"`
}

// ApartmentPage is one page of the apartment feed.
type ApartmentPage struct {
	Apartments []Apartment `json:"apartments"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
}

// ListOption configures an apartment listing request.
type ListOption func(*listOpts)

type listOpts struct {
	page int
}

// WithPage requests a specific feed page (1-based).
func WithPage(page int) ListOption {
	return func(o *listOpts) {
		o.page = page
	}
}

// Option configures the Jinka client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Jinka API client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://api.jinka.fr/apiv2",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body and
// status code on success, or the last error after exhausting retries.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Clone request for retry (body is nil for GET requests).
		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "jinka: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("jinka: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "jinka: create request")
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return eris.Wrap(err, "jinka: request failed")
	}

	if statusCode != http.StatusOK {
		return eris.Errorf("jinka: unexpected status %d: %s", statusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "jinka: unmarshal response")
	}
	return nil
}

func (c *httpClient) ListAlerts(ctx context.Context) ([]Alert, error) {
	var alerts []Alert
	if err := c.get(ctx, "/alerts", &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (c *httpClient) ListApartments(ctx context.Context, alertID string, opts ...ListOption) (*ApartmentPage, error) {
	lo := &listOpts{page: 1}
	for _, opt := range opts {
		opt(lo)
	}

	path := fmt.Sprintf("/alerts/%s/apartments?page=%d", url.PathEscape(alertID), lo.page)

	var page ApartmentPage
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
