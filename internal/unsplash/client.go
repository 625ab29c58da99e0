// Package unsplash is a minimal client for the Unsplash API: random photo
// batches, the image CDN transform endpoint, and download attribution
// tracking.
package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/connorshinn/unsplash-Backgrounds/internal/cachekey"
)

const DefaultBaseURL = "https://api.unsplash.com"

// ErrForbidden is returned on HTTP 403, usually a Demo API key hitting an
// endpoint it is not allowed to use.
var ErrForbidden = errors.New("unsplash: access forbidden")

// RateLimitError is returned on HTTP 429 and carries the upstream
// Retry-After value in seconds. This layer never retries on its own.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("unsplash: rate limited, retry after %d seconds", e.RetryAfter)
}

// APIError is returned for any other non-2xx response from the API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unsplash: api error status %d: %s", e.Status, e.Body)
}

// Photo is the subset of the random-photo response the cache cares about.
type Photo struct {
	ID   string `json:"id"`
	URLs struct {
		Raw string `json:"raw"`
	} `json:"urls"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
	Links struct {
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
}

type Client struct {
	http      *http.Client
	baseURL   *url.URL
	accessKey string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

func New(accessKey string, opts ...Option) (*Client, error) {
	if accessKey == "" {
		return nil, errors.New("accessKey required")
	}
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		baseURL:   u,
		accessKey: accessKey,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Random fetches count random landscape photos matching the given filters.
// Topic slugs are mapped to IDs before transmission since the random
// endpoint only accepts IDs.
func (c *Client) Random(ctx context.Context, p cachekey.Params, count int) ([]Photo, error) {
	u := *c.baseURL
	u.Path = "/photos/random"

	q := u.Query()
	q.Set("client_id", c.accessKey)
	q.Set("orientation", "landscape")
	q.Set("count", strconv.Itoa(count))
	if p.Collections != "" {
		q.Set("collections", p.Collections)
	}
	if p.Topics != "" {
		q.Set("topics", TopicSlugsToIDs(p.Topics))
	}
	if p.Query != "" {
		q.Set("query", p.Query)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch random photos: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 3600
		if v, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			retryAfter = v
		}
		return nil, &RateLimitError{RetryAfter: retryAfter}
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var photos []Photo
	if err := json.NewDecoder(resp.Body).Decode(&photos); err != nil {
		return nil, fmt.Errorf("unmarshal random photos: %w", err)
	}
	return photos, nil
}

// TrackDownload notifies Unsplash that a photo was used, per the API
// attribution guidelines. Callers treat failures as ignorable.
func (c *Client) TrackDownload(ctx context.Context, downloadLocation string) error {
	if downloadLocation == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadLocation, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("track download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("track download status %d", resp.StatusCode)
	}
	return nil
}
