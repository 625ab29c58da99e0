package unsplash

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TransformURL builds the CDN URL for a photo's raw image with fixed
// quality/format settings and optional target dimensions. Pure function; a
// bad raw URL is returned unchanged.
func TransformURL(raw, width, height string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	q.Set("auto", "format")
	q.Set("q", "65")
	q.Set("cs", "origin")
	q.Set("dpr", "3")
	if width != "" {
		q.Set("w", width)
	}
	if height != "" {
		q.Set("h", height)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// FetchImage downloads a transformed image. Non-2xx responses and responses
// whose content type is not image/* are rejected so broken candidates never
// make it into the pool.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (data []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetch image status %d", resp.StatusCode)
	}

	contentType = resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("unexpected content type %q", contentType)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}
	return data, contentType, nil
}
