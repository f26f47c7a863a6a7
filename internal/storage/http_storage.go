package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ImageSource retrieves raw image bytes for analysis. The bytes go to the
// remote model as-is; no local decoding or pre-processing happens here.
type ImageSource interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, string, error)
}

// HTTPImageSource fetches images over HTTP with bounded retries
type HTTPImageSource struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPImageSource creates an HTTP image source. maxBytes caps the
// download; oversized images fail rather than stream unbounded.
func NewHTTPImageSource(timeout time.Duration, maxBytes int64) *HTTPImageSource {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPImageSource{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
	}
}

// Fetch downloads the image, retrying transient failures up to 3 attempts.
// 4xx responses are terminal; 5xx and transport errors are retried. This
// retry discipline covers only the source-image download — the analysis
// call itself is never retried.
func (h *HTTPImageSource) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, */*")
	req.Header.Set("User-Agent", "Leafscan/1.0")

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		resp, err = h.client.Do(req)
		if err != nil {
			lastErr = err
			resp = nil
		} else if resp.StatusCode == http.StatusOK {
			break
		} else {
			code := resp.StatusCode
			resp.Body.Close()
			resp = nil
			if code >= 400 && code < 500 {
				return nil, "", fmt.Errorf("client error: status code %d", code)
			}
			lastErr = fmt.Errorf("server error: status code %d", code)
		}

		if attempt < 2 {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}

	if resp == nil {
		if lastErr != nil {
			return nil, "", fmt.Errorf("failed to fetch image after 3 attempts: %w", lastErr)
		}
		return nil, "", fmt.Errorf("failed to fetch image after 3 attempts: unknown error")
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("unexpected content type %q", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, "", fmt.Errorf("image exceeds size limit of %d bytes", h.maxBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image body is empty")
	}

	return data, contentType, nil
}
