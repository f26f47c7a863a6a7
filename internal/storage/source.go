package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// RoutingSource sends Azure blob URLs to the blob source and everything
// else to the HTTP source
type RoutingSource struct {
	httpSource ImageSource
	blobSource ImageSource
}

// NewRoutingSource creates a source router. blobSource may be nil when
// Azure is not configured; blob URLs then fail with a clear error.
func NewRoutingSource(httpSource, blobSource ImageSource) *RoutingSource {
	return &RoutingSource{httpSource: httpSource, blobSource: blobSource}
}

// Fetch routes by host
func (r *RoutingSource) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if strings.HasSuffix(parsed.Hostname(), ".blob.core.windows.net") {
		if r.blobSource == nil {
			return nil, "", fmt.Errorf("azure blob storage is not configured")
		}
		return r.blobSource.Fetch(ctx, imageURL)
	}
	return r.httpSource.Fetch(ctx, imageURL)
}
