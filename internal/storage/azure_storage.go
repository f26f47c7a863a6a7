package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureImageSource fetches images from Azure Blob Storage. Blob URLs carry
// the container in the path and the blob name in the "blob" query param.
type AzureImageSource struct {
	client *azblob.Client
}

// NewAzureImageSource creates a blob-backed image source
func NewAzureImageSource(accountName, accountKey string) (*AzureImageSource, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &AzureImageSource{client: client}, nil
}

// Fetch downloads the blob identified by blobURL
func (s *AzureImageSource) Fetch(ctx context.Context, blobURL string) ([]byte, string, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid blob URL: %w", err)
	}
	if len(parsedURL.Path) < 2 {
		return nil, "", fmt.Errorf("blob URL is missing a container path")
	}

	containerName := parsedURL.Path[1:] // Remove leading slash
	blobName := parsedURL.Query().Get("blob")
	if blobName == "" {
		return nil, "", fmt.Errorf("blob URL is missing the blob query parameter")
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := io.ReadAll(retryReader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read blob: %w", err)
	}

	contentType := ""
	if downloadResponse.ContentType != nil {
		contentType = *downloadResponse.ContentType
	}
	return data, contentType, nil
}
