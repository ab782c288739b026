package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

const blobHostSuffix = ".blob.core.windows.net"

// BlobLocation identifies a blob inside an Azure storage account.
type BlobLocation struct {
	Account   string
	Container string
	Blob      string
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob>.
func ParseBlobURL(blobURL string) (BlobLocation, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return BlobLocation{}, fmt.Errorf("invalid blob URL: %w", err)
	}
	host := strings.ToLower(parsedURL.Hostname())
	if !strings.HasSuffix(host, blobHostSuffix) {
		return BlobLocation{}, fmt.Errorf("invalid blob URL: host %q is not a blob endpoint", host)
	}

	container, blob, ok := strings.Cut(strings.TrimPrefix(parsedURL.Path, "/"), "/")
	if !ok || container == "" || blob == "" {
		return BlobLocation{}, fmt.Errorf("invalid blob URL: expected /<container>/<blob>, got %q", parsedURL.Path)
	}

	return BlobLocation{
		Account:   strings.TrimSuffix(host, blobHostSuffix),
		Container: container,
		Blob:      blob,
	}, nil
}

// IsBlobURL reports whether imageURL points at an Azure blob endpoint.
func IsBlobURL(imageURL string) bool {
	_, err := ParseBlobURL(imageURL)
	return err == nil
}

// AzureBlobFetcher downloads images from one storage account with a shared key.
type AzureBlobFetcher struct {
	account  string
	client   *azblob.Client
	maxBytes int64
}

// NewAzureBlobFetcher creates a fetcher authenticated against accountName.
func NewAzureBlobFetcher(accountName, accountKey string, maxBytes int64) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, blobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	if maxBytes <= 0 {
		maxBytes = DefaultHTTPFetcherOptions().MaxBytes
	}
	return &AzureBlobFetcher{account: strings.ToLower(accountName), client: client, maxBytes: maxBytes}, nil
}

// Account returns the storage account the fetcher is bound to.
func (s *AzureBlobFetcher) Account() string {
	return s.account
}

// FetchImage downloads the blob addressed by blobURL.
func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobURL string) ([]byte, error) {
	loc, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}
	if loc.Account != s.account {
		return nil, fmt.Errorf("blob account %q does not match configured account %q", loc.Account, s.account)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, loc.Container, loc.Blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := downloadResponse.Body
	defer body.Close()

	return readLimited(body, s.maxBytes)
}
