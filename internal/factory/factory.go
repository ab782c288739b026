package factory

import (
	"context"
	"fmt"

	"github.com/anime-shed/ai-image-inspector-go/internal/analyzer"
	"github.com/anime-shed/ai-image-inspector-go/internal/config"
	"github.com/anime-shed/ai-image-inspector-go/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
	// CreateFetcher returns a fetcher that picks a backend per URL.
	CreateFetcher() (storage.ImageFetcher, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(storage.HTTPFetcherOptions{
			Timeout:  f.cfg.ImageFetchTimeout,
			MaxBytes: f.cfg.MaxRequestBodySize,
		}), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureBlobFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.MaxRequestBodySize)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// CreateFetcher wires the HTTP fetcher and, when configured, the Azure blob
// fetcher behind a single URL router.
func (f *storageFactory) CreateFetcher() (storage.ImageFetcher, error) {
	httpFetcher, err := f.CreateStorage(HTTPStorage)
	if err != nil {
		return nil, err
	}
	router := &routingFetcher{http: httpFetcher}
	if f.cfg.AzureEnabled() {
		if router.blob, err = f.CreateStorage(AzureStorage); err != nil {
			return nil, err
		}
	}
	return router, nil
}

// routingFetcher sends blob-endpoint URLs to the Azure fetcher and
// everything else over HTTP.
type routingFetcher struct {
	http storage.ImageFetcher
	blob storage.ImageFetcher
}

func (r *routingFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if r.blob != nil && storage.IsBlobURL(imageURL) {
		return r.blob.FetchImage(ctx, imageURL)
	}
	return r.http.FetchImage(ctx, imageURL)
}

// NewAnalyzer builds the image analyzer from configuration
func NewAnalyzer(cfg *config.Config) analyzer.ImageAnalyzer {
	return analyzer.NewImageAnalyzer(analyzer.DefaultOptions().WithMaxImagePixels(cfg.MaxImagePixels))
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(cfg),
	}
}
