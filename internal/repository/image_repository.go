package repository

import (
	"context"
	"strings"

	"github.com/anime-shed/ai-image-inspector-go/internal/storage"
)

// RemoteImageRepository implements ImageRepository on top of an ImageFetcher
type RemoteImageRepository struct {
	fetcher   storage.ImageFetcher
	validator URLValidator
}

// NewRemoteImageRepository creates a new image repository
func NewRemoteImageRepository(fetcher storage.ImageFetcher, validator URLValidator) ImageRepository {
	return &RemoteImageRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchImage validates the URL, then retrieves the image bytes
func (r *RemoteImageRepository) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	data, err := r.fetcher.FetchImage(ctx, strings.TrimSpace(imageURL))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *RemoteImageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}
