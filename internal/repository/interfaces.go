// Package repository gives the service layer validated access to remote images.
package repository

import "context"

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage validates imageURL and retrieves the raw image bytes
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// URLValidator checks a URL before it is fetched
type URLValidator interface {
	ValidateImageURL(imageURL string) error
}
