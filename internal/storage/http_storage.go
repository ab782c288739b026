package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anime-shed/ai-image-inspector-go/internal/logger"
	"github.com/sirupsen/logrus"
)

// ImageFetcher downloads the raw bytes of a remote image.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// ErrImageTooLarge is returned when a download exceeds the configured limit.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// HTTPFetcherOptions tune HTTPImageFetcher.
type HTTPFetcherOptions struct {
	// Timeout bounds a single attempt, including reading the body.
	Timeout time.Duration
	// MaxBytes caps the downloaded body.
	MaxBytes int64
	// MaxAttempts is the number of tries for retryable failures.
	MaxAttempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

// DefaultHTTPFetcherOptions returns the production defaults.
func DefaultHTTPFetcherOptions() HTTPFetcherOptions {
	return HTTPFetcherOptions{
		Timeout:     30 * time.Second,
		MaxBytes:    10 * 1024 * 1024,
		MaxAttempts: 3,
		Backoff:     time.Second,
	}
}

// HTTPImageFetcher implements ImageFetcher over plain HTTP(S)
type HTTPImageFetcher struct {
	client  *http.Client
	options HTTPFetcherOptions
}

// NewHTTPImageFetcher creates an HTTP image fetcher
func NewHTTPImageFetcher(options HTTPFetcherOptions) *HTTPImageFetcher {
	defaults := DefaultHTTPFetcherOptions()
	if options.Timeout <= 0 {
		options.Timeout = defaults.Timeout
	}
	if options.MaxBytes <= 0 {
		options.MaxBytes = defaults.MaxBytes
	}
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = defaults.MaxAttempts
	}
	if options.Backoff < 0 {
		options.Backoff = 0
	}

	// Connection pooling sized for single image downloads
	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 16 << 10,
	}

	return &HTTPImageFetcher{
		options: options,
		client: &http.Client{
			Transport: transport,
			Timeout:   options.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// FetchImage downloads imageURL. 5xx responses and transport errors are
// retried with linear backoff; 4xx responses fail immediately.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "AI-Image-Inspector/1.0")

	var lastErr error
	for attempt := 0; attempt < h.options.MaxAttempts; attempt++ {
		data, retryable, err := h.attempt(req)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable || attempt == h.options.MaxAttempts-1 {
			break
		}

		logger.WithFields(logrus.Fields{
			"url":     imageURL,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("Image fetch failed, retrying")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to fetch image: %w", ctx.Err())
		case <-time.After(time.Duration(attempt+1) * h.options.Backoff):
		}
	}

	return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", h.options.MaxAttempts, lastErr)
}

// attempt performs one request and reports whether a failure may be retried.
func (h *HTTPImageFetcher) attempt(req *http.Request) ([]byte, bool, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, req.Context().Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := readLimited(resp.Body, h.options.MaxBytes)
	if err != nil {
		return nil, !errors.Is(err, ErrImageTooLarge), err
	}
	return data, false, nil
}

// readLimited reads at most limit bytes from r, failing when more are available.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrImageTooLarge, limit)
	}
	return data, nil
}
