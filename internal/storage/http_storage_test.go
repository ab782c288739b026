package storage

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anime-shed/ai-image-inspector-go/internal/fixtures"
)

func testFetcher() *HTTPImageFetcher {
	opts := DefaultHTTPFetcherOptions()
	opts.Backoff = 10 * time.Millisecond
	return NewHTTPImageFetcher(opts)
}

func TestHTTPImageFetcher_RetryLogic(t *testing.T) {
	pngData := fixtures.PNG(fixtures.Solid(1, 1, color.White))

	tests := []struct {
		name          string
		responses     []int // Status codes to return in sequence
		expectRetries int   // Expected number of requests
		expectError   bool
		errorContains string
	}{
		{
			name:          "Success on first attempt",
			responses:     []int{200},
			expectRetries: 1,
		},
		{
			name:          "Success on second attempt after 5xx",
			responses:     []int{500, 200},
			expectRetries: 2,
		},
		{
			name:          "4xx client error - no retry",
			responses:     []int{404},
			expectRetries: 1,
			expectError:   true,
			errorContains: "client error: status code 404",
		},
		{
			name:          "4xx after 5xx - should retry until 4xx then stop",
			responses:     []int{500, 404},
			expectRetries: 2,
			expectError:   true,
			errorContains: "client error: status code 404",
		},
		{
			name:          "All 5xx errors - retry all attempts",
			responses:     []int{500, 502, 503},
			expectRetries: 3,
			expectError:   true,
			errorContains: "server error: status code 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requestCount atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(requestCount.Add(1)) - 1
				if n >= len(tt.responses) {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				if status := tt.responses[n]; status != http.StatusOK {
					w.WriteHeader(status)
					fmt.Fprintf(w, "Error %d", status)
					return
				}
				w.Header().Set("Content-Type", "image/png")
				w.Write(pngData)
			}))
			defer server.Close()

			data, err := testFetcher().FetchImage(context.Background(), server.URL)

			if got := int(requestCount.Load()); got != tt.expectRetries {
				t.Errorf("Expected %d requests, got %d", tt.expectRetries, got)
			}

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error, but got none")
				} else if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error to contain '%s', got: %s", tt.errorContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %s", err.Error())
			}
			if string(data) != string(pngData) {
				t.Errorf("Expected %d body bytes, got %d", len(pngData), len(data))
			}
		})
	}
}

func TestHTTPImageFetcher_NetworkError_Retry(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestCount.Add(1) < 3 {
			// Simulate network error by closing connection
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		w.Write([]byte("image bytes"))
	}))
	defer server.Close()

	start := time.Now()
	data, err := testFetcher().FetchImage(context.Background(), server.URL)
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Expected success after retries, got error: %s", err.Error())
	}
	if string(data) != "image bytes" {
		t.Errorf("Unexpected body %q", data)
	}
	if requestCount.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount.Load())
	}
	// linear backoff: 10ms + 20ms
	if duration < 30*time.Millisecond {
		t.Errorf("Expected at least 30ms due to backoff, took %v", duration)
	}
}

func TestHTTPImageFetcher_SizeLimit(t *testing.T) {
	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	opts := DefaultHTTPFetcherOptions()
	opts.MaxBytes = 1024
	_, err := NewHTTPImageFetcher(opts).FetchImage(context.Background(), server.URL)

	if !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("Expected ErrImageTooLarge, got %v", err)
	}
	if requestCount.Load() != 1 {
		t.Errorf("Expected oversized body not to be retried, got %d requests", requestCount.Load())
	}
}

func TestHTTPImageFetcher_InvalidURL(t *testing.T) {
	_, err := testFetcher().FetchImage(context.Background(), "://missing-scheme")
	if err == nil || !strings.Contains(err.Error(), "invalid URL") {
		t.Errorf("Expected invalid URL error, got %v", err)
	}
}

func TestHTTPImageFetcher_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	opts := DefaultHTTPFetcherOptions()
	opts.Backoff = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewHTTPImageFetcher(opts).FetchImage(ctx, server.URL)
	if err == nil {
		t.Fatal("Expected error")
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Errorf("Expected backoff to stop when the context ends, took %v", time.Since(start))
	}
}
