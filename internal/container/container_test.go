package container

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anime-shed/ai-image-inspector-go/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:                  "127.0.0.1",
		Port:                  "0",
		RequestTimeout:        time.Second,
		ImageFetchTimeout:     time.Second,
		AnalysisTimeout:       time.Second,
		MaxRequestBodySize:    1 << 20,
		MaxImagePixels:        1_000_000,
		MaxConcurrentAnalyses: 1,
		LogLevel:              "error",
		GinMode:               "test",
	}
}

func TestNewContainer(t *testing.T) {
	c, err := NewContainer(testConfig())
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer c.Shutdown()

	if got := c.events.ObserverNames(); len(got) != 2 {
		t.Errorf("Expected logging and metrics observers, got %v", got)
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from health, got %d", w.Code)
	}
}

func TestNewContainer_Errors(t *testing.T) {
	if _, err := NewContainer(nil); err == nil {
		t.Error("Expected error for nil config")
	}

	cfg := testConfig()
	cfg.AzureStorageAccount = "acct"
	cfg.AzureStorageKey = "not base64!"
	if _, err := NewContainer(cfg); err == nil {
		t.Error("Expected error for an invalid azure key")
	}
}
