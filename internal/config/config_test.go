package config

import (
	"reflect"
	"runtime"
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "MAX_IMAGE_PIXELS", "MAX_CONCURRENT_ANALYSES", "ALLOWED_URL_HOSTS",
		"AZURE_STORAGE_ACCOUNT", "AZURE_STORAGE_KEY", "AUTH_JWT_SECRET", "LOG_LEVEL", "ANALYSIS_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Expected default address, got %s", cfg.ServerAddress())
	}
	if cfg.MaxImagePixels != 50_000_000 {
		t.Errorf("Expected 50M pixel limit, got %d", cfg.MaxImagePixels)
	}
	if cfg.MaxConcurrentAnalyses != runtime.NumCPU() {
		t.Errorf("Expected NumCPU workers, got %d", cfg.MaxConcurrentAnalyses)
	}
	if cfg.AnalysisTimeout != 20*time.Second {
		t.Errorf("Expected 20s analysis timeout, got %s", cfg.AnalysisTimeout)
	}
	if cfg.AzureEnabled() || cfg.AuthEnabled() {
		t.Error("Expected azure and auth to be disabled by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected info log level, got %s", cfg.LogLevel)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("HOST", " 127.0.0.1 ")
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_IMAGE_PIXELS", "1000")
	t.Setenv("MAX_CONCURRENT_ANALYSES", "3")
	t.Setenv("ALLOWED_URL_HOSTS", "example.com, .cdn.example ,,")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "acct")
	t.Setenv("AZURE_STORAGE_KEY", "a2V5")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ANALYSIS_TIMEOUT", "bogus")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.ServerAddress() != "127.0.0.1:9090" {
		t.Errorf("Expected trimmed address, got %s", cfg.ServerAddress())
	}
	if cfg.MaxImagePixels != 1000 || cfg.MaxConcurrentAnalyses != 3 {
		t.Errorf("Unexpected limits: pixels=%d workers=%d", cfg.MaxImagePixels, cfg.MaxConcurrentAnalyses)
	}
	if want := []string{"example.com", ".cdn.example"}; !reflect.DeepEqual(cfg.AllowedURLHosts, want) {
		t.Errorf("Expected hosts %v, got %v", want, cfg.AllowedURLHosts)
	}
	if !cfg.AzureEnabled() || !cfg.AuthEnabled() {
		t.Error("Expected azure and auth to be enabled")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug log level, got %s", cfg.LogLevel)
	}
	if cfg.AnalysisTimeout != 20*time.Second {
		t.Errorf("Expected unparsable duration to fall back, got %s", cfg.AnalysisTimeout)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric port", map[string]string{"PORT": "http"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"zero body size", map[string]string{"MAX_REQUEST_BODY_SIZE": "0"}},
		{"negative pixels", map[string]string{"MAX_IMAGE_PIXELS": "-1"}},
		{"zero workers", map[string]string{"MAX_CONCURRENT_ANALYSES": "0"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"azure key without account", map[string]string{"AZURE_STORAGE_KEY": "a2V5"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"PORT", "MAX_REQUEST_BODY_SIZE", "MAX_IMAGE_PIXELS", "MAX_CONCURRENT_ANALYSES",
				"LOG_LEVEL", "AZURE_STORAGE_ACCOUNT", "AZURE_STORAGE_KEY"} {
				t.Setenv(key, "")
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFromEnv(); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
