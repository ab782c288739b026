package validation

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/anime-shed/ai-image-inspector-go/internal/errors"
)

// assertRejected checks that err is a validation AppError carrying wantMsg.
func assertRejected(t *testing.T, err error, wantMsg string) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected *AppError, got %T: %v", err, err)
	}
	if appErr.Type != apperrors.ErrorTypeValidation {
		t.Errorf("Expected validation error, got %s", appErr.Type)
	}
	if appErr.Message != wantMsg {
		t.Errorf("Expected message %q, got %q", wantMsg, appErr.Message)
	}
}

func TestValidateImageURL_HostAllowList(t *testing.T) {
	// same shape as an ALLOWED_URL_HOSTS value with stray spaces and commas
	hosts := strings.Split(" Images.Example.com , .CDN.net,, ", ",")
	validator := NewURLValidatorWithOptions(nil, hosts)

	testCases := []struct {
		name    string
		url     string
		wantMsg string
	}{
		{"exact host", "https://images.example.com/a.png", ""},
		{"exact host upper case with port", "https://IMAGES.EXAMPLE.COM:8443/a.png", ""},
		{"suffix entry matches bare domain", "http://cdn.net/a.png", ""},
		{"suffix entry matches nested subdomain", "https://eu.static.cdn.net/a.png", ""},
		{"suffix entry with port", "https://eu.cdn.net:444/a.png", ""},
		{"suffix needs a dot boundary", "https://evilcdn.net/a.png", "URL host not allowed"},
		{"exact entry is not a suffix", "https://cdn.images.example.com/a.png", "URL host not allowed"},
		{"exact entry does not cover parent", "https://example.com/a.png", "URL host not allowed"},
		{"allowed host as prefix of another", "https://images.example.com.evil.io/a.png", "URL host not allowed"},
		{"allowed host in userinfo", "https://images.example.com@evil.io/a.png", "URL host not allowed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateImageURL(tc.url)
			if tc.wantMsg == "" {
				if err != nil {
					t.Errorf("Expected %s to pass, got %v", tc.url, err)
				}
				return
			}
			assertRejected(t, err, tc.wantMsg)
		})
	}
}

func TestValidateImageURL_Rejections(t *testing.T) {
	validator := NewURLValidator()

	testCases := []struct {
		name    string
		url     string
		wantMsg string
	}{
		{"empty", "", "URL cannot be empty"},
		{"only whitespace", " \t\n ", "URL cannot be empty"},
		{"unterminated ipv6 host", "http://[::1", "Invalid URL format"},
		{"ftp scheme", "ftp://files.example.com/a.png", "URL scheme not allowed"},
		{"file scheme", "file:///etc/passwd", "URL scheme not allowed"},
		{"no scheme", "example.com/a.png", "URL scheme not allowed"},
		{"no host", "https:///a.png", "URL must have a valid host"},
		{"port without host", "https://:8080/a.png", "URL must have a valid host"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assertRejected(t, validator.ValidateImageURL(tc.url), tc.wantMsg)
		})
	}
}

func TestValidateImageURL_TrimsInput(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"images.example.com"})

	for _, raw := range []string{
		"  https://images.example.com/a.png",
		"https://images.example.com/a.png\n",
		"\thttps://images.example.com/a.png  ",
	} {
		if err := validator.ValidateImageURL(raw); err != nil {
			t.Errorf("Expected %q to pass after trimming, got %v", raw, err)
		}
	}
}

func TestValidateImageURL_SchemeCase(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, nil)

	if err := validator.ValidateImageURL("HTTPS://example.com/a.png"); err != nil {
		t.Errorf("Expected upper-case scheme to pass, got %v", err)
	}
	assertRejected(t, validator.ValidateImageURL("http://example.com/a.png"), "URL scheme not allowed")
}

func TestNewURLValidatorWithOptions_BlankHostsAllowAll(t *testing.T) {
	validator := NewURLValidatorWithOptions(nil, []string{"", "  ", "\t"})

	for _, raw := range []string{"https://anything.example/a.png", "http://127.0.0.1:9000/x"} {
		if err := validator.ValidateImageURL(raw); err != nil {
			t.Errorf("Expected %s to pass with no effective host list, got %v", raw, err)
		}
	}
}
