package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	testCases := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("down", nil), ErrorTypeNetwork, http.StatusBadGateway},
		{"fetch", NewFetchError("unreachable", nil), ErrorTypeFetch, http.StatusBadRequest},
		{"processing", NewProcessingError("broken", nil), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"unauthorized", NewUnauthorizedError("who", nil), ErrorTypeUnauthorized, http.StatusUnauthorized},
		{"too large", NewTooLargeError("big", nil), ErrorTypeTooLarge, http.StatusRequestEntityTooLarge},
		{"not found", NewNotFoundError("gone", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("oops", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Type != tc.wantType {
				t.Errorf("Expected type %s, got %s", tc.wantType, tc.err.Type)
			}
			if tc.err.StatusCode != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, tc.err.StatusCode)
			}
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	err := NewNetworkError("Failed to fetch image", io.ErrUnexpectedEOF)

	want := "network: Failed to fetch image (caused by: unexpected EOF)"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
	if err.Unwrap() != io.ErrUnexpectedEOF {
		t.Error("Expected Unwrap to return the cause")
	}
	if NewValidationError("bad", nil).Error() != "validation: bad" {
		t.Errorf("Unexpected message without cause: %q", NewValidationError("bad", nil).Error())
	}
}

func TestIsTypeAndStatusCode_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("analyze: %w", NewTimeoutError("slow", nil))

	if !IsType(wrapped, ErrorTypeTimeout) {
		t.Error("Expected wrapped timeout error to match")
	}
	if IsType(wrapped, ErrorTypeNetwork) {
		t.Error("Expected type mismatch")
	}
	if got := GetStatusCode(wrapped); got != http.StatusGatewayTimeout {
		t.Errorf("Expected 504, got %d", got)
	}
	if got := GetStatusCode(io.EOF); got != http.StatusInternalServerError {
		t.Errorf("Expected 500 for plain errors, got %d", got)
	}
}
