package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnsupportedFileType", ErrUnsupportedFileType, "unsupported file type"},
		{"ErrInvalidChunkConfig", ErrInvalidChunkConfig, "invalid chunk config"},
		{"ErrEmbeddingSizeMismatch", ErrEmbeddingSizeMismatch, "embedding response size mismatch"},
		{"ErrIngestionInProgress", ErrIngestionInProgress, "ingestion already in progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrSessionNotFound,
		ErrInvalidCredentials,
		ErrInvalidProvider,
		ErrServiceUnavailable,
		ErrUnsupportedFileType,
		ErrInvalidChunkConfig,
		ErrEmbeddingSizeMismatch,
		ErrIngestionInProgress,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("batch 2: %w", ErrEmbeddingSizeMismatch)
	if !errors.Is(wrapped, ErrEmbeddingSizeMismatch) {
		t.Error("wrapped mismatch error should match sentinel")
	}
	if errors.Is(wrapped, ErrInvalidInput) {
		t.Error("wrapped mismatch error should not match ErrInvalidInput")
	}
}
