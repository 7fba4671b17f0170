package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeImportRejected, "name is required"),
			expected: "IMPORT_REJECTED: name is required",
		},
		{
			name:     "error with cause",
			err:      Wrap(errors.New("zip: not a valid zip file"), ErrCodeArchiveUnreadable, "open archive"),
			expected: "ARCHIVE_UNREADABLE: open archive: zip: not a valid zip file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeInternalError, "something went wrong")

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_WithContext(t *testing.T) {
	err := New(ErrCodeTranscriptMissing, "no transcript")

	result := err.WithContext("archive", "export.zip").WithContext("entries", 3)

	assert.Same(t, err, result)
	assert.Len(t, err.Context, 2)
	assert.Equal(t, "export.zip", err.Context["archive"])
}

func TestGetCode_ThroughWrapping(t *testing.T) {
	appErr := New(ErrCodeTranscriptMissing, "no transcript")
	wrapped := fmt.Errorf("import: %w", appErr)

	assert.Equal(t, ErrCodeTranscriptMissing, GetCode(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeTranscriptMissing))
	assert.False(t, HasCode(wrapped, ErrCodeImportRejected))
	assert.False(t, HasCode(nil, ErrCodeInternalError))
	assert.Equal(t, ErrCodeInternalError, GetCode(errors.New("plain")))
}

func TestGetUserMessage(t *testing.T) {
	err := New(ErrCodeImportRejected, "missing name").WithUserMessage("Conversation name is required.")
	assert.Equal(t, "Conversation name is required.", GetUserMessage(err))
	assert.Equal(t, "An internal error occurred", GetUserMessage(errors.New("boom")))

	got, ok := As(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, ErrCodeImportRejected, got.Code)
}
