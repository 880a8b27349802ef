package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrorTypeInvalidArgument, "INVALID_ARGUMENT"},
		{ErrorTypeUnsupportedFormat, "UNSUPPORTED_FORMAT"},
		{ErrorTypeCorruptDocument, "CORRUPT_DOCUMENT"},
		{ErrorTypeOutOfRangePage, "OUT_OF_RANGE_PAGE"},
		{ErrorTypeInvalidImage, "INVALID_IMAGE"},
		{ErrorTypePathViolation, "PATH_VIOLATION"},
		{ErrorTypeUnknown, "UNKNOWN"},
		{ErrorType(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errType.String())
		})
	}
}

func TestErrorType_IsRecoverable(t *testing.T) {
	assert.True(t, ErrorTypeUnsupportedFormat.IsRecoverable())
	assert.True(t, ErrorTypeOutOfRangePage.IsRecoverable())
	assert.True(t, ErrorTypeInvalidImage.IsRecoverable())
	assert.False(t, ErrorTypeCorruptDocument.IsRecoverable())
	assert.False(t, ErrorTypeInvalidArgument.IsRecoverable())
	assert.False(t, ErrorTypePathViolation.IsRecoverable())
}

func TestPDFError_Is(t *testing.T) {
	err := Newf(ErrorTypeCorruptDocument, "cannot parse %s", "doc.pdf")
	wrapped := fmt.Errorf("embed: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrCorruptDocument))
	assert.False(t, stderrors.Is(wrapped, ErrInvalidArgument))
	assert.Equal(t, ErrorTypeCorruptDocument, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestPDFError_Error(t *testing.T) {
	err := NewPDFError(ErrorTypeOutOfRangePage, "page 9 of 3").WithField("sig-1").WithPage(9)
	assert.Equal(t, "[OUT_OF_RANGE_PAGE] field sig-1: page 9 of 3", err.Error())
	assert.True(t, err.Recoverable)
	assert.Equal(t, 9, err.PageNumber)

	withCtx := NewPDFError(ErrorTypeInvalidArgument, "scale must be positive").WithContext("scale=0")
	assert.Equal(t, "[INVALID_ARGUMENT] scale must be positive: scale=0", withCtx.Error())
}

func TestWrapError_Unwrap(t *testing.T) {
	cause := stderrors.New("unexpected EOF")
	err := WrapError(ErrorTypeInvalidImage, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[INVALID_IMAGE] unexpected EOF", err.Error())
}

func TestErrorType_MarshalText(t *testing.T) {
	b, err := ErrorTypeOutOfRangePage.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "OUT_OF_RANGE_PAGE", string(b))
}

func TestErrorType_UnmarshalText(t *testing.T) {
	for et := ErrorTypeUnknown; et <= ErrorTypePathViolation; et++ {
		b, err := et.MarshalText()
		assert.NoError(t, err)

		var got ErrorType
		assert.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, et, got)
	}

	var got ErrorType = ErrorTypeInvalidImage
	assert.NoError(t, got.UnmarshalText([]byte("NO_SUCH_TYPE")))
	assert.Equal(t, ErrorTypeUnknown, got)
}
