package errors

import (
	stderrors "errors"
	"fmt"
)

// PDFError is a categorised failure raised while mapping coordinates or
// embedding signatures into a document
type PDFError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	FieldID     string    `json:"field_id,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of signing failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidArgument is a caller bug: bad scale, page or geometry input.
	ErrorTypeInvalidArgument
	// ErrorTypeUnsupportedFormat is an image type other than PNG or JPEG.
	ErrorTypeUnsupportedFormat
	// ErrorTypeCorruptDocument means the source PDF bytes could not be parsed.
	ErrorTypeCorruptDocument
	// ErrorTypeOutOfRangePage is a field pointing past the last page.
	ErrorTypeOutOfRangePage
	// ErrorTypeInvalidImage is a missing or undecodable image payload.
	ErrorTypeInvalidImage
	// ErrorTypePathViolation is a path outside the configured directory.
	ErrorTypePathViolation
)

// Sentinels usable with errors.Is against any *PDFError of the same type.
var (
	ErrInvalidArgument   = &PDFError{Type: ErrorTypeInvalidArgument}
	ErrUnsupportedFormat = &PDFError{Type: ErrorTypeUnsupportedFormat}
	ErrCorruptDocument   = &PDFError{Type: ErrorTypeCorruptDocument}
	ErrOutOfRangePage    = &PDFError{Type: ErrorTypeOutOfRangePage}
	ErrInvalidImage      = &PDFError{Type: ErrorTypeInvalidImage}
	ErrPathViolation     = &PDFError{Type: ErrorTypePathViolation}
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.FieldID != "" {
		msg = fmt.Sprintf("field %s: %s", e.FieldID, msg)
	}
	if e.Context != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type.String(), msg, e.Context)
	}
	return fmt.Sprintf("[%s] %s", e.Type.String(), msg)
}

// Unwrap returns the underlying cause
func (e *PDFError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a PDFError of the same type
func (e *PDFError) Is(target error) bool {
	t, ok := target.(*PDFError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidArgument:
		return "INVALID_ARGUMENT"
	case ErrorTypeUnsupportedFormat:
		return "UNSUPPORTED_FORMAT"
	case ErrorTypeCorruptDocument:
		return "CORRUPT_DOCUMENT"
	case ErrorTypeOutOfRangePage:
		return "OUT_OF_RANGE_PAGE"
	case ErrorTypeInvalidImage:
		return "INVALID_IMAGE"
	case ErrorTypePathViolation:
		return "PATH_VIOLATION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the type by name so diagnostics serialise readably
func (et ErrorType) MarshalText() ([]byte, error) {
	return []byte(et.String()), nil
}

// UnmarshalText decodes a type name written by MarshalText. Unknown names
// decode to ErrorTypeUnknown.
func (et *ErrorType) UnmarshalText(text []byte) error {
	name := string(text)
	for t := ErrorTypeUnknown; t <= ErrorTypePathViolation; t++ {
		if t.String() == name {
			*et = t
			return nil
		}
	}
	*et = ErrorTypeUnknown
	return nil
}

// IsRecoverable reports whether a batch can continue past this error type.
// Per-field problems are skipped; whole-document problems abort.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeUnsupportedFormat, ErrorTypeOutOfRangePage, ErrorTypeInvalidImage:
		return true
	default:
		return false
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
	}
}

// Newf creates a new PDFError with a formatted message
func Newf(errorType ErrorType, format string, args ...any) *PDFError {
	return NewPDFError(errorType, fmt.Sprintf(format, args...))
}

// WrapError wraps a standard error as a PDFError
func WrapError(errorType ErrorType, err error) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     err.Error(),
		Recoverable: errorType.IsRecoverable(),
		Err:         err,
	}
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithField records the signature field the error belongs to
func (e *PDFError) WithField(fieldID string) *PDFError {
	e.FieldID = fieldID
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var pe *PDFError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}
