package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
)

// Validator checks input files before they are read and re-parses output
// with a second, independent PDF parser.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile reports whether a file is a readable PDF. Validation
// failures are part of the result, not an error.
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	data, err := v.ReadFile(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	pages, err := v.ValidateBytes(data)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	result.Valid = true
	result.Pages = pages
	return result, nil
}

// ReadFile checks the file's type and size and returns its contents
func (v *Validator) ReadFile(filePath string) ([]byte, error) {
	if filePath == "" {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidArgument, "path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	return data, nil
}

// ValidateBytes parses data and returns its page count. A document with no
// pages is rejected.
func (v *Validator) ValidateBytes(data []byte) (pages int, err error) {
	if int64(len(data)) > v.maxFileSize {
		return 0, fmt.Errorf("document too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize)
	}

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = pdferrors.Newf(pdferrors.ErrorTypeCorruptDocument, "invalid PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument, fmt.Errorf("invalid PDF: %w", err))
	}

	pages = r.NumPage()
	if pages == 0 {
		return 0, pdferrors.NewPDFError(pdferrors.ErrorTypeCorruptDocument, "invalid PDF: document has no pages")
	}
	return pages, nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	data, err := v.ReadFile(filePath)
	if err != nil {
		return false
	}
	_, err = v.ValidateBytes(data)
	return err == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
