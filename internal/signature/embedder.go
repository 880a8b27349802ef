package signature

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/inkswift/mcp-pdf-signer/internal/pdf/document"
	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
)

// Diagnostic explains why a field was skipped
type Diagnostic struct {
	FieldID string              `json:"id"`
	Page    int                 `json:"page,omitempty"`
	Reason  pdferrors.ErrorType `json:"reason"`
	Message string              `json:"message"`
}

// Result is the outcome of embedding a batch of fields
type Result struct {
	// PDF is the complete modified document
	PDF []byte `json:"-"`
	// Embedded lists the IDs of the fields that were drawn, in input order
	Embedded []string `json:"embedded"`
	// Skipped lists the fields that were not drawn, in input order
	Skipped []Diagnostic `json:"skipped"`
}

// Embedder draws signature images into PDF documents. It holds no
// per-document state; each EmbedAllFields call opens its own Document.
type Embedder struct {
	opener document.Opener
	logger *log.Logger
}

// NewEmbedder creates an Embedder. A nil logger discards skip warnings.
func NewEmbedder(opener document.Opener, logger *log.Logger) *Embedder {
	if opener == nil {
		opener = document.NewPDFCPUOpener()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Embedder{
		opener: opener,
		logger: logger,
	}
}

// EmbedAllFields draws every field onto a copy of pdfBytes and returns the
// serialised result.
//
// Fields are processed in order. A field on a page that does not exist, or
// whose image is missing, undecodable or not PNG/JPEG, is skipped and
// reported in Result.Skipped. Unparseable pdfBytes fail the whole call with
// CorruptDocument and no output.
//
// Nothing marks the output as signed: embedding the same fields into the
// output again draws them a second time.
func (e *Embedder) EmbedAllFields(pdfBytes []byte, fields []SignatureField) (*Result, error) {
	doc, err := e.opener.Open(pdfBytes)
	if err != nil {
		if pdferrors.TypeOf(err) == pdferrors.ErrorTypeUnknown {
			err = pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument, err)
		}
		return nil, err
	}

	result := &Result{
		Embedded: make([]string, 0, len(fields)),
		Skipped:  make([]Diagnostic, 0),
	}

	for _, f := range fields {
		if err := e.embedOne(doc, f); err != nil {
			pe := asPDFError(err)
			if !pe.Type.IsRecoverable() && pe.Type != pdferrors.ErrorTypeInvalidArgument {
				return nil, err
			}
			e.logger.Printf("skipping signature field %s on page %d: %v", f.ID, f.Page, err)
			result.Skipped = append(result.Skipped, Diagnostic{
				FieldID: f.ID,
				Page:    f.Page,
				Reason:  pe.Type,
				Message: pe.Error(),
			})
			continue
		}
		result.Embedded = append(result.Embedded, f.ID)
	}

	var out bytes.Buffer
	if err := doc.Save(&out); err != nil {
		return nil, err
	}
	result.PDF = out.Bytes()
	return result, nil
}

// embedOne runs the per-field steps: resolve page, decode payload, compute
// the matrix, draw.
func (e *Embedder) embedOne(doc document.Document, f SignatureField) error {
	if err := f.Validate(); err != nil {
		return err
	}

	if f.Page > doc.PageCount() {
		return pdferrors.Newf(pdferrors.ErrorTypeOutOfRangePage,
			"page %d out of range (document has %d pages)", f.Page, doc.PageCount()).
			WithField(f.ID).WithPage(f.Page)
	}
	page, err := doc.Page(f.Page)
	if err != nil {
		return withField(err, f.ID)
	}

	if !f.ImageFormat.Supported() {
		return pdferrors.Newf(pdferrors.ErrorTypeUnsupportedFormat,
			"unsupported image format %q", string(f.ImageFormat)).WithField(f.ID)
	}

	imageBytes, _, err := DecodePayload(f.Image)
	if err != nil {
		return withField(err, f.ID)
	}

	img, err := document.DecodeImage(imageBytes, string(f.ImageFormat))
	if err != nil {
		return withField(err, f.ID)
	}

	m, err := ComputePlacementMatrix(f, float64(img.Width), float64(img.Height), page.Size().Height)
	if err != nil {
		return err
	}

	return withField(drawImage(page, img, m), f.ID)
}

// EmbedField decodes imageBytes and draws it on page with m. Formats other
// than PNG and JPEG are rejected with UnsupportedFormat.
func EmbedField(page document.Page, imageBytes []byte, format ImageFormat, m AffineMatrix) error {
	if !format.Supported() {
		return pdferrors.Newf(pdferrors.ErrorTypeUnsupportedFormat, "unsupported image format %q", string(format))
	}
	img, err := document.DecodeImage(imageBytes, string(format))
	if err != nil {
		return err
	}
	return drawImage(page, img, m)
}

func drawImage(page document.Page, img *document.Image, m AffineMatrix) error {
	if err := page.DrawImage(img, m.Array()); err != nil {
		return fmt.Errorf("failed to draw image on page %d: %w", page.Number(), err)
	}
	return nil
}

func asPDFError(err error) *pdferrors.PDFError {
	if pe, ok := err.(*pdferrors.PDFError); ok {
		return pe
	}
	t := pdferrors.TypeOf(err)
	if t == pdferrors.ErrorTypeUnknown {
		return pdferrors.WrapError(pdferrors.ErrorTypeUnknown, err)
	}
	wrapped := pdferrors.WrapError(t, err)
	wrapped.Message = err.Error()
	return wrapped
}

func withField(err error, fieldID string) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*pdferrors.PDFError); ok && pe.FieldID == "" {
		return pe.WithField(fieldID)
	}
	return err
}
