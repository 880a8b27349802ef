package pdf

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/inkswift/mcp-pdf-signer/internal/geometry"
	"github.com/inkswift/mcp-pdf-signer/internal/pdf/document"
	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
	"github.com/inkswift/mcp-pdf-signer/internal/pdf/security"
	"github.com/inkswift/mcp-pdf-signer/internal/signature"
)

// Service handles signing operations on documents in the configured
// directory by orchestrating the geometry, placement and embedding
// components
type Service struct {
	maxFileSize   int64
	defaults      signature.Defaults
	opener        document.Opener
	validator     *Validator
	placements    *PlacementStore
	embedder      *signature.Embedder
	pathValidator *security.PathValidator
	logger        *log.Logger
}

// NewService creates a new signing service. A nil logger discards the
// per-field warnings of the embedder.
func NewService(maxFileSize int64, configuredDirectory string, defaults signature.Defaults,
	logger *log.Logger,
) (*Service, error) {
	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	opener := document.NewPDFCPUOpener()
	return &Service{
		maxFileSize:   maxFileSize,
		defaults:      defaults,
		opener:        opener,
		validator:     NewValidator(maxFileSize),
		placements:    NewPlacementStore(),
		embedder:      signature.NewEmbedder(opener, logger),
		pathValidator: pathValidator,
		logger:        logger,
	}, nil
}

// PDFPageInfo returns the page sizes of a document in points
func (s *Service) PDFPageInfo(req PDFPageInfoRequest) (*PDFPageInfoResult, error) {
	path, doc, err := s.openDocument(req.Path)
	if err != nil {
		return nil, err
	}

	sizes, err := doc.PageSizes()
	if err != nil {
		return nil, err
	}

	pages := make([]PageInfo, len(sizes))
	for i, size := range sizes {
		pages[i] = PageInfo{Number: i + 1, Width: size.Width, Height: size.Height}
	}

	return &PDFPageInfoResult{
		Path:      path,
		PageCount: len(pages),
		Pages:     pages,
	}, nil
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// ScreenToPDF maps a click on a rendered page to the bottom-left corner of
// a field in PDF space
func (s *Service) ScreenToPDF(req ScreenToPDFRequest) (*geometry.PDFPoint, error) {
	p, err := geometry.ScreenToPDF(req.ScreenX, req.ScreenY, req.PageHeight, req.Scale, req.FieldHeight)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PDFToScreen maps a PDF-space point to rendered pixels
func (s *Service) PDFToScreen(req PDFToScreenRequest) (*geometry.ScreenPoint, error) {
	rc := geometry.RenderContext{PageHeightPoints: req.PageHeight, Scale: req.Scale}
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	p := rc.ToScreen(geometry.PDFPoint{X: req.PDFX, Y: req.PDFY})
	return &p, nil
}

// HitTest reports whether a point lies inside a field box, edges included
func (s *Service) HitTest(req HitTestRequest) (*HitTestResult, error) {
	if req.Rect.Width < 0 || req.Rect.Height < 0 {
		return nil, pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"rect size must not be negative, got %vx%v", req.Rect.Width, req.Rect.Height)
	}
	b := geometry.BoundsOf(req.Rect)
	return &HitTestResult{
		Inside: geometry.ContainsPoint(req.X, req.Y, b),
		Bounds: b,
	}, nil
}

// PlacementMatrix computes the draw matrix for a field without touching a
// document
func (s *Service) PlacementMatrix(req PlacementMatrixRequest) (*PlacementMatrixResult, error) {
	f, err := signature.Normalize(req.Field, s.defaults)
	if err != nil {
		return nil, err
	}

	m, err := signature.ComputePlacementMatrix(f, req.ImageWidth, req.ImageHeight, req.PageHeight)
	if err != nil {
		return nil, err
	}

	f.Image = ""
	return &PlacementMatrixResult{
		Field:    f,
		Matrix:   m,
		Operator: m.String(),
	}, nil
}

// PlaceField converts a click on a rendered page into a signature field and
// stores it as pending for the document. The click marks the top-left
// corner of the field, so the stored Y is the distance from the top of the
// page in points.
func (s *Service) PlaceField(req PlaceFieldRequest) (*PlaceFieldResult, error) {
	path, doc, err := s.openDocument(req.Path)
	if err != nil {
		return nil, err
	}

	pageNr := req.Page
	if pageNr == 0 {
		pageNr = s.defaults.Page
	}
	page, err := doc.Page(pageNr)
	if err != nil {
		return nil, err
	}
	size := page.Size()

	rc, err := geometry.NewRenderContext(size.Width, size.Height, req.RenderedWidth)
	if err != nil {
		return nil, err
	}

	height := s.defaults.Height
	if req.Height != nil && *req.Height > 0 {
		height = *req.Height
	}
	origin, err := rc.ToPDF(geometry.ScreenPoint{X: req.ScreenX, Y: req.ScreenY}, height)
	if err != nil {
		return nil, err
	}
	top := size.Height - origin.Y - height

	f, err := signature.Normalize(signature.FieldInput{
		ID:          req.ID,
		Page:        &pageNr,
		X:           &origin.X,
		Y:           &top,
		Width:       req.Width,
		Height:      &height,
		Rotation:    &req.Rotation,
		Image:       req.Image,
		ImageFormat: req.ImageFormat,
	}, s.defaults)
	if err != nil {
		return nil, err
	}
	if f.Image != "" {
		if _, _, err := signature.DecodePayload(f.Image); err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidImage, err).WithField(f.ID)
		}
	}

	total, replaced, err := s.placements.Add(path, f)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("placed field %s on page %d of %s at (%.2f, %.2f)", f.ID, f.Page, path, f.X, f.Y)

	return &PlaceFieldResult{
		Path:     path,
		Sidecar:  SidecarPath(path),
		Field:    f,
		Origin:   origin,
		Scale:    rc.Scale,
		Total:    total,
		Replaced: replaced,
	}, nil
}

// ListFields returns the pending fields of a document
func (s *Service) ListFields(req ListFieldsRequest) (*ListFieldsResult, error) {
	path, err := s.pathValidator.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	fields, err := s.placements.Load(path)
	if err != nil {
		return nil, err
	}
	return &ListFieldsResult{Path: path, Fields: fields}, nil
}

// ClearFields discards the pending fields of a document
func (s *Service) ClearFields(req ClearFieldsRequest) (*ClearFieldsResult, error) {
	path, err := s.pathValidator.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	removed, err := s.placements.Clear(path)
	if err != nil {
		return nil, err
	}
	return &ClearFieldsResult{Path: path, Removed: removed}, nil
}

// EmbedSignatures draws the given fields into a copy of the document and
// writes it to the output path. Fields that cannot be drawn are listed in
// the result; an unreadable document fails the whole call.
func (s *Service) EmbedSignatures(req EmbedSignaturesRequest) (*EmbedSignaturesResult, error) {
	fields, err := signature.NormalizeAll(req.Fields, s.defaults)
	if err != nil {
		return nil, err
	}
	return s.embed(req.Path, req.Output, fields)
}

// Finalize embeds every pending field of a document and then removes the
// fields it embedded, so a document is finalised once. Fields placed while
// it runs stay pending. Nothing is removed if embedding fails.
func (s *Service) Finalize(req FinalizeRequest) (*EmbedSignaturesResult, error) {
	path, err := s.pathValidator.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	fields, err := s.placements.Load(path)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"no pending signature fields for %s", filepath.Base(path)).WithFile(path)
	}

	result, err := s.embed(path, req.Output, fields)
	if err != nil {
		return nil, err
	}

	remaining, err := s.placements.Remove(path, fields)
	if err != nil {
		return nil, err
	}
	result.Pending = remaining
	return result, nil
}

func (s *Service) embed(inputPath, outputPath string, fields []signature.SignatureField) (*EmbedSignaturesResult, error) {
	input, err := s.pathValidator.ResolvePath(inputPath)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	output := SignedPath(input)
	if outputPath != "" {
		if output, err = s.pathValidator.ResolvePath(outputPath); err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
	}
	if err := s.pathValidator.ValidateOutputPath(output, input); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	data, err := s.validator.ReadFile(input)
	if err != nil {
		return nil, err
	}

	res, err := s.embedder.EmbedAllFields(data, fields)
	if err != nil {
		if pe, ok := err.(*pdferrors.PDFError); ok {
			return nil, pe.WithFile(input)
		}
		return nil, err
	}

	pages, err := s.validator.ValidateBytes(res.PDF)
	if err != nil {
		return nil, fmt.Errorf("signed document failed verification: %w", err)
	}

	if err := os.WriteFile(output, res.PDF, DefaultFilePerm); err != nil {
		return nil, fmt.Errorf("failed to write signed document: %w", err)
	}
	s.logger.Printf("embedded %d of %d fields into %s", len(res.Embedded), len(fields), output)

	return &EmbedSignaturesResult{
		Path:     input,
		Output:   output,
		Size:     int64(len(res.PDF)),
		Pages:    pages,
		Embedded: res.Embedded,
		Skipped:  res.Skipped,
	}, nil
}

func (s *Service) openDocument(reqPath string) (string, document.Document, error) {
	path, err := s.pathValidator.ResolvePath(reqPath)
	if err != nil {
		return "", nil, fmt.Errorf("security validation failed: %w", err)
	}

	data, err := s.validator.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	doc, err := s.opener.Open(data)
	if err != nil {
		if pe, ok := err.(*pdferrors.PDFError); ok {
			return "", nil, pe.WithFile(path)
		}
		return "", nil, err
	}
	return path, doc, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// GetDefaults returns the field defaults applied to incomplete placements
func (s *Service) GetDefaults() signature.Defaults {
	return s.defaults
}

// GetSupportedImageFormats returns the signature image formats the embedder draws
func (s *Service) GetSupportedImageFormats() []string {
	return []string{string(signature.FormatPNG), string(signature.FormatJPEG)}
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}

	if s.maxFileSize > 1024*1024*1024 { // 1GB limit
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}

	if err := (signature.SignatureField{
		Page: s.defaults.Page, Width: s.defaults.Width, Height: s.defaults.Height,
	}).Validate(); err != nil {
		return fmt.Errorf("invalid field defaults: %w", err)
	}

	return nil
}
