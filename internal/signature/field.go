// Package signature places signature images on PDF pages.
//
// A SignatureField records where a signature goes in PDF space. The
// embedder turns each field into an affine matrix and draws the image with
// it, collecting per-field failures as diagnostics instead of aborting.
package signature

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/inkswift/mcp-pdf-signer/internal/geometry"
	"github.com/inkswift/mcp-pdf-signer/internal/pdf/document"
	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
)

// ImageFormat is the encoding of a signature image
type ImageFormat string

const (
	FormatPNG  ImageFormat = document.FormatPNG
	FormatJPEG ImageFormat = document.FormatJPEG
)

// ParseImageFormat normalises a format name or MIME type. Unknown names are
// returned lower-cased so the embedder can report them as unsupported.
func ParseImageFormat(s string) ImageFormat {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "image/")
	switch s {
	case "png":
		return FormatPNG
	case "jpeg", "jpg", "pjpeg":
		return FormatJPEG
	default:
		return ImageFormat(s)
	}
}

// Supported reports whether the embedder can draw this format
func (f ImageFormat) Supported() bool {
	return f == FormatPNG || f == FormatJPEG
}

// SignatureField is a signature placement. X, Y, Width and Height are PDF
// points on page Page. X is measured from the left edge of the page and Y
// from the top edge down to the top of the field, so the box drawn is
// [X, pageHeight-Y-Height, X+Width, pageHeight-Y].
//
// Rotation is in degrees about the centre of the box, counter-clockwise in
// PDF space (y up), so the signature turns counter-clockwise on the printed
// page. Screen transforms with y down, such as CSS rotate(), turn the other
// way for the same angle; a client previewing with them must negate it. The
// embedder never modifies a field.
type SignatureField struct {
	ID          string      `json:"id" yaml:"id"`
	Page        int         `json:"page" yaml:"page"`
	X           float64     `json:"x" yaml:"x"`
	Y           float64     `json:"y" yaml:"y"`
	Width       float64     `json:"width" yaml:"width"`
	Height      float64     `json:"height" yaml:"height"`
	Rotation    float64     `json:"rotation" yaml:"rotation"`
	Image       string      `json:"image" yaml:"image"`
	ImageFormat ImageFormat `json:"image_format" yaml:"image_format"`
}

// Rect returns the field box in PDF space
func (f SignatureField) Rect() geometry.Rect {
	return geometry.Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
}

// FieldInput is a placement as it arrives from a client, with every value
// optional. Normalize turns it into a SignatureField once, at ingestion.
type FieldInput struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Page        *int     `json:"page,omitempty" yaml:"page,omitempty"`
	X           *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y           *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Width       *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height      *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Rotation    *float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Image       string   `json:"image,omitempty" yaml:"image,omitempty"`
	ImageFormat string   `json:"image_format,omitempty" yaml:"image_format,omitempty"`
}

// Defaults fill in values a FieldInput leaves out
type Defaults struct {
	Page   int
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// DefaultDefaults are the sizes the signing UI uses for a new field
func DefaultDefaults() Defaults {
	return Defaults{
		Page:   1,
		X:      50,
		Y:      50,
		Width:  180,
		Height: 60,
	}
}

// Normalize applies defaults to in and validates the result. A zero or
// missing width, height or page takes the default; negative or non-finite
// values are rejected with InvalidArgument. A missing ID is generated and
// a missing format is taken from a data URI prefix or the image bytes.
func Normalize(in FieldInput, d Defaults) (SignatureField, error) {
	f := SignatureField{
		ID:          strings.TrimSpace(in.ID),
		Page:        d.Page,
		X:           d.X,
		Y:           d.Y,
		Width:       d.Width,
		Height:      d.Height,
		Image:       in.Image,
		ImageFormat: ParseImageFormat(in.ImageFormat),
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	if in.Page != nil && *in.Page != 0 {
		f.Page = *in.Page
	}
	if in.X != nil {
		f.X = *in.X
	}
	if in.Y != nil {
		f.Y = *in.Y
	}
	if in.Width != nil && *in.Width != 0 {
		f.Width = *in.Width
	}
	if in.Height != nil && *in.Height != 0 {
		f.Height = *in.Height
	}
	if in.Rotation != nil {
		f.Rotation = *in.Rotation
	}

	if f.ImageFormat == "" {
		f.ImageFormat = sniffFormat(in.Image)
	}

	if err := f.Validate(); err != nil {
		return SignatureField{}, err
	}
	return f, nil
}

// NormalizeAll normalises a batch, stopping at the first invalid input
func NormalizeAll(inputs []FieldInput, d Defaults) ([]SignatureField, error) {
	fields := make([]SignatureField, 0, len(inputs))
	for i, in := range inputs {
		f, err := Normalize(in, d)
		if err != nil {
			if pe, ok := err.(*pdferrors.PDFError); ok {
				return nil, pe.WithContext("field index " + strconv.Itoa(i))
			}
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Validate checks the geometric invariants of a field. It does not look at
// the image; image problems are reported per field while embedding.
func (f SignatureField) Validate() error {
	switch {
	case f.Page < 1:
		return pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument, "page must be >= 1, got %d", f.Page).WithField(f.ID)
	case !finite(f.X) || !finite(f.Y):
		return pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument, "position must be finite, got (%v, %v)", f.X, f.Y).WithField(f.ID)
	case !finite(f.Width) || f.Width <= 0:
		return pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument, "width must be positive, got %v", f.Width).WithField(f.ID)
	case !finite(f.Height) || f.Height <= 0:
		return pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument, "height must be positive, got %v", f.Height).WithField(f.ID)
	case !finite(f.Rotation):
		return pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument, "rotation must be finite, got %v", f.Rotation).WithField(f.ID)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
