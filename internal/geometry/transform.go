package geometry

import (
	"math"

	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
)

// ScreenToPDF converts a click on the rendered page into the PDF-space
// anchor of a field of the given height.
//
// The click is taken as the visual top of the field while the stored anchor
// is the field's bottom-left corner, so the field height is subtracted
// after the Y flip.
func ScreenToPDF(screenX, screenY, pageHeightPoints, scale, fieldHeightPoints float64) (PDFPoint, error) {
	if err := checkScale(scale); err != nil {
		return PDFPoint{}, err
	}
	if !finite(pageHeightPoints) || pageHeightPoints <= 0 {
		return PDFPoint{}, pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"page height must be positive, got %v", pageHeightPoints)
	}
	if !finite(screenX) || !finite(screenY) {
		return PDFPoint{}, pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"screen coordinates must be finite, got (%v, %v)", screenX, screenY)
	}
	if !finite(fieldHeightPoints) || fieldHeightPoints < 0 {
		return PDFPoint{}, pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"field height must be non-negative, got %v", fieldHeightPoints)
	}

	return PDFPoint{
		X: screenX / scale,
		Y: pageHeightPoints - screenY/scale - fieldHeightPoints,
	}, nil
}

// PDFToScreen converts a PDF-space point into screen space. It does not add
// back any field height, so it is the inverse of ScreenToPDF only for
// fields of zero height.
func PDFToScreen(pdfX, pdfY, pageHeightPoints, scale float64) ScreenPoint {
	return ScreenPoint{
		X: pdfX * scale,
		Y: (pageHeightPoints - pdfY) * scale,
	}
}

// BoundsOf returns the edges of r in r's own coordinate space
func BoundsOf(r Rect) Bounds {
	return Bounds{
		Left:   r.X,
		Top:    r.Y,
		Right:  r.X + r.Width,
		Bottom: r.Y + r.Height,
	}
}

// ContainsPoint reports whether (x, y) lies inside b, edges included
func ContainsPoint(x, y float64, b Bounds) bool {
	return x >= b.Left && x <= b.Right && y >= b.Top && y <= b.Bottom
}

// Contains is ContainsPoint with b as receiver
func (b Bounds) Contains(x, y float64) bool {
	return ContainsPoint(x, y, b)
}

// NewRenderContext derives the scale from the rendered width of a page
func NewRenderContext(pageWidthPoints, pageHeightPoints, renderedWidthPixels float64) (RenderContext, error) {
	if !finite(pageWidthPoints) || pageWidthPoints <= 0 {
		return RenderContext{}, pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"page width must be positive, got %v", pageWidthPoints)
	}
	rc := RenderContext{
		PageHeightPoints: pageHeightPoints,
		Scale:            renderedWidthPixels / pageWidthPoints,
	}
	if err := rc.Validate(); err != nil {
		return RenderContext{}, err
	}
	return rc, nil
}

// Validate checks that the context can be used for conversions
func (rc RenderContext) Validate() error {
	if err := checkScale(rc.Scale); err != nil {
		return err
	}
	if !finite(rc.PageHeightPoints) || rc.PageHeightPoints <= 0 {
		return pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"page height must be positive, got %v", rc.PageHeightPoints)
	}
	return nil
}

// ToPDF is ScreenToPDF using the context's page height and scale
func (rc RenderContext) ToPDF(p ScreenPoint, fieldHeightPoints float64) (PDFPoint, error) {
	return ScreenToPDF(p.X, p.Y, rc.PageHeightPoints, rc.Scale, fieldHeightPoints)
}

// ToScreen is PDFToScreen using the context's page height and scale
func (rc RenderContext) ToScreen(p PDFPoint) ScreenPoint {
	return PDFToScreen(p.X, p.Y, rc.PageHeightPoints, rc.Scale)
}

func checkScale(scale float64) error {
	if !finite(scale) || scale <= 0 {
		return pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"scale must be a positive number, got %v", scale)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
