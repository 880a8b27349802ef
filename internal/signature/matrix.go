package signature

import (
	"fmt"
	"math"

	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
)

// AffineMatrix maps image-local coordinates (pixels, origin at the image's
// bottom-left) to page space:
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
//
// A and D carry scale times cos, B and C scale times ±sin, E and F the
// translation. It is the 2x3 matrix [[A C E] [B D F]] and the operand
// order of the PDF "cm" operator.
type AffineMatrix struct {
	A, B, C, D, E, F float64
}

// Apply maps a point through m
func (m AffineMatrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// Array returns the coefficients in cm operand order
func (m AffineMatrix) Array() [6]float64 {
	return [6]float64{m.A, m.B, m.C, m.D, m.E, m.F}
}

// String formats m like its PDF cm operator
func (m AffineMatrix) String() string {
	return fmt.Sprintf("%g %g %g %g %g %g cm",
		unsigned(m.A), unsigned(m.B), unsigned(m.C), unsigned(m.D), unsigned(m.E), unsigned(m.F))
}

// unsigned turns -0 into 0
func unsigned(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}

// DrawY is the bottom edge of the box the image is drawn into
func DrawY(f SignatureField, pageHeightPoints float64) float64 {
	return pageHeightPoints - f.Y - f.Height
}

// ComputePlacementMatrix returns the matrix that draws an image of
// imageWidthPx x imageHeightPx pixels into the field's box, rotated by
// f.Rotation degrees about the centre of that box.
//
// The box is [f.X, drawY, f.X+f.Width, drawY+f.Height] with
// drawY = pageHeightPoints - f.Y - f.Height. The linear part is scale then
// rotation; the translation takes the scaled image centre to the box
// centre, so rotation 0 gives a pure scale and translate onto the box.
func ComputePlacementMatrix(f SignatureField, imageWidthPx, imageHeightPx, pageHeightPoints float64) (AffineMatrix, error) {
	if !finite(imageWidthPx) || !finite(imageHeightPx) || imageWidthPx <= 0 || imageHeightPx <= 0 {
		return AffineMatrix{}, pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"image size must be positive, got %vx%v", imageWidthPx, imageHeightPx).WithField(f.ID)
	}
	if !finite(pageHeightPoints) || pageHeightPoints <= 0 {
		return AffineMatrix{}, pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument,
			"page height must be positive, got %v", pageHeightPoints).WithField(f.ID)
	}
	if err := f.Validate(); err != nil {
		return AffineMatrix{}, err
	}

	scaleX := f.Width / imageWidthPx
	scaleY := f.Height / imageHeightPx

	theta := f.Rotation * math.Pi / 180
	cosT := math.Cos(theta)
	sinT := math.Sin(theta)

	drawY := DrawY(f, pageHeightPoints)
	centerX := f.X + f.Width/2
	centerY := drawY + f.Height/2

	halfW := f.Width / 2
	halfH := f.Height / 2

	return AffineMatrix{
		A: scaleX * cosT,
		B: scaleX * sinT,
		C: -scaleY * sinT,
		D: scaleY * cosT,
		E: centerX - (halfW*cosT - halfH*sinT),
		F: centerY - (halfW*sinT + halfH*cosT),
	}, nil
}
