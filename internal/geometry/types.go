// Package geometry maps points between the rendered page on screen and the
// PDF page it was rendered from.
//
// Screen space has its origin at the top-left corner of the rendered page,
// Y grows downward and units are rendered pixels. PDF space has its origin
// at the bottom-left corner of the page, Y grows upward and units are points
// (1/72 inch). The two are kept apart by type: a ScreenPoint is never a
// PDFPoint.
package geometry

// ScreenPoint is a point in screen space
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PDFPoint is a point in PDF space
type PDFPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box given by its anchor corner and size. The
// anchor is whatever corner the caller's coordinate space treats as (x, y).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds are the edges of a Rect
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// RenderContext describes one rendering of one page. It is recomputed by
// the renderer whenever the rendered size changes and passed explicitly to
// every conversion.
type RenderContext struct {
	PageHeightPoints float64 `json:"page_height_points"`
	// Scale is screen pixels per PDF point.
	Scale float64 `json:"scale"`
}
