// Package document is the PDF-manipulation layer used by the signature
// embedder: open a document, look up a page, draw an image on it under an
// affine transform and serialise the result.
package document

import (
	"io"
)

// Opener loads a document from a fully materialised byte buffer
type Opener interface {
	Open(data []byte) (Document, error)
}

// Document is a loaded PDF. A Document is owned by a single caller and is
// not safe for concurrent mutation.
type Document interface {
	// PageCount returns the number of pages
	PageCount() int
	// Page returns the 1-based page pageNr
	Page(pageNr int) (Page, error)
	// PageSizes returns the MediaBox size of every page in order
	PageSizes() ([]PageSize, error)
	// Save serialises the document, including every drawn image
	Save(w io.Writer) error
}

// Page is a handle to one page of a Document
type Page interface {
	Number() int
	Size() PageSize
	// DrawImage paints img at its native pixel size with m as the only
	// transform, so m must already carry position, scale and rotation.
	DrawImage(img *Image, m [6]float64) error
}

// PageSize is the width and height of a page in points
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
