package pdf

import (
	"github.com/inkswift/mcp-pdf-signer/internal/geometry"
	"github.com/inkswift/mcp-pdf-signer/internal/signature"
)

// FileInfo represents a signable PDF found in the configured directory
type FileInfo struct {
	Path          string `json:"path"`
	Name          string `json:"name"`
	Size          int64  `json:"size"`
	ModifiedTime  string `json:"modified_time"`
	Signed        bool   `json:"signed"`
	PendingFields int    `json:"pending_fields"`
}

// PageInfo is the size of one page in PDF points
type PageInfo struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Request Types

// PDFPageInfoRequest represents a request for page sizes
type PDFPageInfoRequest struct {
	Path string `json:"path"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// ScreenToPDFRequest converts a click on a rendered page into PDF space
type ScreenToPDFRequest struct {
	ScreenX     float64 `json:"screen_x"`
	ScreenY     float64 `json:"screen_y"`
	PageHeight  float64 `json:"page_height"`
	Scale       float64 `json:"scale"`
	FieldHeight float64 `json:"field_height"`
}

// PDFToScreenRequest converts a PDF-space point to rendered pixels
type PDFToScreenRequest struct {
	PDFX       float64 `json:"pdf_x"`
	PDFY       float64 `json:"pdf_y"`
	PageHeight float64 `json:"page_height"`
	Scale      float64 `json:"scale"`
}

// HitTestRequest asks whether a point falls inside a field box
type HitTestRequest struct {
	X    float64       `json:"x"`
	Y    float64       `json:"y"`
	Rect geometry.Rect `json:"rect"`
}

// PlacementMatrixRequest asks for the matrix that draws an image into a field
type PlacementMatrixRequest struct {
	Field       signature.FieldInput `json:"field"`
	ImageWidth  float64              `json:"image_width"`
	ImageHeight float64              `json:"image_height"`
	PageHeight  float64              `json:"page_height"`
}

// PlaceFieldRequest records a signature field from a click on a rendered
// page. RenderedWidth is the on-screen width of the page in pixels; the
// page's own size is read from the document.
type PlaceFieldRequest struct {
	Path          string   `json:"path"`
	ID            string   `json:"id,omitempty"`
	Page          int      `json:"page"`
	ScreenX       float64  `json:"screen_x"`
	ScreenY       float64  `json:"screen_y"`
	RenderedWidth float64  `json:"rendered_width"`
	Width         *float64 `json:"width,omitempty"`
	Height        *float64 `json:"height,omitempty"`
	Rotation      float64  `json:"rotation,omitempty"`
	Image         string   `json:"image"`
	ImageFormat   string   `json:"image_format,omitempty"`
}

// ListFieldsRequest represents a request for the pending fields of a document
type ListFieldsRequest struct {
	Path string `json:"path"`
}

// ClearFieldsRequest discards the pending fields of a document
type ClearFieldsRequest struct {
	Path string `json:"path"`
}

// EmbedSignaturesRequest embeds an explicit list of fields. Output defaults
// to <name>.signed.pdf next to the input.
type EmbedSignaturesRequest struct {
	Path   string                 `json:"path"`
	Output string                 `json:"output,omitempty"`
	Fields []signature.FieldInput `json:"fields"`
}

// FinalizeRequest embeds every pending field of a document
type FinalizeRequest struct {
	Path   string `json:"path"`
	Output string `json:"output,omitempty"`
}

// PDFServerInfoRequest represents a request to get server information and capabilities
type PDFServerInfoRequest struct {
	// No parameters needed for server info
}

// Response Types

// PDFPageInfoResult lists page sizes of a document
type PDFPageInfoResult struct {
	Path      string     `json:"path"`
	PageCount int        `json:"page_count"`
	Pages     []PageInfo `json:"pages"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// HitTestResult reports whether the point is inside the box
type HitTestResult struct {
	Inside bool            `json:"inside"`
	Bounds geometry.Bounds `json:"bounds"`
}

// PlacementMatrixResult holds the matrix and its content-stream form
type PlacementMatrixResult struct {
	Field    signature.SignatureField `json:"field"`
	Matrix   signature.AffineMatrix   `json:"matrix"`
	Operator string                   `json:"operator"`
}

// PlaceFieldResult is the stored field and where it came from
type PlaceFieldResult struct {
	Path     string                   `json:"path"`
	Sidecar  string                   `json:"sidecar"`
	Field    signature.SignatureField `json:"field"`
	Origin   geometry.PDFPoint        `json:"origin"`
	Scale    float64                  `json:"scale"`
	Total    int                      `json:"total"`
	Replaced bool                     `json:"replaced"`
}

// ListFieldsResult lists the pending fields of a document
type ListFieldsResult struct {
	Path   string                     `json:"path"`
	Fields []signature.SignatureField `json:"fields"`
}

// ClearFieldsResult reports how many pending fields were discarded
type ClearFieldsResult struct {
	Path    string `json:"path"`
	Removed int    `json:"removed"`
}

// EmbedSignaturesResult describes a written, verified output document
type EmbedSignaturesResult struct {
	Path     string                 `json:"path"`
	Output   string                 `json:"output"`
	Size     int64                  `json:"size"`
	Pages    int                    `json:"pages"`
	Embedded []string               `json:"embedded"`
	Skipped  []signature.Diagnostic `json:"skipped"`
	// Pending counts fields placed while Finalize ran; zero otherwise
	Pending int `json:"pending,omitempty"`
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
	SupportedFormats  []string   `json:"supported_formats"`
	FieldDefaults     string     `json:"field_defaults"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
