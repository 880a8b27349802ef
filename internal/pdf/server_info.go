package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inkswift/mcp-pdf-signer/internal/descriptions"
)

// LazyDirectoryScanner lists signable PDFs with limits on depth, count and time
type LazyDirectoryScanner struct {
	maxDepth    int
	fileLimit   int
	timeLimit   time.Duration
	skipHidden  bool
	skipSymlink bool
}

// ScanResult represents the result of a directory scan
type ScanResult struct {
	Files        []FileInfo
	ScanTime     time.Duration
	FilesScanned int
	Truncated    bool
}

// NewLazyDirectoryScanner creates a new lazy directory scanner
func NewLazyDirectoryScanner(maxDepth, fileLimit int, timeLimit time.Duration) *LazyDirectoryScanner {
	return &LazyDirectoryScanner{
		maxDepth:    maxDepth,
		fileLimit:   fileLimit,
		timeLimit:   timeLimit,
		skipHidden:  true,
		skipSymlink: true,
	}
}

// ScanDirectory walks root and collects PDF files. pending, when set,
// reports the number of pending fields of each unsigned document.
func (s *LazyDirectoryScanner) ScanDirectory(ctx context.Context, root string,
	pending func(path string) int,
) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{Files: []FileInfo{}}

	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			// skip what we can't read
			if entry != nil && entry.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if s.timeLimit > 0 && time.Since(start) > s.timeLimit {
			result.Truncated = true
			return filepath.SkipAll
		}

		if path == root {
			return nil
		}
		result.FilesScanned++

		name := entry.Name()
		if s.skipHidden && strings.HasPrefix(name, ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if s.skipSymlink && entry.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if entry.IsDir() {
			if s.maxDepth > 0 && depth(root, path) >= s.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !isPDFFile(name) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil
		}
		file := FileInfo{
			Name:         name,
			Path:         path,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
			Signed:       strings.HasSuffix(strings.ToLower(name), signedSuffix),
		}
		if !file.Signed && pending != nil {
			file.PendingFields = pending(path)
		}
		result.Files = append(result.Files, file)

		if s.fileLimit > 0 && len(result.Files) >= s.fileLimit {
			result.Truncated = true
			return filepath.SkipAll
		}
		return nil
	})

	result.ScanTime = time.Since(start)
	return result, err
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func isPDFFile(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

// PDFServerInfo returns server information, the signable documents of the
// configured directory and usage guidance. A failed or slow directory scan
// yields partial contents rather than an error.
func (s *Service) PDFServerInfo(ctx context.Context, _ PDFServerInfoRequest, serverName, version string) (*PDFServerInfoResult, error) {
	dir := s.pathValidator.GetConfiguredDirectory()

	scanCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// max 5 levels, 100 files, 3 second limit
	scanner := NewLazyDirectoryScanner(5, 100, 3*time.Second)
	scan, err := scanner.ScanDirectory(scanCtx, dir, s.placements.Count)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	d := s.defaults
	return &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       s.maxFileSize,
		AvailableTools:    availableTools(),
		DirectoryContents: scan.Files,
		UsageGuidance:     s.usageGuidance(),
		SupportedFormats:  s.GetSupportedImageFormats(),
		FieldDefaults: fmt.Sprintf("page %d, position (%g, %g), size %gx%g pt",
			d.Page, d.X, d.Y, d.Width, d.Height),
	}, nil
}

// availableTools returns the list of available tools
func availableTools() []ToolInfo {
	const pathParam = "path (required): PDF file inside the configured directory (absolute or relative)"

	return []ToolInfo{
		{
			Name:        descriptions.ToolServerInfo,
			Description: descriptions.GetToolDescription(descriptions.ToolServerInfo),
			Usage:       "Use this tool first to discover documents and pending fields.",
			Parameters:  "No parameters required",
		},
		{
			Name:        descriptions.ToolPageInfo,
			Description: descriptions.GetToolDescription(descriptions.ToolPageInfo),
			Usage:       "Use this tool to get page sizes in points before converting clicks.",
			Parameters:  pathParam,
		},
		{
			Name:        descriptions.ToolValidateFile,
			Description: descriptions.GetToolDescription(descriptions.ToolValidateFile),
			Usage:       "Use this tool to check a document or a signed output is readable.",
			Parameters:  pathParam,
		},
		{
			Name:        descriptions.ToolScreenToPDF,
			Description: descriptions.GetToolDescription(descriptions.ToolScreenToPDF),
			Usage:       "Use this tool to convert a click on a rendered page to PDF points.",
			Parameters:  "screen_x, screen_y, page_height, scale (required), field_height (optional)",
		},
		{
			Name:        descriptions.ToolPDFToScreen,
			Description: descriptions.GetToolDescription(descriptions.ToolPDFToScreen),
			Usage:       "Use this tool to draw stored fields over a rendered page.",
			Parameters:  "pdf_x, pdf_y, page_height, scale (required)",
		},
		{
			Name:        descriptions.ToolHitTest,
			Description: descriptions.GetToolDescription(descriptions.ToolHitTest),
			Usage:       "Use this tool to decide whether a click selects a field.",
			Parameters:  "x, y, rect_x, rect_y, rect_width, rect_height (required)",
		},
		{
			Name:        descriptions.ToolPlacementMatrix,
			Description: descriptions.GetToolDescription(descriptions.ToolPlacementMatrix),
			Usage:       "Use this tool to preview how an image will be drawn into a field.",
			Parameters:  "x, y, width, height, rotation, image_width, image_height, page_height",
		},
		{
			Name:        descriptions.ToolPlaceField,
			Description: descriptions.GetToolDescription(descriptions.ToolPlaceField),
			Usage:       "Use this tool for each signature the user places on a rendered page.",
			Parameters:  pathParam + ", page, screen_x, screen_y, rendered_width, image (required), width, height, rotation, id, image_format (optional)",
		},
		{
			Name:        descriptions.ToolListFields,
			Description: descriptions.GetToolDescription(descriptions.ToolListFields),
			Usage:       "Use this tool to review pending fields before finalising.",
			Parameters:  pathParam,
		},
		{
			Name:        descriptions.ToolClearFields,
			Description: descriptions.GetToolDescription(descriptions.ToolClearFields),
			Usage:       "Use this tool to start placing over.",
			Parameters:  pathParam,
		},
		{
			Name:        descriptions.ToolEmbedFields,
			Description: descriptions.GetToolDescription(descriptions.ToolEmbedFields),
			Usage:       "Use this tool to sign a document in one step from known PDF-space fields.",
			Parameters:  pathParam + ", fields (required): JSON array of fields, output (optional)",
		},
		{
			Name:        descriptions.ToolFinalize,
			Description: descriptions.GetToolDescription(descriptions.ToolFinalize),
			Usage:       "Use this tool once all signatures are placed.",
			Parameters:  pathParam + ", output (optional)",
		},
	}
}

func (s *Service) usageGuidance() string {
	maxFileSizeMB := s.maxFileSize / (1024 * 1024)

	return fmt.Sprintf(`Signing MCP Server Usage Guide:

1. DISCOVER:
   - Use 'sign_server_info' to list documents and their pending fields
   - Use 'sign_page_info' to get page sizes in points

2. PLACE SIGNATURES:
   - Render the page at some pixel width; scale = rendered width / page width
   - Use 'sign_place_field' with the click position for each signature
   - Use 'sign_list_fields' to review, 'sign_clear_fields' to start over

3. SIGN:
   - Use 'sign_finalize' to write <name>.signed.pdf from the pending fields
   - Or use 'sign_embed_fields' with explicit PDF-space fields

4. CHECK:
   - Skipped fields are listed with a reason: OUT_OF_RANGE_PAGE, INVALID_IMAGE or UNSUPPORTED_FORMAT
   - Use 'sign_validate_file' on the output

IMPORTANT NOTES:
- Coordinates are PDF points (1/72 inch); a field's y is measured from the top of the page
- Signature images must be PNG or JPEG, as base64 or a data URI
- Files must stay inside the configured directory
- The server can handle files up to %dMB
- Embedding into an already signed document draws the signatures again`, maxFileSizeMB)
}
