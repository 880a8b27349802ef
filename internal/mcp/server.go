package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/inkswift/mcp-pdf-signer/internal/config"
	"github.com/inkswift/mcp-pdf-signer/internal/descriptions"
	"github.com/inkswift/mcp-pdf-signer/internal/geometry"
	"github.com/inkswift/mcp-pdf-signer/internal/pdf"
	"github.com/inkswift/mcp-pdf-signer/internal/signature"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool set is fixed at startup
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Geometry tools
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolScreenToPDF,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolScreenToPDF)),
		mcp.WithNumber("screen_x", mcp.Required(), mcp.Description("Click X in rendered pixels from the left edge")),
		mcp.WithNumber("screen_y", mcp.Required(), mcp.Description("Click Y in rendered pixels from the top edge")),
		mcp.WithNumber("page_height", mcp.Required(), mcp.Description("Page height in PDF points")),
		mcp.WithNumber("scale", mcp.Required(), mcp.Description("Rendered pixels per PDF point")),
		mcp.WithNumber("field_height", mcp.Description("Field height in PDF points (default 0)")),
	), s.handleScreenToPDF)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolPDFToScreen,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolPDFToScreen)),
		mcp.WithNumber("pdf_x", mcp.Required(), mcp.Description("X in PDF points from the left edge")),
		mcp.WithNumber("pdf_y", mcp.Required(), mcp.Description("Y in PDF points from the bottom edge")),
		mcp.WithNumber("page_height", mcp.Required(), mcp.Description("Page height in PDF points")),
		mcp.WithNumber("scale", mcp.Required(), mcp.Description("Rendered pixels per PDF point")),
	), s.handlePDFToScreen)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolHitTest,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolHitTest)),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Point X")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Point Y")),
		mcp.WithNumber("rect_x", mcp.Required(), mcp.Description("Box anchor X")),
		mcp.WithNumber("rect_y", mcp.Required(), mcp.Description("Box anchor Y")),
		mcp.WithNumber("rect_width", mcp.Required(), mcp.Description("Box width")),
		mcp.WithNumber("rect_height", mcp.Required(), mcp.Description("Box height")),
	), s.handleHitTest)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolPlacementMatrix,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolPlacementMatrix)),
		mcp.WithNumber("image_width", mcp.Required(), mcp.Description("Signature image width in pixels")),
		mcp.WithNumber("image_height", mcp.Required(), mcp.Description("Signature image height in pixels")),
		mcp.WithNumber("page_height", mcp.Required(), mcp.Description("Page height in PDF points")),
		mcp.WithNumber("x", mcp.Description("Field X in PDF points")),
		mcp.WithNumber("y", mcp.Description("Field top in PDF points, measured from the top of the page")),
		mcp.WithNumber("width", mcp.Description("Field width in PDF points")),
		mcp.WithNumber("height", mcp.Description("Field height in PDF points")),
		mcp.WithNumber("rotation", mcp.Description("Rotation in degrees, counter-clockwise")),
	), s.handlePlacementMatrix)

	// Document tools
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolPageInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolPageInfo)),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the PDF file")),
	), s.handlePageInfo)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolValidateFile)),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the PDF file")),
	), s.handleValidateFile)

	// Field tools
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolPlaceField,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolPlaceField)),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the PDF file")),
		mcp.WithString("image", mcp.Required(), mcp.Description("Signature image as base64 or a data URI")),
		mcp.WithNumber("screen_x", mcp.Required(), mcp.Description("Click X in rendered pixels")),
		mcp.WithNumber("screen_y", mcp.Required(), mcp.Description("Click Y in rendered pixels")),
		mcp.WithNumber("rendered_width", mcp.Required(), mcp.Description("On-screen width of the page in pixels")),
		mcp.WithNumber("page", mcp.Description("1-based page number (default 1)")),
		mcp.WithNumber("width", mcp.Description("Field width in PDF points")),
		mcp.WithNumber("height", mcp.Description("Field height in PDF points")),
		mcp.WithNumber("rotation", mcp.Description("Rotation in degrees, counter-clockwise")),
		mcp.WithString("id", mcp.Description("Field ID; an existing field with this ID is replaced")),
		mcp.WithString("image_format", mcp.Description("png or jpeg; sniffed from the image when omitted")),
	), s.handlePlaceField)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolListFields,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolListFields)),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the PDF file")),
	), s.handleListFields)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolClearFields,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolClearFields)),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the PDF file")),
	), s.handleClearFields)

	// Embedding tools
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolEmbedFields,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolEmbedFields)),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the PDF file")),
		mcp.WithArray("fields",
			mcp.Required(),
			mcp.Description("Signature fields: id, page, x, y, width, height, rotation, image, image_format"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithString("output", mcp.Description("Output path (default <name>.signed.pdf)")),
	), s.handleEmbedFields)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolFinalize,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolFinalize)),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the PDF file")),
		mcp.WithString("output", mcp.Description("Output path (default <name>.signed.pdf)")),
	), s.handleFinalize)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleScreenToPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nums, err := requireFloats(request, "screen_x", "screen_y", "page_height", "scale")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := s.pdfService.ScreenToPDF(pdf.ScreenToPDFRequest{
		ScreenX:     nums[0],
		ScreenY:     nums[1],
		PageHeight:  nums[2],
		Scale:       nums[3],
		FieldHeight: request.GetFloat("field_height", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("PDF point: x=%g y=%g", p.X, p.Y)), nil
}

func (s *Server) handlePDFToScreen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nums, err := requireFloats(request, "pdf_x", "pdf_y", "page_height", "scale")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := s.pdfService.PDFToScreen(pdf.PDFToScreenRequest{
		PDFX:       nums[0],
		PDFY:       nums[1],
		PageHeight: nums[2],
		Scale:      nums[3],
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Screen point: x=%g y=%g", p.X, p.Y)), nil
}

func (s *Server) handleHitTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nums, err := requireFloats(request, "x", "y", "rect_x", "rect_y", "rect_width", "rect_height")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.HitTest(pdf.HitTestRequest{
		X:    nums[0],
		Y:    nums[1],
		Rect: geometry.Rect{X: nums[2], Y: nums[3], Width: nums[4], Height: nums[5]},
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	verdict := "outside"
	if result.Inside {
		verdict = "inside"
	}
	b := result.Bounds
	text := fmt.Sprintf("Point (%g, %g) is %s the box [left=%g top=%g right=%g bottom=%g]",
		nums[0], nums[1], verdict, b.Left, b.Top, b.Right, b.Bottom)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePlacementMatrix(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nums, err := requireFloats(request, "image_width", "image_height", "page_height")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PlacementMatrix(pdf.PlacementMatrixRequest{
		Field: signature.FieldInput{
			X:        optionalFloat(request, "x"),
			Y:        optionalFloat(request, "y"),
			Width:    optionalFloat(request, "width"),
			Height:   optionalFloat(request, "height"),
			Rotation: optionalFloat(request, "rotation"),
		},
		ImageWidth:  nums[0],
		ImageHeight: nums[1],
		PageHeight:  nums[2],
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	f := result.Field
	text := fmt.Sprintf("Field: x=%g y=%g width=%g height=%g rotation=%g\n", f.X, f.Y, f.Width, f.Height, f.Rotation)
	text += fmt.Sprintf("Matrix: %v\n", result.Matrix.Array())
	text += fmt.Sprintf("Operator: %s", result.Operator)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePageInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFPageInfo(pdf.PDFPageInfoRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPageInfoResult(result)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePlaceField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	image, err := request.RequireString("image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nums, err := requireFloats(request, "screen_x", "screen_y", "rendered_width")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PlaceField(pdf.PlaceFieldRequest{
		Path:          path,
		ID:            request.GetString("id", ""),
		Page:          request.GetInt("page", 0),
		ScreenX:       nums[0],
		ScreenY:       nums[1],
		RenderedWidth: nums[2],
		Width:         optionalFloat(request, "width"),
		Height:        optionalFloat(request, "height"),
		Rotation:      request.GetFloat("rotation", 0),
		Image:         image,
		ImageFormat:   request.GetString("image_format", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPlaceFieldResult(result)), nil
}

func (s *Server) handleListFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ListFields(pdf.ListFieldsRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatListFieldsResult(result)), nil
}

func (s *Server) handleClearFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ClearFields(pdf.ClearFieldsRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Removed %d pending field(s) from %s", result.Removed, result.Path)), nil
}

func (s *Server) handleEmbedFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields, err := fieldsArgument(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.EmbedSignatures(pdf.EmbedSignaturesRequest{
		Path:   path,
		Output: request.GetString("output", ""),
		Fields: fields,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatEmbedResult(result)), nil
}

func (s *Server) handleFinalize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Finalize(pdf.FinalizeRequest{
		Path:   path,
		Output: request.GetString("output", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatEmbedResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, pdf.PDFServerInfoRequest{}, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// requireFloats reads required numeric arguments in order
func requireFloats(request mcp.CallToolRequest, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, key := range keys {
		v, err := request.RequireFloat(key)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// optionalFloat distinguishes an omitted number from an explicit zero
func optionalFloat(request mcp.CallToolRequest, key string) *float64 {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return &f
		}
	}
	return nil
}

// fieldsArgument accepts the fields either as a JSON array or as a string
// holding one.
func fieldsArgument(request mcp.CallToolRequest) ([]signature.FieldInput, error) {
	raw, ok := request.GetArguments()["fields"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("required argument \"fields\" not found")
	}

	var data []byte
	if str, isString := raw.(string); isString {
		data = []byte(str)
	} else {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid fields argument: %w", err)
		}
		data = encoded
	}

	var fields []signature.FieldInput
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("invalid fields argument: %w", err)
	}
	return fields, nil
}

func (s *Server) formatPageInfoResult(result *pdf.PDFPageInfoResult) string {
	text := fmt.Sprintf("📄 %s: %d page(s)\n", result.Path, result.PageCount)
	for _, page := range result.Pages {
		text += fmt.Sprintf("   Page %d: %g x %g pt\n", page.Number, page.Width, page.Height)
	}
	return text
}

func (s *Server) formatPlaceFieldResult(result *pdf.PlaceFieldResult) string {
	f := result.Field
	verb := "Placed"
	if result.Replaced {
		verb = "Replaced"
	}
	text := fmt.Sprintf("✍️  %s field %s on page %d\n", verb, f.ID, f.Page)
	text += fmt.Sprintf("   Box: x=%g y=%g width=%g height=%g rotation=%g\n", f.X, f.Y, f.Width, f.Height, f.Rotation)
	text += fmt.Sprintf("   Click in PDF space: (%g, %g) at scale %g\n", result.Origin.X, result.Origin.Y, result.Scale)
	text += fmt.Sprintf("   Pending fields: %d (stored in %s)\n", result.Total, result.Sidecar)
	return text
}

func (s *Server) formatListFieldsResult(result *pdf.ListFieldsResult) string {
	if len(result.Fields) == 0 {
		return fmt.Sprintf("No pending fields for %s", result.Path)
	}

	text := fmt.Sprintf("Pending fields for %s (%d):\n", result.Path, len(result.Fields))
	for i, f := range result.Fields {
		text += fmt.Sprintf("   %d. %s page %d x=%g y=%g %gx%g rot=%g %s\n",
			i+1, f.ID, f.Page, f.X, f.Y, f.Width, f.Height, f.Rotation, f.ImageFormat)
	}
	return text
}

func (s *Server) formatEmbedResult(result *pdf.EmbedSignaturesResult) string {
	text := fmt.Sprintf("✅ Wrote %s (%d bytes, %d pages)\n", result.Output, result.Size, result.Pages)
	text += fmt.Sprintf("Embedded %d field(s)", len(result.Embedded))
	if len(result.Embedded) > 0 {
		text += ": " + strings.Join(result.Embedded, ", ")
	}
	text += "\n"

	if len(result.Skipped) > 0 {
		text += fmt.Sprintf("\n⚠️  Skipped %d field(s):\n", len(result.Skipped))
		for _, d := range result.Skipped {
			text += fmt.Sprintf("   • %s (page %d) %s: %s\n", d.FieldID, d.Page, d.Reason, d.Message)
		}
	}
	if result.Pending > 0 {
		text += fmt.Sprintf("\n%d field(s) placed during finalize are still pending\n", result.Pending)
	}
	return text
}

func (s *Server) formatServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("📐 Field Defaults: %s\n\n", result.FieldDefaults)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			line := fmt.Sprintf("   %d. %s (%d bytes)", i+1, file.Name, file.Size)
			if file.Signed {
				line += " [signed]"
			}
			if file.PendingFields > 0 {
				line += fmt.Sprintf(" [%d pending]", file.PendingFields)
			}
			text += line + "\n"
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	if len(result.SupportedFormats) > 0 {
		text += "\n🖼️  Supported Image Formats:\n"
		for _, format := range result.SupportedFormats {
			text += fmt.Sprintf("  • %s\n", format)
		}
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting signing MCP server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is canceled
func (s *Server) runServerMode(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := s.config.Address()
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sseServer.Start(addr)
	}()
	log.Printf("Signing MCP server listening on %s (SSE)", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve sse: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down sse server: %w", err)
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve sse: %w", err)
		}
	case <-shutdownCtx.Done():
		log.Printf("SSE server did not stop within %s", shutdownTimeout)
	}
	return nil
}
