package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/inkswift/mcp-pdf-signer/internal/config"
	"github.com/inkswift/mcp-pdf-signer/internal/pdf"
	"github.com/inkswift/mcp-pdf-signer/internal/testpdf"
)

func newTestConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = dir
	cfg.Version = "1.0.0"
	cfg.ServerName = "test-server"
	cfg.MaxFileSize = 1024 * 1024
	return cfg
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := newTestConfig(dir)

	pdfService, err := pdf.NewService(cfg.MaxFileSize, dir, cfg.FieldDefaults(), nil)
	if err != nil {
		t.Fatalf("failed to create PDF service: %v", err)
	}
	server, err := NewServer(cfg, pdfService)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server, dir
}

func writeTestPDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, testpdf.Document(pages), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(dir)
	pdfService, err := pdf.NewService(cfg.MaxFileSize, dir, cfg.FieldDefaults(), nil)
	if err != nil {
		t.Fatalf("failed to create PDF service: %v", err)
	}

	tests := []struct {
		name        string
		config      *config.Config
		service     *pdf.Service
		expectError bool
	}{
		{name: "valid stdio mode config", config: cfg, service: pdfService},
		{
			name: "valid server mode config",
			config: func() *config.Config {
				c := newTestConfig(dir)
				c.Mode = config.ModeServer
				return c
			}(),
			service: pdfService,
		},
		{name: "nil service", config: cfg, service: nil, expectError: true},
		{name: "nil config", config: nil, service: pdfService, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.config, tt.service)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if server.mcpServer == nil {
				t.Error("mcpServer should be initialized")
			}
			if server.config != tt.config {
				t.Error("server config not set correctly")
			}
		})
	}
}

func TestServer_handleScreenToPDF(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name        string
		args        map[string]interface{}
		expectError bool
		expected    string
	}{
		{
			name: "click becomes field top-left",
			args: map[string]interface{}{
				"screen_x": 150.0, "screen_y": 300.0, "page_height": 792.0, "scale": 1.5, "field_height": 60.0,
			},
			expected: "PDF point: x=100 y=532",
		},
		{
			name: "field height defaults to zero",
			args: map[string]interface{}{
				"screen_x": 0.0, "screen_y": 0.0, "page_height": 792.0, "scale": 1.0,
			},
			expected: "PDF point: x=0 y=792",
		},
		{
			name:        "missing scale",
			args:        map[string]interface{}{"screen_x": 1.0, "screen_y": 1.0, "page_height": 792.0},
			expectError: true,
		},
		{
			name: "zero scale rejected",
			args: map[string]interface{}{
				"screen_x": 1.0, "screen_y": 1.0, "page_height": 792.0, "scale": 0.0,
			},
			expectError: true,
			expected:    "INVALID_ARGUMENT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleScreenToPDF(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if result.IsError != tt.expectError {
				t.Fatalf("IsError = %v, want %v (%s)", result.IsError, tt.expectError, extractTextFromResult(result))
			}
			if tt.expected != "" && !strings.Contains(extractTextFromResult(result), tt.expected) {
				t.Errorf("result %q does not contain %q", extractTextFromResult(result), tt.expected)
			}
		})
	}
}

func TestServer_handlePDFToScreen(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handlePDFToScreen(context.Background(), callRequest(map[string]interface{}{
		"pdf_x": 100.0, "pdf_y": 592.0, "page_height": 792.0, "scale": 1.5,
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if got := extractTextFromResult(result); got != "Screen point: x=150 y=300" {
		t.Errorf("got %q", got)
	}
}

func TestServer_handleHitTest(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name     string
		x, y     float64
		width    float64
		expected string
		isError  bool
	}{
		{name: "inside", x: 15, y: 15, width: 10, expected: "is inside"},
		{name: "edge counts as inside", x: 20, y: 20, width: 10, expected: "is inside"},
		{name: "outside", x: 25, y: 15, width: 10, expected: "is outside"},
		{name: "negative size", x: 15, y: 15, width: -10, isError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleHitTest(context.Background(), callRequest(map[string]interface{}{
				"x": tt.x, "y": tt.y, "rect_x": 10.0, "rect_y": 10.0, "rect_width": tt.width, "rect_height": 10.0,
			}))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if result.IsError != tt.isError {
				t.Fatalf("IsError = %v, want %v", result.IsError, tt.isError)
			}
			if tt.expected != "" && !strings.Contains(extractTextFromResult(result), tt.expected) {
				t.Errorf("result %q does not contain %q", extractTextFromResult(result), tt.expected)
			}
		})
	}
}

func TestServer_handlePlacementMatrix(t *testing.T) {
	server, _ := newTestServer(t)

	// Default field 180x60 at (50, 50) from the top, image 90x30 px
	result, err := server.handlePlacementMatrix(context.Background(), callRequest(map[string]interface{}{
		"image_width": 90.0, "image_height": 30.0, "page_height": 792.0,
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	text := extractTextFromResult(result)
	if !strings.Contains(text, "Operator: 2 0 0 2 50 682 cm") {
		t.Errorf("unexpected matrix output: %s", text)
	}

	// Explicit zero position is not replaced by the defaults
	result, err = server.handlePlacementMatrix(context.Background(), callRequest(map[string]interface{}{
		"image_width": 90.0, "image_height": 30.0, "page_height": 792.0, "x": 0.0, "y": 0.0,
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if text := extractTextFromResult(result); !strings.Contains(text, "Operator: 2 0 0 2 0 732 cm") {
		t.Errorf("unexpected matrix output: %s", text)
	}

	result, _ = server.handlePlacementMatrix(context.Background(), callRequest(map[string]interface{}{
		"image_width": 0.0, "image_height": 30.0, "page_height": 792.0,
	}))
	if !result.IsError {
		t.Error("expected error for zero image width")
	}
}

func TestServer_handleDocumentTools(t *testing.T) {
	server, dir := newTestServer(t)
	writeTestPDF(t, dir, "contract.pdf", 2)
	if err := os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := server.handlePageInfo(context.Background(), callRequest(map[string]interface{}{"path": "contract.pdf"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	text := extractTextFromResult(result)
	if !strings.Contains(text, "2 page(s)") || !strings.Contains(text, "Page 2: 612 x 792 pt") {
		t.Errorf("unexpected page info: %s", text)
	}

	result, _ = server.handleValidateFile(context.Background(), callRequest(map[string]interface{}{"path": "contract.pdf"}))
	if text := extractTextFromResult(result); !strings.Contains(text, "is valid (2 pages)") {
		t.Errorf("unexpected validation output: %s", text)
	}

	result, _ = server.handleValidateFile(context.Background(), callRequest(map[string]interface{}{"path": "broken.pdf"}))
	if text := extractTextFromResult(result); !strings.Contains(text, "validation failed") {
		t.Errorf("unexpected validation output: %s", text)
	}

	result, _ = server.handlePageInfo(context.Background(), callRequest(map[string]interface{}{}))
	if !result.IsError {
		t.Error("expected error for missing path")
	}

	result, _ = server.handlePageInfo(context.Background(), callRequest(map[string]interface{}{"path": "/etc/passwd"}))
	if !result.IsError {
		t.Error("expected error for path outside the configured directory")
	}
}

func TestServer_handleEmbedFields(t *testing.T) {
	server, dir := newTestServer(t)
	writeTestPDF(t, dir, "contract.pdf", 1)
	png := testpdf.DataURI("image/png", testpdf.PNG(90, 30, false))

	tests := []struct {
		name     string
		fields   interface{}
		isError  bool
		contains []string
	}{
		{
			name: "array argument",
			fields: []interface{}{
				map[string]interface{}{"id": "a", "page": 1.0, "image": png},
				map[string]interface{}{"id": "b", "page": 4.0, "image": png},
			},
			contains: []string{"Embedded 1 field(s): a", "Skipped 1 field(s)", "b (page 4) OUT_OF_RANGE_PAGE"},
		},
		{
			name:     "string argument",
			fields:   `[{"id":"c","image":"` + png + `","rotation":90}]`,
			contains: []string{"Embedded 1 field(s): c"},
		},
		{
			name:    "malformed fields",
			fields:  "not json",
			isError: true,
		},
		{
			name:    "negative width",
			fields:  []interface{}{map[string]interface{}{"id": "d", "width": -5.0, "image": png}},
			isError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleEmbedFields(context.Background(), callRequest(map[string]interface{}{
				"path": "contract.pdf", "fields": tt.fields,
			}))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			text := extractTextFromResult(result)
			if result.IsError != tt.isError {
				t.Fatalf("IsError = %v, want %v (%s)", result.IsError, tt.isError, text)
			}
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("result %q does not contain %q", text, want)
				}
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "contract.signed.pdf")); err != nil {
		t.Errorf("signed output not written: %v", err)
	}

	result, _ := server.handleEmbedFields(context.Background(), callRequest(map[string]interface{}{"path": "contract.pdf"}))
	if !result.IsError {
		t.Error("expected error for missing fields")
	}
}

func TestServer_handleServerInfo(t *testing.T) {
	server, dir := newTestServer(t)
	writeTestPDF(t, dir, "contract.pdf", 1)

	result, err := server.handleServerInfo(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	text := extractTextFromResult(result)
	for _, want := range []string{"test-server v1.0.0", "contract.pdf", "sign_place_field", "png", "Field Defaults"} {
		if !strings.Contains(text, want) {
			t.Errorf("server info does not contain %q", want)
		}
	}
}

func TestOptionalFloat(t *testing.T) {
	req := callRequest(map[string]interface{}{"zero": 0.0, "int": 3, "str": "2.5", "bad": "x", "null": nil})

	if v := optionalFloat(req, "zero"); v == nil || *v != 0 {
		t.Errorf("zero: got %v", v)
	}
	if v := optionalFloat(req, "int"); v == nil || *v != 3 {
		t.Errorf("int: got %v", v)
	}
	if v := optionalFloat(req, "str"); v == nil || *v != 2.5 {
		t.Errorf("str: got %v", v)
	}
	for _, key := range []string{"bad", "null", "missing"} {
		if v := optionalFloat(req, key); v != nil {
			t.Errorf("%s: expected nil, got %v", key, *v)
		}
	}
}

// extractTextFromResult extracts text content from MCP CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}
