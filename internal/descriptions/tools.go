package descriptions

import "sort"

// Tool names
const (
	ToolScreenToPDF     = "sign_screen_to_pdf"
	ToolPDFToScreen     = "sign_pdf_to_screen"
	ToolHitTest         = "sign_hit_test"
	ToolPlacementMatrix = "sign_placement_matrix"
	ToolPageInfo        = "sign_page_info"
	ToolValidateFile    = "sign_validate_file"
	ToolPlaceField      = "sign_place_field"
	ToolListFields      = "sign_list_fields"
	ToolClearFields     = "sign_clear_fields"
	ToolEmbedFields     = "sign_embed_fields"
	ToolFinalize        = "sign_finalize"
	ToolServerInfo      = "sign_server_info"
)

// Tool descriptions with practical examples and use cases

const (
	// Geometry Tools
	ScreenToPDFDescription = `Convert a click on a rendered page into PDF coordinates.

**When to use:** A user clicked where a signature should go on a page rendered at some pixel width, and you need the PDF-space position of the field.

**Why it's useful:** Screen pixels grow downward from the top-left corner; PDF points grow upward from the bottom-left. This tool divides by the render scale and flips the Y axis so the click becomes the top-left corner of a field of the given height.

**Examples:**
• "Page is 612x792 pt rendered 918 px wide (scale 1.5); the user clicked at (150, 300) for a 60 pt tall field"
• "Convert the drop point of a dragged signature box to PDF space"

**Best practices:** scale is rendered width divided by page width in points. Use sign_page_info to get the page size.`

	PDFToScreenDescription = `Convert a PDF-space point back into rendered pixels.

**When to use:** Drawing existing field boxes over a rendered page, or checking where a stored field will appear on screen.

**Why it's useful:** It is the plain inverse axis flip. It does not subtract a field height, so converting a field's bottom-left corner yields the box's bottom-left on screen.

**Best practices:** Use the same scale the page was rendered with.`

	HitTestDescription = `Check whether a point lies inside a field box.

**When to use:** Deciding whether a click selects an existing signature field.

**Why it's useful:** Uses inclusive bounds, so a click exactly on an edge counts as inside.`

	PlacementMatrixDescription = `Compute the affine matrix that draws a signature image into a field.

**When to use:** Previewing or auditing exactly how an image will be scaled, rotated and positioned on the page, without modifying a document.

**Why it's useful:** Returns the six coefficients [a b c d e f] and the equivalent content-stream operator. Rotation is in degrees about the centre of the field box; rotation 0 maps the image exactly onto the box.

**Best practices:** Image size is in pixels, page height in points.`

	// Document Tools
	PageInfoDescription = `List the pages of a PDF with their width and height in points.

**When to use:** Before converting clicks (the scale depends on page width) or to check a page number exists before placing a field.

**Best practices:** Page numbers are 1-based.`

	ValidateFileDescription = `Verify a PDF can be parsed and report its page count.

**When to use:** Before placing fields on an uploaded document, or to double-check a signed output.

**Why it's useful:** Uses a parser independent of the one that writes signed documents, so a passing result means the output is readable by other tools too.`

	// Placement Tools
	PlaceFieldDescription = `Place a signature field on a document from a click on its rendered page.

**When to use:** The user clicked (or dropped a box) on a rendered page and the signature should be stored until the document is finalised.

**Why it's useful:** Reads the page size from the document, converts the click with the render scale, fills in defaults (page 1, 180x60 pt) and stores the field in a sidecar file next to the document. Placing a field with an existing id replaces it.

**Examples:**
• "Place the signature image at the click (200, 540) on page 2 rendered 900 px wide"

**Common workflows:**
1. sign_page_info → render page → sign_place_field for each click → sign_list_fields → sign_finalize`

	ListFieldsDescription = `List the signature fields waiting to be embedded into a document.`

	ClearFieldsDescription = `Discard every pending signature field of a document without embedding them.`

	// Embedding Tools
	EmbedFieldsDescription = `Embed an explicit list of signature fields into a copy of a document.

**When to use:** The caller already knows the PDF-space fields and wants a signed copy in one step.

**Why it's useful:** Each field's image (base64 or data URI, PNG or JPEG) is drawn at its position, size and rotation. Fields with a bad page, a missing or undecodable image, or an unsupported format are skipped and reported; the remaining fields are still embedded. An unreadable document fails the whole call.

**Best practices:** Embedding the same fields into an already signed document draws them again; nothing marks a document as signed.`

	FinalizeDescription = `Embed all pending fields of a document into <name>.signed.pdf and clear them.

**When to use:** The user has placed every signature and is done.

**Why it's useful:** Writes the signed copy, verifies it with an independent parser, and clears the pending fields so the document is finalised once. If embedding fails nothing is cleared.`

	ServerInfoDescription = `Get server information, available tools, signable documents and usage guidance.

**When to use:** At the start of a session to discover documents in the configured directory and which of them have pending fields.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	ToolScreenToPDF:     ScreenToPDFDescription,
	ToolPDFToScreen:     PDFToScreenDescription,
	ToolHitTest:         HitTestDescription,
	ToolPlacementMatrix: PlacementMatrixDescription,
	ToolPageInfo:        PageInfoDescription,
	ToolValidateFile:    ValidateFileDescription,
	ToolPlaceField:      PlaceFieldDescription,
	ToolListFields:      ListFieldsDescription,
	ToolClearFields:     ClearFieldsDescription,
	ToolEmbedFields:     EmbedFieldsDescription,
	ToolFinalize:        FinalizeDescription,
	ToolServerInfo:      ServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all tools in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
