package descriptions

// Tool descriptions with practical examples of the wizard flow

const (
	// Step 1
	FormSubmitDescription = `Store the application form record (step 1 of the wizard).

**When to use:** Before drawing a signature or generating a document. All three fields are required.

**Fields:**
• spaceName: 공간명, the name of the space being registered
• address: 주소, the street address of the space
• applicant: 신청자(대표), the representative filing the application

**Examples:**
• "Register 갤러리카페520 at 충북 충주시 성터5길20 2층 for 주경옥"

**Best practices:** Values are trimmed and NFC normalised. Submitting again replaces the stored record.`

	FormShowDescription = `Show the stored form record and whether a signature is present.

**When to use:** To check which wizard steps are complete before generating a document.

**Best practices:** The signature is reported by MIME type and pixel size, never as raw data.`

	// Step 2
	SignatureSubmitDescription = `Store the freehand signature (step 2 of the wizard).

**When to use:** After the form record is stored. Provide exactly one of:
• dataUrl: a PNG or JPEG data URL (or bare base64) captured elsewhere
• strokes: JSON array of strokes, each an array of [x, y] points on an 800×300 canvas

**Examples:**
• strokes: [[[10,10],[120,40],[200,20]],[[220,60],[260,90]]]

**Best practices:** Strokes are drawn with a 2px black round-capped pen on a transparent canvas.`

	SignatureClearDescription = `Remove the stored signature so it can be drawn again.`

	// Step 3
	DocumentGenerateDescription = `Generate the signed application document (step 3 of the wizard).

**When to use:** After both the form record and the signature are stored.

**Formats:**
• docx (default): fills {{value1}}, {{value2}}, {{value3}}, {{year}}, {{month}}, {{day}} and embeds {{signature}} as an 80×80 image in the template
• pdf: draws a single A4 page with the date, the three fields, the signature and the seal text

**Output:** 신청서_<공간명>_<YYYY-MM-DD>.<ext> written to the output directory when save is true.

**Errors:** Missing data names the wizard step to revisit; template problems list file, byte offset, context and explanation for each tag.`

	DocumentInspectDescription = `Summarise a generated document in the output directory.

**When to use:** To verify that a generated file contains the expected text and exactly one signature image.

**Output:** format, size, page count (PDF), image count, embedded media (DOCX) and the extracted text.`

	ServerInfoDescription = `Get server information, wizard status, configuration and the available tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"form_submit":       FormSubmitDescription,
	"form_show":         FormShowDescription,
	"signature_submit":  SignatureSubmitDescription,
	"signature_clear":   SignatureClearDescription,
	"document_generate": DocumentGenerateDescription,
	"document_inspect":  DocumentInspectDescription,
	"server_info":       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in wizard order
func GetAllToolNames() []string {
	return []string{
		"form_submit",
		"form_show",
		"signature_submit",
		"signature_clear",
		"document_generate",
		"document_inspect",
		"server_info",
	}
}
