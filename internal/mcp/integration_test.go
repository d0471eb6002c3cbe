package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestServerIntegration_WizardFlow(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	steps := []struct {
		name    string
		handler func(context.Context, map[string]interface{}) (string, bool, error)
		args    map[string]interface{}
	}{
		{"form_submit", wrap(server.handleFormSubmit), map[string]interface{}{
			"spaceName": "갤러리카페520",
			"address":   "충북 충주시 성터5길20 2층",
			"applicant": "주경옥",
		}},
		{"signature_submit", wrap(server.handleSignatureSubmit), map[string]interface{}{"strokes": testStrokes}},
	}
	for _, step := range steps {
		text, isErr, err := step.handler(ctx, step.args)
		if err != nil || isErr {
			t.Fatalf("%s failed: %v %s", step.name, err, text)
		}
	}

	for _, format := range []string{"docx", "pdf"} {
		t.Run(format, func(t *testing.T) {
			text, isErr, err := wrap(server.handleDocumentGenerate)(ctx, map[string]interface{}{"format": format})
			if err != nil || isErr {
				t.Fatalf("document_generate failed: %v %s", err, text)
			}
			if !strings.Contains(text, "Generated 신청서_갤러리카페520_") {
				t.Errorf("unexpected file name in: %s", text)
			}
			if !strings.Contains(text, "Saved to: ") {
				t.Errorf("document should be saved by default: %s", text)
			}

			name := fileNameFrom(text)
			text, isErr, err = wrap(server.handleDocumentInspect)(ctx, map[string]interface{}{"path": name})
			if err != nil || isErr {
				t.Fatalf("document_inspect failed: %v %s", err, text)
			}
			if !strings.Contains(text, "Format: "+format) {
				t.Errorf("inspection should report format %s: %s", format, text)
			}
			if !strings.Contains(text, "Images: 1") {
				t.Errorf("inspection should report one signature image: %s", text)
			}
		})
	}

	text, _, err := wrap(server.handleServerInfo)(ctx, nil)
	if err != nil {
		t.Fatalf("server_info failed: %v", err)
	}
	if !strings.Contains(text, "3. generate: ready") {
		t.Errorf("wizard should be ready after both steps: %s", text)
	}
}

func TestServerIntegration_GenerateWithoutSave(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	if _, isErr, err := wrap(server.handleFormSubmit)(ctx, map[string]interface{}{
		"spaceName": "카페", "address": "서울", "applicant": "홍길동",
	}); err != nil || isErr {
		t.Fatalf("form_submit failed: %v", err)
	}
	if _, isErr, err := wrap(server.handleSignatureSubmit)(ctx, map[string]interface{}{"strokes": testStrokes}); err != nil || isErr {
		t.Fatalf("signature_submit failed: %v", err)
	}

	text, isErr, err := wrap(server.handleDocumentGenerate)(ctx, map[string]interface{}{"format": "pdf", "save": false})
	if err != nil || isErr {
		t.Fatalf("document_generate failed: %v %s", err, text)
	}
	if strings.Contains(text, "Saved to:") {
		t.Errorf("document should not be saved: %s", text)
	}
}

type handlerFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func wrap(h handlerFunc) func(context.Context, map[string]interface{}) (string, bool, error) {
	return func(ctx context.Context, args map[string]interface{}) (string, bool, error) {
		result, err := h(ctx, callTool(args))
		if err != nil {
			return "", false, err
		}
		return extractTextFromResult(result), result.IsError, nil
	}
}

// fileNameFrom returns the generated file name from a document_generate result
func fileNameFrom(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimPrefix(line, "Generated ")
}
