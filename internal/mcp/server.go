package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/sign-form/internal/config"
	"github.com/a3tai/sign-form/internal/descriptions"
	"github.com/a3tai/sign-form/internal/document"
	"github.com/a3tai/sign-form/internal/form"
	"github.com/a3tai/sign-form/internal/signature"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	forms     *form.Repository
	documents *document.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, forms *form.Repository, documents *document.Service) (*Server, error) {
	if forms == nil {
		return nil, fmt.Errorf("forms cannot be nil")
	}
	if documents == nil {
		return nil, fmt.Errorf("documents cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		forms:     forms,
		documents: documents,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	formSubmitTool := mcp.NewTool(
		"form_submit",
		mcp.WithDescription(descriptions.GetToolDescription("form_submit")),
		mcp.WithString("spaceName",
			mcp.Required(),
			mcp.Description("공간명"),
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("주소"),
		),
		mcp.WithString("applicant",
			mcp.Required(),
			mcp.Description("신청자(대표)"),
		),
	)
	s.mcpServer.AddTool(formSubmitTool, s.handleFormSubmit)

	formShowTool := mcp.NewTool(
		"form_show",
		mcp.WithDescription(descriptions.GetToolDescription("form_show")),
	)
	s.mcpServer.AddTool(formShowTool, s.handleFormShow)

	signatureSubmitTool := mcp.NewTool(
		"signature_submit",
		mcp.WithDescription(descriptions.GetToolDescription("signature_submit")),
		mcp.WithString("dataUrl",
			mcp.Description("PNG or JPEG data URL of the signature"),
		),
		mcp.WithString("strokes",
			mcp.Description("JSON array of strokes, each an array of [x, y] points"),
		),
	)
	s.mcpServer.AddTool(signatureSubmitTool, s.handleSignatureSubmit)

	signatureClearTool := mcp.NewTool(
		"signature_clear",
		mcp.WithDescription(descriptions.GetToolDescription("signature_clear")),
	)
	s.mcpServer.AddTool(signatureClearTool, s.handleSignatureClear)

	documentGenerateTool := mcp.NewTool(
		"document_generate",
		mcp.WithDescription(descriptions.GetToolDescription("document_generate")),
		mcp.WithString("format",
			mcp.Description("Document format: docx or pdf (uses the configured default if empty)"),
			mcp.Enum(string(document.FormatDOCX), string(document.FormatPDF)),
		),
		mcp.WithBoolean("save",
			mcp.Description("Write the document to the output directory (default true)"),
		),
	)
	s.mcpServer.AddTool(documentGenerateTool, s.handleDocumentGenerate)

	documentInspectTool := mcp.NewTool(
		"document_inspect",
		mcp.WithDescription(descriptions.GetToolDescription("document_inspect")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File name or path inside the output directory"),
		),
	)
	s.mcpServer.AddTool(documentInspectTool, s.handleDocumentInspect)

	serverInfoTool := mcp.NewTool(
		"server_info",
		mcp.WithDescription(descriptions.GetToolDescription("server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleFormSubmit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	record := form.Record{
		SpaceName: request.GetString("spaceName", ""),
		Address:   request.GetString("address", ""),
		Applicant: request.GetString("applicant", ""),
	}

	saved, err := s.forms.SaveRecord(ctx, record)
	if err != nil {
		return mcp.NewToolResultError(formatFieldErrors(err)), nil
	}

	responseText := "Form record saved\n"
	responseText += formatRecord(saved)
	responseText += "\nNext step: draw the signature with 'signature_submit'.\n"
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFormShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	record, ok, err := s.forms.LoadRecord(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if ok {
		responseText = "Form record\n" + formatRecord(record)
	} else {
		responseText = "Form record: not submitted\n"
	}

	preview, err := s.signaturePreview(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	responseText += preview
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSignatureSubmit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataURL := request.GetString("dataUrl", "")
	strokes := request.GetString("strokes", "")

	switch {
	case dataURL != "" && strokes != "":
		return mcp.NewToolResultError("provide either dataUrl or strokes, not both"), nil
	case strokes != "":
		parsed, err := signature.ParseStrokes([]byte(strokes))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dataURL, err = signature.RenderStrokes(parsed, s.config.CanvasWidth, s.config.CanvasHeight)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	case dataURL == "":
		return mcp.NewToolResultError("either dataUrl or strokes is required"), nil
	}

	img, err := s.forms.SaveSignature(ctx, dataURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Signature saved: %s, %dx%d pixels\n", img.MIME, img.Width, img.Height)
	if _, ok, err := s.forms.LoadRecord(ctx); err == nil && !ok {
		responseText += "\n⚠️  No form record yet. Submit it with 'form_submit' before generating.\n"
	} else {
		responseText += "\nNext step: generate the document with 'document_generate'.\n"
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSignatureClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.forms.ClearSignature(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Signature cleared"), nil
}

func (s *Server) handleDocumentGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("format", "")
	if name == "" {
		name = s.config.Format
	}
	format, err := document.ParseFormat(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.documents.Generate(ctx, document.Request{Format: format})
	if err != nil {
		return mcp.NewToolResultError(document.Describe(err)), nil
	}

	if request.GetBool("save", true) {
		if _, err := s.documents.Save(result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	return mcp.NewToolResultText(s.formatGenerateResult(result)), nil
}

func (s *Server) handleDocumentInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in, err := s.documents.Inspect(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatInspection(in)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	record, hasRecord, err := s.forms.LoadRecord(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, hasSignature, err := s.forms.LoadSignature(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Output Directory: %s\n", s.config.OutputDir)
	text += fmt.Sprintf("📄 Template: %s/%s\n", s.config.AssetRoot, s.config.TemplatePath)
	text += fmt.Sprintf("🗄️  Store: %s\n", s.config.Store)
	text += fmt.Sprintf("📝 Default Format: %s\n\n", s.config.Format)

	text += "🧭 Wizard Status:\n"
	if hasRecord {
		text += fmt.Sprintf("   1. info: done (%s)\n", record.SpaceName)
	} else {
		text += "   1. info: pending\n"
	}
	if hasSignature {
		text += "   2. sign: done\n"
	} else {
		text += "   2. sign: pending\n"
	}
	if hasRecord && hasSignature {
		text += "   3. generate: ready\n"
	} else {
		text += "   3. generate: blocked\n"
	}

	text += "\n🛠️  Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		text += fmt.Sprintf("• %s\n", name)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) signaturePreview(ctx context.Context) (string, error) {
	raw, ok, err := s.forms.LoadSignature(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "Signature: not drawn\n", nil
	}
	img, err := signature.Decode(raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Signature: %s, %dx%d pixels\n", img.MIME, img.Width, img.Height), nil
}

// Formatting methods
func formatRecord(r form.Record) string {
	text := fmt.Sprintf("  공간명: %s\n", r.SpaceName)
	text += fmt.Sprintf("  주소: %s\n", r.Address)
	text += fmt.Sprintf("  신청자(대표): %s\n", r.Applicant)
	return text
}

func formatFieldErrors(err error) string {
	var fieldErr *form.FieldError
	if !errors.As(err, &fieldErr) {
		return err.Error()
	}
	return "모든 필수 항목을 입력해주세요.\n" + err.Error()
}

func (s *Server) formatGenerateResult(result *document.Result) string {
	text := fmt.Sprintf("Generated %s\n", result.FileName)
	text += fmt.Sprintf("Format: %s\n", result.Format)
	text += fmt.Sprintf("Content Type: %s\n", result.ContentType)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	text += fmt.Sprintf("Request ID: %s\n", result.RequestID)
	if result.Path != "" {
		text += fmt.Sprintf("Saved to: %s\n", result.Path)
	}
	return text
}

func (s *Server) formatInspection(in *document.Inspection) string {
	text := fmt.Sprintf("Document: %s\n", in.Path)
	text += fmt.Sprintf("Format: %s\n", in.Format)
	text += fmt.Sprintf("Size: %d bytes\n", in.Size)
	if in.Format == document.FormatPDF {
		text += fmt.Sprintf("Pages: %d\n", in.Pages)
	}
	text += fmt.Sprintf("Images: %d\n", in.Images)
	for _, m := range in.Media {
		text += fmt.Sprintf("  • %s\n", m)
	}
	text += "\nText:\n" + in.Text
	return text
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting sign-form MCP server in stdio mode")
		log.Printf("Output directory: %s", s.config.OutputDir)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
