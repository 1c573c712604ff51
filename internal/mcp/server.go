// Package mcp exposes the document pipeline as a Model Context Protocol
// server. Every tool handler delegates to the engine and formats the result
// as human-readable text plus a JSON payload.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docupipe/registrofill/internal/config"
	"github.com/docupipe/registrofill/internal/engine"
	"github.com/docupipe/registrofill/internal/verify"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	engine    *engine.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, eng *engine.Service) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		engine:    eng,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	processDocumentTool := mcp.NewTool(
		"process_document",
		mcp.WithDescription("Extract fields from a scanned registry document and fill a registered template"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the scanned PDF document"),
		),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description("ID or name of the registered template to fill"),
		),
	)
	s.mcpServer.AddTool(processDocumentTool, s.handleProcessDocument)

	fillTemplateTool := mcp.NewTool(
		"fill_template",
		mcp.WithDescription("Fill a registered template from explicit field values, skipping extraction"),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description("ID or name of the registered template to fill"),
		),
		mcp.WithString("fields",
			mcp.Required(),
			mcp.Description("JSON object of field key to value, e.g. {\"nombres\": \"MARIA JOSE\"}"),
		),
	)
	s.mcpServer.AddTool(fillTemplateTool, s.handleFillTemplate)

	verifyRequestTool := mcp.NewTool(
		"verify_request",
		mcp.WithDescription("Re-verify a generated output PDF against the request's stored field values"),
		mcp.WithString("request_id",
			mcp.Required(),
			mcp.Description("ID of the request to verify"),
		),
	)
	s.mcpServer.AddTool(verifyRequestTool, s.handleVerifyRequest)

	regenerateRequestTool := mcp.NewTool(
		"regenerate_request",
		mcp.WithDescription("Regenerate the output PDF of a request from its current stored field values"),
		mcp.WithString("request_id",
			mcp.Required(),
			mcp.Description("ID of the request to regenerate"),
		),
	)
	s.mcpServer.AddTool(regenerateRequestTool, s.handleRegenerateRequest)

	updateFieldTool := mcp.NewTool(
		"update_field",
		mcp.WithDescription("Correct one field value on a stored request; derived values are recomputed"),
		mcp.WithString("request_id",
			mcp.Required(),
			mcp.Description("ID of the request to update"),
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Canonical field key to update"),
		),
		mcp.WithString("value",
			mcp.Description("New value; empty clears the field"),
		),
	)
	s.mcpServer.AddTool(updateFieldTool, s.handleUpdateField)

	approveRequestTool := mcp.NewTool(
		"approve_request",
		mcp.WithDescription("Mark a generated request as reviewed and approved"),
		mcp.WithString("request_id",
			mcp.Required(),
			mcp.Description("ID of the request to approve"),
		),
	)
	s.mcpServer.AddTool(approveRequestTool, s.handleApproveRequest)

	inspectTemplateTool := mcp.NewTool(
		"inspect_template",
		mcp.WithDescription("Show a template's form fields and the mapping derived for them"),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description("ID or name of the template to inspect"),
		),
	)
	s.mcpServer.AddTool(inspectTemplateTool, s.handleInspectTemplate)

	listTemplatesTool := mcp.NewTool(
		"list_templates",
		mcp.WithDescription("List all registered templates"),
	)
	s.mcpServer.AddTool(listTemplatesTool, s.handleListTemplates)

	registerTemplateTool := mcp.NewTool(
		"register_template",
		mcp.WithDescription("Register a fillable PDF template under a name"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name for the template"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the fillable PDF"),
		),
		mcp.WithString("overrides",
			mcp.Description("Optional JSON object of canonical key to field name list"),
		),
	)
	s.mcpServer.AddTool(registerTemplateTool, s.handleRegisterTemplate)

	serverInfoTool := mcp.NewTool(
		"server_info",
		mcp.WithDescription("Get server information and usage guidance"),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleProcessDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	templateID, err := request.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.engine.ProcessDocument(ctx, engine.ProcessDocumentRequest{
		Path:       path,
		TemplateID: templateID,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Document processed: %s\n", path)
	responseText += fmt.Sprintf("Request ID: %s\n", result.RequestID)
	responseText += fmt.Sprintf("Output: %s\n", result.OutputPath)
	responseText += fmt.Sprintf("Fields filled: %d\n", result.FillCount)
	responseText += "\n" + s.formatReport(result.Report)

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFillTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := request.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldsJSON, err := request.RequireString("fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var data map[string]string
	if err := json.Unmarshal([]byte(fieldsJSON), &data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid fields JSON: %v", err)), nil
	}

	result, err := s.engine.FillTemplate(ctx, engine.FillTemplateRequest{
		TemplateID: templateID,
		Fields:     data,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Template filled: %s\n", templateID)
	responseText += fmt.Sprintf("Request ID: %s\n", result.RequestID)
	responseText += fmt.Sprintf("Output: %s\n", result.OutputPath)
	responseText += fmt.Sprintf("Fields filled: %d\n", result.FillCount)
	responseText += "\n" + s.formatReport(result.Report)

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleVerifyRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireString("request_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.engine.VerifyRequest(ctx, requestID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Verification of request %s\n", result.RequestID)
	responseText += fmt.Sprintf("Output: %s\n\n", result.OutputPath)
	responseText += s.formatReport(result.Report)

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleRegenerateRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireString("request_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.engine.RegenerateRequest(ctx, requestID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Request %s regenerated\n", result.RequestID)
	responseText += fmt.Sprintf("Output: %s\n", result.OutputPath)
	responseText += fmt.Sprintf("Fields filled: %d\n", result.FillCount)
	responseText += "\n" + s.formatReport(result.Report)

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleUpdateField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireString("request_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	value := ""
	if v, ok := request.GetArguments()["value"].(string); ok {
		value = v
	}

	updated, err := s.engine.UpdateField(ctx, engine.UpdateFieldRequest{
		RequestID: requestID,
		Key:       key,
		Value:     value,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Request %s updated: %s = %q\n", updated.ID, key, value)
	responseText += fmt.Sprintf("Status: %s (regenerate to produce a new output)\n", updated.Status)
	responseText += fmt.Sprintf("Stored fields: %d\n", updated.Fields.Len())

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleApproveRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireString("request_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.engine.ApproveRequest(ctx, requestID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Request %s approved", requestID)), nil
}

func (s *Server) handleInspectTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := request.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.engine.InspectTemplate(ctx, templateID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatInspectTemplateResult(result)), nil
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := s.engine.ListTemplates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(templates) == 0 {
		return mcp.NewToolResultText("No templates registered"), nil
	}

	responseText := fmt.Sprintf("Registered templates (%d):\n", len(templates))
	for i, tpl := range templates {
		responseText += fmt.Sprintf("%d. %s\n", i+1, tpl.Name)
		responseText += fmt.Sprintf("   ID: %s\n", tpl.ID)
		responseText += fmt.Sprintf("   Path: %s\n", tpl.FilePath)
		if len(tpl.Overrides) > 0 {
			responseText += fmt.Sprintf("   Overrides: %d keys\n", len(tpl.Overrides))
		}
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleRegisterTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var overrides map[string][]string
	if raw, ok := request.GetArguments()["overrides"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid overrides JSON: %v", err)), nil
		}
	}

	tpl, err := s.engine.RegisterTemplate(ctx, engine.RegisterTemplateRequest{
		Name:      name,
		Path:      path,
		Overrides: overrides,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Template registered: %s\n", tpl.Name)
	responseText += fmt.Sprintf("ID: %s\n", tpl.ID)
	responseText += fmt.Sprintf("Path: %s\n", tpl.FilePath)

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	responseText := fmt.Sprintf("%s v%s\n\n", s.config.ServerName, s.config.Version)
	responseText += fmt.Sprintf("Template directory: %s\n", s.config.TemplateDir)
	responseText += fmt.Sprintf("Output directory: %s\n", s.config.OutputDir)
	responseText += fmt.Sprintf("Database: %s\n", s.config.DatabasePath)
	responseText += fmt.Sprintf("Max input size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	responseText += fmt.Sprintf("Extraction provider: %s\n\n", s.config.Extraction.Provider)
	responseText += "Workflow:\n"
	responseText += "  1. register_template  - register a fillable PDF under a name\n"
	responseText += "  2. process_document   - extract fields from a scan and fill the template\n"
	responseText += "  3. verify_request     - diff the output against the extracted values\n"
	responseText += "  4. update_field       - correct any misread value\n"
	responseText += "  5. regenerate_request - rebuild the output from corrected values\n"
	responseText += "  6. approve_request    - sign off on the generated output\n"

	return mcp.NewToolResultText(responseText), nil
}

// Formatting methods
func (s *Server) formatReport(report *verify.Report) string {
	text := "Verification report\n"
	text += fmt.Sprintf("  Matches: %d\n", report.MatchCount)
	text += fmt.Sprintf("  Mismatches: %d\n", report.MismatchCount)
	text += fmt.Sprintf("  Unmapped: %d\n", report.UnmappedCount)

	if len(report.Mismatches) > 0 {
		text += "\nMismatches:\n"
		for _, m := range report.Mismatches {
			text += fmt.Sprintf("  %s: expected %q, field %q holds %q\n",
				m.ExtractedKey, m.ExpectedValue, m.PDFField, m.ActualValue)
		}
	}
	if len(report.Unmapped) > 0 {
		text += "\nUnmapped values:\n"
		for _, u := range report.Unmapped {
			text += fmt.Sprintf("  %s: %q found nowhere in the output\n", u.ExtractedKey, u.ExpectedValue)
		}
	}
	if report.Clean() {
		text += "\nAll extracted values accounted for.\n"
	}

	return text
}

func (s *Server) formatInspectTemplateResult(result *engine.InspectTemplateResult) string {
	text := fmt.Sprintf("Template: %s (%s)\n", result.Name, result.TemplateID)
	text += fmt.Sprintf("Form fields (%d):\n", len(result.Fields))
	for i, f := range result.Fields {
		text += fmt.Sprintf("  %d. %s [%s]", i+1, f.Name, f.Type)
		if f.Value != "" {
			text += fmt.Sprintf(" = %q", f.Value)
		}
		text += "\n"
	}

	if len(result.Mapping) > 0 {
		text += fmt.Sprintf("\nDerived mapping (%d keys):\n", len(result.Mapping))
		for _, key := range sortedKeys(result.Mapping) {
			text += fmt.Sprintf("  %s -> %s\n", key, strings.Join(result.Mapping[key], ", "))
		}
	} else {
		text += "\nNo mapping derived; register overrides for this template.\n"
	}

	return text
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
		log.Printf("Starting registrofill MCP server in stdio mode")
		log.Printf("Template directory: %s", s.config.TemplateDir)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
