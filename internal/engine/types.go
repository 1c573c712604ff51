package engine

import (
	"github.com/docupipe/registrofill/internal/pdfform"
	"github.com/docupipe/registrofill/internal/store"
	"github.com/docupipe/registrofill/internal/verify"
)

// ProcessDocumentRequest runs the full pipeline over one scanned document.
type ProcessDocumentRequest struct {
	// Path is the scanned registry PDF to extract from.
	Path string `json:"path"`
	// TemplateID names the registered template to fill (id or name).
	TemplateID string `json:"template_id"`
}

// ProcessDocumentResult reports the outcome of a full pipeline run.
type ProcessDocumentResult struct {
	RequestID       string            `json:"requestId"`
	TemplateID      string            `json:"templateId"`
	OutputPath      string            `json:"outputPath"`
	FillCount       int               `json:"fillCount"`
	ExtractedFields map[string]string `json:"extractedFields"`
	Report          *verify.Report    `json:"report"`
}

// FillTemplateRequest fills a template from caller-supplied data, skipping
// extraction entirely.
type FillTemplateRequest struct {
	TemplateID string            `json:"template_id"`
	Fields     map[string]string `json:"fields"`
}

// VerifyResult re-verifies a generated request against its stored fields.
type VerifyResult struct {
	RequestID  string         `json:"requestId"`
	OutputPath string         `json:"outputPath"`
	Report     *verify.Report `json:"report"`
}

// RegenerateResult reports a regeneration run over stored fields.
type RegenerateResult struct {
	RequestID  string         `json:"requestId"`
	OutputPath string         `json:"outputPath"`
	FillCount  int            `json:"fillCount"`
	Report     *verify.Report `json:"report"`
}

// UpdateFieldRequest replaces one field value on a stored request.
type UpdateFieldRequest struct {
	RequestID string `json:"request_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// InspectTemplateResult describes a template's field vocabulary and the
// mapping the resolver derives for it.
type InspectTemplateResult struct {
	TemplateID string              `json:"templateId"`
	Name       string              `json:"name"`
	Fields     []pdfform.Field     `json:"fields"`
	Mapping    map[string][]string `json:"mapping"`
}

// RegisterTemplateRequest registers a fillable PDF under a name.
type RegisterTemplateRequest struct {
	Name      string              `json:"name"`
	Path      string              `json:"path"`
	Overrides map[string][]string `json:"overrides,omitempty"`
}

// generation is the in-memory product of one fill run before persistence.
type generation struct {
	output    []byte
	fillCount int
	filled    []string
	report    *verify.Report
	template  *store.Template
}
