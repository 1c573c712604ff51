// Package store persists fill requests and registered templates. The
// interface is small on purpose: the engine owns all domain logic, the store
// only owns durability.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/docupipe/registrofill/internal/fields"
)

// ErrNotFound is returned when a request or template id matches nothing.
var ErrNotFound = eris.New("store: not found")

// Status is the lifecycle state of a fill request.
type Status string

const (
	// StatusDraft means fields exist but no output has been generated yet.
	StatusDraft Status = "draft"
	// StatusGenerated means an output PDF exists for the current fields.
	StatusGenerated Status = "generated"
	// StatusApproved means a reviewer signed off on the generated output.
	StatusApproved Status = "approved"
)

// Request is one document run: the extracted and corrected fields, the
// template it targets, and the output it produced.
type Request struct {
	ID         string      `json:"id"`
	TemplateID string      `json:"templateId"`
	Status     Status      `json:"status"`
	Fields     *fields.Set `json:"fields"`
	SourcePath string      `json:"sourcePath,omitempty"`
	OutputPath string      `json:"outputPath,omitempty"`
	FillCount  int         `json:"fillCount"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Template is a registered fillable PDF plus optional mapping overrides.
// Overrides map canonical keys to field names and are merged under the
// resolver's own output.
type Template struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	FilePath  string              `json:"filePath"`
	Overrides map[string][]string `json:"overrides,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Store is the persistence boundary.
type Store interface {
	Migrate(ctx context.Context) error

	CreateTemplate(ctx context.Context, t *Template) error
	GetTemplate(ctx context.Context, id string) (*Template, error)
	ListTemplates(ctx context.Context) ([]*Template, error)

	CreateRequest(ctx context.Context, r *Request) error
	GetRequest(ctx context.Context, id string) (*Request, error)
	UpdateRequestFields(ctx context.Context, id string, f *fields.Set) error
	MarkGenerated(ctx context.Context, id, outputPath string, fillCount int) error
	UpdateRequestStatus(ctx context.Context, id string, status Status) error

	Close() error
}
