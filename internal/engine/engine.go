// Package engine orchestrates the document pipeline: extraction, value
// normalization, mapping resolution, form filling and verification, with
// every run persisted as a reviewable request.
package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/docupipe/registrofill/internal/extract"
	"github.com/docupipe/registrofill/internal/fields"
	"github.com/docupipe/registrofill/internal/filler"
	"github.com/docupipe/registrofill/internal/mapping"
	"github.com/docupipe/registrofill/internal/normalize"
	"github.com/docupipe/registrofill/internal/pdfform"
	"github.com/docupipe/registrofill/internal/store"
	"github.com/docupipe/registrofill/internal/verify"
)

// Service runs the pipeline. Safe for concurrent use: each call builds its
// own Document and Filler.
type Service struct {
	store       store.Store
	extractor   extract.Extractor
	outputDir   string
	fontSize    float64
	maxFileSize int64
	log         *zap.Logger
}

// NewService wires the pipeline over its collaborators.
func NewService(st store.Store, ex extract.Extractor, outputDir string, fontSize float64, maxFileSize int64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:       st,
		extractor:   ex,
		outputDir:   outputDir,
		fontSize:    fontSize,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// ProcessDocument runs extraction, normalization, filling and verification
// over one scanned document and persists the result as a generated request.
func (s *Service) ProcessDocument(ctx context.Context, req ProcessDocumentRequest) (*ProcessDocumentResult, error) {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: read document %s", req.Path)
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return nil, eris.Errorf("engine: document %s exceeds maximum size (%d > %d bytes)",
			req.Path, len(data), s.maxFileSize)
	}

	// A missing text layer is normal for raster scans; extraction proceeds
	// on the document bytes alone.
	text, err := extract.TextLayer(data)
	if err != nil {
		s.log.Debug("text layer unavailable", zap.String("path", req.Path), zap.Error(err))
		text = ""
	}

	extracted, err := s.extractor.Extract(ctx, extract.Document{
		Path: req.Path,
		Data: data,
		Text: text,
	})
	if err != nil {
		return nil, eris.Wrap(err, "engine: extract fields")
	}
	if extracted.Len() == 0 {
		return nil, eris.Errorf("engine: no fields extracted from %s", req.Path)
	}

	normalized := normalize.Normalize(extracted)

	tpl, err := s.store.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: template %s", req.TemplateID)
	}

	gen, err := s.generate(normalized, tpl)
	if err != nil {
		return nil, err
	}

	request := &store.Request{
		TemplateID: tpl.ID,
		Fields:     normalized,
		SourcePath: req.Path,
	}
	if err := s.store.CreateRequest(ctx, request); err != nil {
		return nil, eris.Wrap(err, "engine: persist request")
	}

	outputPath, err := s.writeOutput(request.ID, gen.output)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkGenerated(ctx, request.ID, outputPath, gen.fillCount); err != nil {
		return nil, eris.Wrap(err, "engine: mark generated")
	}

	s.log.Info("document processed",
		zap.String("request_id", request.ID),
		zap.String("template", tpl.Name),
		zap.Int("filled", gen.fillCount),
		zap.Int("mismatches", gen.report.MismatchCount),
		zap.Int("unmapped", gen.report.UnmappedCount),
	)

	return &ProcessDocumentResult{
		RequestID:       request.ID,
		TemplateID:      tpl.ID,
		OutputPath:      outputPath,
		FillCount:       gen.fillCount,
		ExtractedFields: normalized.Map(),
		Report:          gen.report,
	}, nil
}

// FillTemplate fills a template from caller-supplied data without running
// extraction. Values still pass through normalization.
func (s *Service) FillTemplate(ctx context.Context, req FillTemplateRequest) (*ProcessDocumentResult, error) {
	if len(req.Fields) == 0 {
		return nil, eris.New("engine: fill requires at least one field")
	}

	normalized := normalize.Normalize(fields.FromMap(req.Fields))

	tpl, err := s.store.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: template %s", req.TemplateID)
	}

	gen, err := s.generate(normalized, tpl)
	if err != nil {
		return nil, err
	}

	request := &store.Request{
		TemplateID: tpl.ID,
		Fields:     normalized,
	}
	if err := s.store.CreateRequest(ctx, request); err != nil {
		return nil, eris.Wrap(err, "engine: persist request")
	}

	outputPath, err := s.writeOutput(request.ID, gen.output)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkGenerated(ctx, request.ID, outputPath, gen.fillCount); err != nil {
		return nil, eris.Wrap(err, "engine: mark generated")
	}

	return &ProcessDocumentResult{
		RequestID:       request.ID,
		TemplateID:      tpl.ID,
		OutputPath:      outputPath,
		FillCount:       gen.fillCount,
		ExtractedFields: normalized.Map(),
		Report:          gen.report,
	}, nil
}

// VerifyRequest re-runs verification of a generated output against the
// request's stored fields.
func (s *Service) VerifyRequest(ctx context.Context, requestID string) (*VerifyResult, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: request %s", requestID)
	}
	if req.OutputPath == "" {
		return nil, eris.Errorf("engine: request %s has no generated output", requestID)
	}

	data, err := os.ReadFile(req.OutputPath)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: read output %s", req.OutputPath)
	}
	doc, err := pdfform.Load(data)
	if err != nil {
		return nil, eris.Wrap(err, "engine: load output")
	}

	return &VerifyResult{
		RequestID:  req.ID,
		OutputPath: req.OutputPath,
		Report:     verify.Verify(req.Fields, doc.Fields()),
	}, nil
}

// RegenerateRequest re-fills the template from the request's current stored
// fields. Regeneration always rebuilds the whole document; there is no
// partial repair of an existing output.
func (s *Service) RegenerateRequest(ctx context.Context, requestID string) (*RegenerateResult, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: request %s", requestID)
	}
	tpl, err := s.store.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: template %s", req.TemplateID)
	}

	gen, err := s.generate(req.Fields, tpl)
	if err != nil {
		return nil, err
	}

	outputPath, err := s.writeOutput(req.ID, gen.output)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkGenerated(ctx, req.ID, outputPath, gen.fillCount); err != nil {
		return nil, eris.Wrap(err, "engine: mark generated")
	}

	s.log.Info("request regenerated",
		zap.String("request_id", req.ID),
		zap.Int("filled", gen.fillCount),
	)

	return &RegenerateResult{
		RequestID:  req.ID,
		OutputPath: outputPath,
		FillCount:  gen.fillCount,
		Report:     gen.report,
	}, nil
}

// UpdateField replaces one field value on a stored request and re-runs
// normalization, so derived values stay consistent with the correction. The
// request drops back to draft until regenerated.
func (s *Service) UpdateField(ctx context.Context, req UpdateFieldRequest) (*store.Request, error) {
	if req.Key == "" {
		return nil, eris.New("engine: field key cannot be empty")
	}

	stored, err := s.store.GetRequest(ctx, req.RequestID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: request %s", req.RequestID)
	}

	stored.Fields.Set(req.Key, req.Value)
	renormalized := normalize.Normalize(stored.Fields)

	if err := s.store.UpdateRequestFields(ctx, stored.ID, renormalized); err != nil {
		return nil, eris.Wrap(err, "engine: update fields")
	}

	stored.Fields = renormalized
	stored.Status = store.StatusDraft
	return stored, nil
}

// ApproveRequest marks a generated request as reviewed and approved.
func (s *Service) ApproveRequest(ctx context.Context, requestID string) error {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return eris.Wrapf(err, "engine: request %s", requestID)
	}
	if req.Status != store.StatusGenerated {
		return eris.Errorf("engine: request %s is %s, only generated requests can be approved", requestID, req.Status)
	}
	return s.store.UpdateRequestStatus(ctx, requestID, store.StatusApproved)
}

// GetRequest returns a stored request.
func (s *Service) GetRequest(ctx context.Context, requestID string) (*store.Request, error) {
	return s.store.GetRequest(ctx, requestID)
}

// InspectTemplate loads a registered template and reports its field
// vocabulary plus the mapping the resolver would use for it.
func (s *Service) InspectTemplate(ctx context.Context, templateID string) (*InspectTemplateResult, error) {
	tpl, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: template %s", templateID)
	}
	data, err := os.ReadFile(tpl.FilePath)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: read template %s", tpl.FilePath)
	}
	doc, err := pdfform.Load(data)
	if err != nil {
		return nil, eris.Wrap(err, "engine: load template")
	}

	m := mapping.MergeOverrides(mapping.Resolve(doc.FieldNames()), tpl.Overrides)
	return &InspectTemplateResult{
		TemplateID: tpl.ID,
		Name:       tpl.Name,
		Fields:     doc.Fields(),
		Mapping:    m,
	}, nil
}

// ListTemplates returns all registered templates.
func (s *Service) ListTemplates(ctx context.Context) ([]*store.Template, error) {
	return s.store.ListTemplates(ctx)
}

// RegisterTemplate validates that the file loads as a fillable PDF and
// registers it under the given name.
func (s *Service) RegisterTemplate(ctx context.Context, req RegisterTemplateRequest) (*store.Template, error) {
	if req.Name == "" {
		return nil, eris.New("engine: template name cannot be empty")
	}

	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: read template %s", req.Path)
	}
	doc, err := pdfform.Load(data)
	if err != nil {
		return nil, eris.Wrap(err, "engine: load template")
	}
	if len(doc.FieldNames()) == 0 {
		return nil, eris.Errorf("engine: %s has no form fields", req.Path)
	}

	tpl := &store.Template{
		Name:      req.Name,
		FilePath:  req.Path,
		Overrides: req.Overrides,
	}
	if err := s.store.CreateTemplate(ctx, tpl); err != nil {
		return nil, eris.Wrap(err, "engine: register template")
	}
	return tpl, nil
}

// generate fills the template with the given data and verifies the result by
// reading the produced bytes back.
func (s *Service) generate(data *fields.Set, tpl *store.Template) (*generation, error) {
	tplBytes, err := os.ReadFile(tpl.FilePath)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: read template %s", tpl.FilePath)
	}
	doc, err := pdfform.Load(tplBytes)
	if err != nil {
		return nil, eris.Wrap(err, "engine: load template")
	}
	if s.fontSize > 0 {
		doc.FontSize = s.fontSize
	}

	m := mapping.MergeOverrides(mapping.Resolve(doc.FieldNames()), tpl.Overrides)

	res, err := filler.New(doc, s.log).Fill(data, m)
	if err != nil {
		return nil, err
	}

	output, err := doc.Bytes()
	if err != nil {
		return nil, err
	}

	// Verify against a fresh load of the output, not the in-memory document:
	// the readback proves what actually survived serialization.
	readback, err := pdfform.Load(output)
	if err != nil {
		return nil, eris.Wrap(err, "engine: reload output for verification")
	}
	report := verify.Verify(data, readback.Fields())

	return &generation{
		output:    output,
		fillCount: res.FilledCount,
		filled:    res.FilledFields,
		report:    report,
		template:  tpl,
	}, nil
}

func (s *Service) writeOutput(requestID string, output []byte) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o750); err != nil {
		return "", eris.Wrapf(err, "engine: create output dir %s", s.outputDir)
	}
	outputPath := filepath.Join(s.outputDir, requestID+".pdf")
	if err := os.WriteFile(outputPath, output, 0o640); err != nil {
		return "", eris.Wrapf(err, "engine: write output %s", outputPath)
	}
	return outputPath, nil
}
