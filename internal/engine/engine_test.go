package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupipe/registrofill/internal/extract"
	"github.com/docupipe/registrofill/internal/fields"
	"github.com/docupipe/registrofill/internal/store"
)

// memStore is an in-memory Store for engine tests.
type memStore struct {
	templates map[string]*store.Template
	requests  map[string]*store.Request
	nextID    int
}

func newMemStore() *memStore {
	return &memStore{
		templates: make(map[string]*store.Template),
		requests:  make(map[string]*store.Request),
	}
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

func (m *memStore) CreateTemplate(_ context.Context, t *store.Template) error {
	if t.ID == "" {
		m.nextID++
		t.ID = "tpl-" + string(rune('0'+m.nextID))
	}
	m.templates[t.ID] = t
	return nil
}

func (m *memStore) GetTemplate(_ context.Context, id string) (*store.Template, error) {
	if t, ok := m.templates[id]; ok {
		return t, nil
	}
	for _, t := range m.templates {
		if t.Name == id {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListTemplates(context.Context) ([]*store.Template, error) {
	out := make([]*store.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) CreateRequest(_ context.Context, r *store.Request) error {
	if r.ID == "" {
		m.nextID++
		r.ID = "req-" + string(rune('0'+m.nextID))
	}
	if r.Status == "" {
		r.Status = store.StatusDraft
	}
	m.requests[r.ID] = r
	return nil
}

func (m *memStore) GetRequest(_ context.Context, id string) (*store.Request, error) {
	if r, ok := m.requests[id]; ok {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UpdateRequestFields(_ context.Context, id string, f *fields.Set) error {
	r, ok := m.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Fields = f
	r.Status = store.StatusDraft
	return nil
}

func (m *memStore) MarkGenerated(_ context.Context, id, outputPath string, fillCount int) error {
	r, ok := m.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = store.StatusGenerated
	r.OutputPath = outputPath
	r.FillCount = fillCount
	return nil
}

func (m *memStore) UpdateRequestStatus(_ context.Context, id string, status store.Status) error {
	r, ok := m.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = status
	return nil
}

// stubExtractor returns a fixed field set or error.
type stubExtractor struct {
	set *fields.Set
	err error
}

func (s *stubExtractor) Extract(context.Context, extract.Document) (*fields.Set, error) {
	return s.set, s.err
}

func newTestService(t *testing.T, st store.Store, ex extract.Extractor) *Service {
	t.Helper()
	return NewService(st, ex, t.TempDir(), 10, 1024*1024, nil)
}

func TestProcessDocumentMissingFile(t *testing.T) {
	svc := newTestService(t, newMemStore(), &stubExtractor{set: fields.New()})

	_, err := svc.ProcessDocument(context.Background(), ProcessDocumentRequest{
		Path:       "/nonexistent/scan.pdf",
		TemplateID: "t",
	})
	require.Error(t, err)
}

func TestProcessDocumentOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.pdf")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o640))

	st := newMemStore()
	svc := NewService(st, &stubExtractor{}, dir, 10, 1024, nil)

	_, err := svc.ProcessDocument(context.Background(), ProcessDocumentRequest{
		Path:       path,
		TemplateID: "t",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

func TestProcessDocumentEmptyExtractionFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-fake"), 0o640))

	svc := newTestService(t, newMemStore(), &stubExtractor{set: fields.New()})

	_, err := svc.ProcessDocument(context.Background(), ProcessDocumentRequest{
		Path:       path,
		TemplateID: "t",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fields extracted")
}

func TestProcessDocumentUnknownTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-fake"), 0o640))

	svc := newTestService(t, newMemStore(), &stubExtractor{
		set: fields.FromMap(map[string]string{"nombres": "MARIA"}),
	})

	_, err := svc.ProcessDocument(context.Background(), ProcessDocumentRequest{
		Path:       path,
		TemplateID: "missing",
	})
	require.Error(t, err)
}

func TestFillTemplateRequiresFields(t *testing.T) {
	svc := newTestService(t, newMemStore(), &stubExtractor{})

	_, err := svc.FillTemplate(context.Background(), FillTemplateRequest{TemplateID: "t"})
	require.Error(t, err)
}

func TestUpdateFieldRenormalizes(t *testing.T) {
	st := newMemStore()
	svc := newTestService(t, st, &stubExtractor{})

	req := &store.Request{
		TemplateID: "t",
		Fields: fields.FromMap(map[string]string{
			"fecha_nacimiento": "ilegible",
		}),
	}
	require.NoError(t, st.CreateRequest(context.Background(), req))

	updated, err := svc.UpdateField(context.Background(), UpdateFieldRequest{
		RequestID: req.ID,
		Key:       "fecha_nacimiento",
		Value:     "19/08/2000",
	})
	require.NoError(t, err)

	assert.Equal(t, "19/08/2000", updated.Fields.Get("fecha_nacimiento"))
	assert.Equal(t, "19", updated.Fields.Get("birth_day"))
	assert.Equal(t, "08", updated.Fields.Get("birth_month"))
	assert.Equal(t, "2000", updated.Fields.Get("birth_year"))
	assert.Equal(t, store.StatusDraft, updated.Status)
}

func TestUpdateFieldEmptyKey(t *testing.T) {
	svc := newTestService(t, newMemStore(), &stubExtractor{})
	_, err := svc.UpdateField(context.Background(), UpdateFieldRequest{RequestID: "r"})
	require.Error(t, err)
}

func TestVerifyRequestWithoutOutput(t *testing.T) {
	st := newMemStore()
	svc := newTestService(t, st, &stubExtractor{})

	req := &store.Request{TemplateID: "t", Fields: fields.New()}
	require.NoError(t, st.CreateRequest(context.Background(), req))

	_, err := svc.VerifyRequest(context.Background(), req.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generated output")
}

func TestApproveRequestStatusGuard(t *testing.T) {
	st := newMemStore()
	svc := newTestService(t, st, &stubExtractor{})
	ctx := context.Background()

	req := &store.Request{TemplateID: "t", Fields: fields.New()}
	require.NoError(t, st.CreateRequest(ctx, req))

	// Draft requests cannot be approved.
	require.Error(t, svc.ApproveRequest(ctx, req.ID))

	require.NoError(t, st.MarkGenerated(ctx, req.ID, "/tmp/out.pdf", 1))
	require.NoError(t, svc.ApproveRequest(ctx, req.ID))

	got, err := st.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusApproved, got.Status)
}

func TestRegisterTemplateRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flat.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o640))

	svc := newTestService(t, newMemStore(), &stubExtractor{})

	_, err := svc.RegisterTemplate(context.Background(), RegisterTemplateRequest{
		Name: "bad",
		Path: path,
	})
	require.Error(t, err)
}

func TestRegisterTemplateRequiresName(t *testing.T) {
	svc := newTestService(t, newMemStore(), &stubExtractor{})
	_, err := svc.RegisterTemplate(context.Background(), RegisterTemplateRequest{Path: "/tmp/x.pdf"})
	require.Error(t, err)
}
