package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/docupipe/registrofill/internal/fields"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS templates (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	file_path  TEXT NOT NULL,
	overrides  TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS requests (
	id          TEXT PRIMARY KEY,
	template_id TEXT NOT NULL REFERENCES templates(id),
	status      TEXT NOT NULL DEFAULT 'draft',
	fields      TEXT NOT NULL,
	source_path TEXT,
	output_path TEXT,
	fill_count  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
CREATE INDEX IF NOT EXISTS idx_requests_template_id ON requests(template_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_name ON templates(name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateTemplate(ctx context.Context, t *Template) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	var overridesJSON []byte
	if len(t.Overrides) > 0 {
		var err error
		overridesJSON, err = json.Marshal(t.Overrides)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal overrides")
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, file_path, overrides, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.FilePath, nullableString(overridesJSON), t.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert template %s", t.Name)
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*Template, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, file_path, overrides, created_at FROM templates WHERE id = ? OR name = ?`,
		id, id,
	)
	return scanTemplate(row)
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]*Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, file_path, overrides, created_at FROM templates ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list templates")
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, eris.Wrap(rows.Err(), "sqlite: list templates iterate")
}

func (s *SQLiteStore) CreateRequest(ctx context.Context, r *Request) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = StatusDraft
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	fieldsJSON, err := json.Marshal(r.Fields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal fields")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO requests (id, template_id, status, fields, source_path, output_path, fill_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TemplateID, string(r.Status), string(fieldsJSON),
		r.SourcePath, r.OutputPath, r.FillCount, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert request %s", r.ID)
}

func (s *SQLiteStore) GetRequest(ctx context.Context, id string) (*Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, template_id, status, fields, source_path, output_path, fill_count, created_at, updated_at
		 FROM requests WHERE id = ?`,
		id,
	)

	var r Request
	var status, fieldsJSON string
	var sourcePath, outputPath sql.NullString
	err := row.Scan(&r.ID, &r.TemplateID, &status, &fieldsJSON,
		&sourcePath, &outputPath, &r.FillCount, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get request %s", id)
	}

	r.Status = Status(status)
	r.SourcePath = sourcePath.String
	r.OutputPath = outputPath.String
	r.Fields = fields.New()
	if err := json.Unmarshal([]byte(fieldsJSON), r.Fields); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal fields for request %s", id)
	}
	return &r, nil
}

func (s *SQLiteStore) UpdateRequestFields(ctx context.Context, id string, f *fields.Set) error {
	fieldsJSON, err := json.Marshal(f)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal fields")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET fields = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(fieldsJSON), string(StatusDraft), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update request fields %s", id)
	}
	return checkRowsAffected(res, "request", id)
}

func (s *SQLiteStore) MarkGenerated(ctx context.Context, id, outputPath string, fillCount int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = ?, output_path = ?, fill_count = ?, updated_at = ? WHERE id = ?`,
		string(StatusGenerated), outputPath, fillCount, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark request generated %s", id)
	}
	return checkRowsAffected(res, "request", id)
}

func (s *SQLiteStore) UpdateRequestStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update request status %s", id)
	}
	return checkRowsAffected(res, "request", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*Template, error) {
	var t Template
	var overridesJSON sql.NullString
	err := row.Scan(&t.ID, &t.Name, &t.FilePath, &overridesJSON, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan template")
	}
	if overridesJSON.Valid && overridesJSON.String != "" {
		if err := json.Unmarshal([]byte(overridesJSON.String), &t.Overrides); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal overrides for template %s", t.ID)
		}
	}
	return &t, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
