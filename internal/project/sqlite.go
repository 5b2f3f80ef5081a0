package project

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gyaneshwarpardhi/patchbay/internal/document"
)

// SQLiteStore keeps projects in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open project database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS projects (
			name TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated DATETIME NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create project schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, name string, doc *document.Document) error {
	if err := CheckName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := document.Encode(&buf, doc); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, document, updated) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			document = excluded.document,
			updated = excluded.updated`,
		name, buf.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save project %q: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (*document.Document, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM projects WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load project %q: %w", name, err)
	}
	doc, err := document.Decode(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("load project %q: %w: %w", name, document.ErrInvalidDocument, err)
	}
	return doc, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, updated FROM projects ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []Info{}
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.Updated); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if err := CheckName(name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete project %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
