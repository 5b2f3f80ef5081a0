package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gyaneshwarpardhi/patchbay/internal/document"
)

const fileExt = ".json"

// FileStore keeps one JSON document per project in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("project dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Save writes through a temp file so a crash never leaves half a document.
func (s *FileStore) Save(ctx context.Context, name string, doc *document.Document) error {
	if err := CheckName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := document.Encode(&buf, doc); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".save-*")
	if err != nil {
		return fmt.Errorf("save project %q: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("save project %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save project %q: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("save project %q: %w", name, err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, name string) (*document.Document, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load project %q: %w", name, err)
	}
	defer f.Close()
	doc, err := document.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load project %q: %w: %w", name, document.ErrInvalidDocument, err)
	}
	return doc, nil
}

// List returns saved projects sorted by name.
func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Name: strings.TrimSuffix(e.Name(), fileExt), Updated: fi.ModTime().UTC()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, ctx.Err()
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := CheckName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete project %q: %w", name, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
