// Package project persists documents by project name.
package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/patchbay/internal/document"
)

var (
	ErrNotFound    = errors.New("project not found")
	ErrInvalidName = errors.New("invalid project name")
)

// Info describes a saved project.
type Info struct {
	Name    string    `json:"name"`
	Updated time.Time `json:"updated"`
}

// Store saves and loads documents. Load decodes but does not validate; the
// editor validates on load.
type Store interface {
	Save(ctx context.Context, name string, doc *document.Document) error
	Load(ctx context.Context, name string) (*document.Document, error)
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// CheckName rejects names that cannot be used as a file name.
func CheckName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > 128:
		return fmt.Errorf("%w: longer than 128 bytes", ErrInvalidName)
	case strings.ContainsAny(name, `/\:*?"<>|`) || strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
