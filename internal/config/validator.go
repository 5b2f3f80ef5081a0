package config

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
)

// Validate checks the config for:
//   - Required fields
//   - Sizes and limits that must be positive
//   - Node widths inside the editor's allowed range
//   - A known project backend
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Server.QueueDepth < 1 {
		errs = append(errs, fmt.Sprintf("server.queue_depth must be positive, got %d", cfg.Server.QueueDepth))
	}
	if cfg.Server.CommandTimeoutMs < 1 {
		errs = append(errs, fmt.Sprintf("server.command_timeout_ms must be positive, got %d", cfg.Server.CommandTimeoutMs))
	}
	if cfg.Server.MaxSessions < 1 {
		errs = append(errs, fmt.Sprintf("server.max_sessions must be positive, got %d", cfg.Server.MaxSessions))
	}

	if w := cfg.Editor.DefaultNodeWidth; w < graph.MinNodeWidth || w > graph.MaxNodeWidth {
		errs = append(errs, fmt.Sprintf("editor.default_node_width %v outside [%d, %d]", w, graph.MinNodeWidth, graph.MaxNodeWidth))
	}
	if cfg.Editor.DefaultNodeHeight <= 0 {
		errs = append(errs, "editor.default_node_height must be positive")
	}
	if cfg.Editor.HistoryLimit < 0 {
		errs = append(errs, "editor.history_limit must not be negative")
	}

	switch cfg.Projects.Backend {
	case "file":
		if cfg.Projects.Dir == "" {
			errs = append(errs, "projects.dir is required for the file backend")
		}
	case "sqlite":
		if cfg.Projects.SQLitePath == "" {
			errs = append(errs, "projects.sqlite_path is required for the sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("projects.backend must be file or sqlite, got %q", cfg.Projects.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
