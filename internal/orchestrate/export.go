// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// SessionExport is the YAML shape of a completed session file.
type SessionExport struct {
	SessionID    string                `yaml:"session_id"`
	Query        string                `yaml:"query"`
	SubQueries   []types.SubQuery      `yaml:"sub_queries"`
	Answer       string                `yaml:"answer"`
	Bibliography string                `yaml:"bibliography,omitempty"`
	Sources      []types.CitationEntry `yaml:"sources,omitempty"`
	Degraded     bool                  `yaml:"degraded"`
	Warnings     []string              `yaml:"warnings,omitempty"`
	ProgressLog  []types.ProgressEvent `yaml:"progress_log"`
}

// ExportSession writes the session to dir/[sessionID].yaml.
func ExportSession(dir string, resp *types.ResearchResponse, subs []types.SubQuery) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	export := SessionExport{
		SessionID:    resp.SessionID,
		Query:        resp.Query,
		SubQueries:   subs,
		Answer:       resp.Answer,
		Bibliography: resp.Bibliography,
		Sources:      resp.Sources,
		Degraded:     resp.Degraded,
		Warnings:     resp.Warnings,
		ProgressLog:  resp.ProgressLog,
	}

	data, err := yaml.Marshal(export)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, resp.SessionID+".yaml"), data, 0o644)
}
