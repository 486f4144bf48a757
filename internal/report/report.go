// Package report renders a cycle's outcome for one cluster as markdown
// or JSON, and manages the reports directory.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/clusterpulse/internal/collect"
	"github.com/ppiankov/clusterpulse/internal/diff"
	"github.com/ppiankov/clusterpulse/internal/health"
)

// Format represents the report output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// DetectFormat picks the format from a file extension, defaulting to
// markdown.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatMarkdown
	}
}

// Report is one rendered cycle outcome for a single cluster.
type Report struct {
	Sample     *collect.ClusterSample `json:"sample"`
	Assessment health.Assessment      `json:"assessment"`
	Changes    *diff.ChangeSet        `json:"changes,omitempty"`
}

// Metadata describes when and by which build a report was generated.
type Metadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"version"`
	Cluster     string    `json:"cluster,omitempty"`
}

// Exporter writes reports in the configured format.
type Exporter struct {
	Format   Format
	Metadata Metadata
}

// JSONExport wraps the report with metadata for JSON output.
type JSONExport struct {
	Metadata Metadata `json:"metadata"`
	Report   Report   `json:"report"`
}

// Export renders the report to w.
func (e *Exporter) Export(rep Report, w io.Writer) error {
	switch e.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(JSONExport{Metadata: e.Metadata, Report: rep})
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(rep))
		return err
	default:
		return fmt.Errorf("unsupported format: %s", e.Format)
	}
}
