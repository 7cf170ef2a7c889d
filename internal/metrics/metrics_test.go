package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextfileContainsRegisteredMetrics(t *testing.T) {
	m := New()
	m.PagesScanned.Add(42)
	m.GraphNodes.Set(7)
	m.StageDuration.WithLabelValues("scan").Set(1.5)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	text := string(data)
	for _, want := range []string{
		"genregraph_pages_scanned_total 42",
		"genregraph_graph_nodes 7",
		`genregraph_stage_duration_seconds{stage="scan"} 1.5`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile output missing %q:\n%s", want, text)
		}
	}
}
