// SPDX-License-Identifier: MIT

// Package metrics instruments a single pipeline run with Prometheus
// counters and gauges, dumped to a textfile-collector-style file at the
// end of the run rather than scraped live — the tool runs monthly as a
// batch job, not as a long-lived service.
package metrics

import (
	"bytes"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds every counter/gauge a run reports.
type Metrics struct {
	registry *prometheus.Registry

	PagesScanned    prometheus.Counter
	GenrePagesFound prometheus.Counter
	RedirectsFound  prometheus.Counter
	GenresProcessed prometheus.Counter
	GenresIgnored   prometheus.Counter
	GraphNodes      prometheus.Gauge
	GraphEdges      prometheus.Gauge
	GraphMaxDegree  prometheus.Gauge
	StageDuration   *prometheus.GaugeVec
}

// New creates and registers every metric under the "genregraph" namespace.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		PagesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genregraph", Name: "pages_scanned_total",
			Help: "Number of dump pages read during the Stage A scan.",
		}),
		GenrePagesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genregraph", Name: "genre_pages_found_total",
			Help: "Number of pages Stage A classified as genre articles.",
		}),
		RedirectsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genregraph", Name: "redirects_found_total",
			Help: "Number of redirect pages Stage A recorded.",
		}),
		GenresProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genregraph", Name: "genres_processed_total",
			Help: "Number of genre pages Stage C turned into a record.",
		}),
		GenresIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genregraph", Name: "genres_ignored_total",
			Help: "Number of genre records dropped by the ignore set.",
		}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "genregraph", Name: "graph_nodes",
			Help: "Number of nodes in the final assembled graph.",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "genregraph", Name: "graph_edges",
			Help: "Number of deduplicated edges in the final assembled graph.",
		}),
		GraphMaxDegree: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "genregraph", Name: "graph_max_degree",
			Help: "Largest incident-link-set size across every node.",
		}),
		StageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "genregraph", Name: "stage_duration_seconds",
			Help: "Wall-clock duration of each pipeline stage.",
		}, []string{"stage"}),
	}
	reg.MustRegister(
		m.PagesScanned, m.GenrePagesFound, m.RedirectsFound,
		m.GenresProcessed, m.GenresIgnored,
		m.GraphNodes, m.GraphEdges, m.GraphMaxDegree,
		m.StageDuration,
	)
	return m
}

// WriteTextfile renders every registered metric in the Prometheus text
// exposition format and writes it to path, atomically.
func (m *Metrics) WriteTextfile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gathering: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encoding: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("metrics: writing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
