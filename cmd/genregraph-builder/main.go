// SPDX-License-Identifier: MIT

// Command genregraph-builder runs the four-stage pipeline that turns a
// compressed Wikipedia XML dump into a serialized music-genre graph.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wikitools/genregraph/internal/dumpscan"
	"github.com/wikitools/genregraph/internal/genre"
	"github.com/wikitools/genregraph/internal/graph"
	"github.com/wikitools/genregraph/internal/metrics"
	"github.com/wikitools/genregraph/internal/page"
	"github.com/wikitools/genregraph/internal/redirects"
	"github.com/wikitools/genregraph/internal/storage"
)

var logger *log.Logger

func main() {
	configPath := flag.String("config", "config.toml", "path to the config.toml file")
	dumpOverride := flag.String("dump", "", "override the dump path from config.toml")
	outDir := flag.String("out", "output", "working directory for staged pipeline artifacts")
	graphOut := flag.String("graph", "", "path to write the final graph document (required)")
	storageKey := flag.String("storage-key", "", "path to S3 storage credentials (optional)")
	metricsPath := flag.String("metrics", "", "path to write a Prometheus textfile-collector dump (optional)")
	flag.Parse()

	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatal(err)
	}
	logfile, err := os.OpenFile(filepath.Join("logs", "genregraph-builder.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer logfile.Close()
	logger = log.New(io.MultiWriter(logfile, os.Stderr), "", log.Ldate|log.Ltime|log.LUTC|log.Lshortfile)

	runID := uuid.NewString()

	// Fatal data-shape errors inside the pipeline (an unknown simplified-tree
	// node kind, in particular) surface as a panic rather than an error
	// return. This is the single recover-at-the-boundary point that converts
	// one into a logged fatal exit.
	defer func() {
		if r := recover(); r != nil {
			logger.Fatalf("genregraph-builder: run=%s: fatal: %v", runID, r)
		}
	}()

	logger.Printf("genregraph-builder starting up (run=%s)", runID)

	if err := run(runID, *configPath, *dumpOverride, *outDir, *graphOut, *storageKey, *metricsPath); err != nil {
		logger.Fatalf("genregraph-builder: run=%s: %v", runID, err)
	}

	logger.Printf("genregraph-builder exiting (run=%s)", runID)
}

func run(runID, configPath, dumpOverride, outDir, graphOut, storageKey, metricsPath string) error {
	if graphOut == "" {
		return fmt.Errorf("genregraph-builder: -graph output path is required")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	dumpPath := cfg.WikipediaDumpPath
	if dumpOverride != "" {
		dumpPath = dumpOverride
	}

	year, month, day, err := page.ParseDumpFilename(filepath.Base(dumpPath))
	if err != nil {
		return err
	}
	dumpDate := page.FormatDumpDate(year, month, day)
	stageOutDir := filepath.Join(outDir, dumpDate)

	m := metrics.New()

	start := time.Now()
	scanResult, err := dumpscan.Scan(dumpPath, stageOutDir, logger, m)
	if err != nil {
		return err
	}
	m.StageDuration.WithLabelValues("scan").Set(time.Since(start).Seconds())
	m.GenrePagesFound.Add(float64(len(scanResult.GenrePages)))

	genreTitles := make([]page.Title, 0, len(scanResult.GenrePages))
	for title := range scanResult.GenrePages {
		genreTitles = append(genreTitles, title)
	}

	start = time.Now()
	links, err := redirects.Resolve(filepath.Join(stageOutDir, "links_to_articles.toml"), genreTitles, scanResult.Redirects, logger, m)
	if err != nil {
		return err
	}
	m.StageDuration.WithLabelValues("redirects").Set(time.Since(start).Seconds())

	start = time.Now()
	records, err := genre.ProcessAll(stageOutDir, scanResult.GenrePages, links, logger, m)
	if err != nil {
		return err
	}
	m.StageDuration.WithLabelValues("genre").Set(time.Since(start).Seconds())
	m.GenresProcessed.Add(float64(len(records)))

	start = time.Now()
	g, err := graph.Build(dumpDate, records)
	if err != nil {
		return err
	}
	m.StageDuration.WithLabelValues("graph").Set(time.Since(start).Seconds())
	m.GraphNodes.Set(float64(len(g.Nodes)))
	m.GraphEdges.Set(float64(len(g.Links)))
	m.GraphMaxDegree.Set(float64(g.MaxDegree))

	if err := writeGraph(graphOut, g); err != nil {
		return err
	}

	if storageKey != "" || os.Getenv("S3_ENDPOINT") != "" {
		client, err := storage.NewClient(storageKey)
		if err != nil {
			return err
		}
		if err := storage.UploadGraph(context.Background(), client, "genregraph", dumpDate, graphOut, logger); err != nil {
			return err
		}
	}

	if metricsPath != "" {
		if err := m.WriteTextfile(metricsPath); err != nil {
			return err
		}
	}

	return nil
}

func writeGraph(path string, g *graph.Graph) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("genregraph-builder: encoding graph document: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("genregraph-builder: writing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
