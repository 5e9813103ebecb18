// Package convert runs the report pipeline for newman run summaries: build
// the junit report, write it, and optionally upload and index it.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ethpandaops/junitoor/pkg/collection"
	"github.com/ethpandaops/junitoor/pkg/export"
	"github.com/ethpandaops/junitoor/pkg/index"
	"github.com/ethpandaops/junitoor/pkg/junit"
	"github.com/ethpandaops/junitoor/pkg/run"
	"github.com/ethpandaops/junitoor/pkg/upload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options configures a Converter.
type Options struct {
	OutputDir   string
	Separator   string
	ExportPath  string
	Concurrency int

	// Markdown writes a markdown summary next to each report.
	Markdown bool

	// Collection replaces the collection embedded in each summary.
	Collection *collection.Collection
}

// Result describes one converted summary.
type Result struct {
	Source       string
	Path         string
	MarkdownPath string
	UploadedKey  string
	Skipped      bool
	Summary      export.Summary
}

// Converter converts run summaries into persisted junit reports.
type Converter struct {
	log      logrus.FieldLogger
	opts     Options
	writer   export.Writer
	uploader upload.Uploader
	store    index.Store
	host     index.Host
}

// Option configures optional Converter collaborators.
type Option func(*Converter)

// WithUploader uploads every written report.
func WithUploader(u upload.Uploader) Option {
	return func(c *Converter) { c.uploader = u }
}

// WithIndex records every written report in the index.
func WithIndex(store index.Store, host index.Host) Option {
	return func(c *Converter) {
		c.store = store
		c.host = host
	}
}

// New creates a new Converter.
func New(
	log logrus.FieldLogger,
	opts Options,
	writer export.Writer,
	options ...Option,
) *Converter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	c := &Converter{
		log:    log.WithField("component", "convert"),
		opts:   opts,
		writer: writer,
	}

	for _, o := range options {
		o(c)
	}

	return c
}

// Convert processes the given summary files concurrently. Results are
// returned in input order. The first failure cancels the remaining work.
func (c *Converter) Convert(ctx context.Context, paths []string) ([]Result, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no run summaries given")
	}

	if c.opts.ExportPath != "" && len(paths) > 1 {
		return nil, fmt.Errorf("an export path can only be used with a single summary")
	}

	seen := make(map[string]string, len(paths))

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}

		if prev, ok := seen[abs]; ok {
			return nil, fmt.Errorf("summary %s given twice (as %s and %s)", abs, prev, path)
		}

		seen[abs] = path
	}

	results := make([]Result, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, path := range paths {
		g.Go(func() error {
			res, err := c.convertOne(gCtx, path, len(paths) > 1)
			if err != nil {
				return fmt.Errorf("converting %s: %w", path, err)
			}

			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkTargets(results); err != nil {
		return nil, err
	}

	return results, nil
}

// checkTargets fails when two summaries were written to the same report.
func checkTargets(results []Result) error {
	written := make(map[string]string, len(results))

	for _, res := range results {
		if res.Skipped || res.Path == "" {
			continue
		}

		if prev, ok := written[res.Path]; ok {
			return fmt.Errorf("summaries %s and %s both resolve to report %s", prev, res.Source, res.Path)
		}

		written[res.Path] = res.Source
	}

	return nil
}

func (c *Converter) convertOne(ctx context.Context, path string, many bool) (Result, error) {
	log := c.log.WithField("summary", path)
	res := Result{Source: path}

	summary, err := run.Load(path)
	if err != nil {
		return res, err
	}

	if c.opts.Collection != nil {
		summary.Collection = c.opts.Collection
	}

	reporter := junit.NewReporter(log, junit.Options{
		Separator:  c.opts.Separator,
		ExportPath: c.opts.ExportPath,
	})

	e, err := reporter.Export(summary)
	if err != nil {
		return res, err
	}

	if e == nil {
		log.Warn("Summary has no run section, no report written")

		res.Skipped = true

		return res, nil
	}

	if e.Summary.Source, err = filepath.Abs(path); err != nil {
		return res, fmt.Errorf("resolving summary path: %w", err)
	}

	res.Summary = e.Summary

	// Several summaries would all resolve to the default file name.
	if many {
		e.Path = filepath.Join(c.opts.OutputDir, reportFileName(e))
	}

	res.Path, err = c.writer.Write(ctx, e)
	if err != nil {
		return res, err
	}

	if c.opts.Markdown {
		res.MarkdownPath, err = c.writeMarkdown(ctx, reporter, summary, e, res.Path)
		if err != nil {
			return res, err
		}
	}

	if c.uploader != nil {
		res.UploadedKey, err = c.uploader.Upload(ctx, reportFileName(e), e.Content)
		if err != nil {
			return res, fmt.Errorf("uploading report: %w", err)
		}
	}

	if c.store != nil {
		report := index.NewReport(e.Summary, res.Path, res.UploadedKey, c.host)
		if err := c.store.UpsertReport(ctx, report); err != nil {
			return res, fmt.Errorf("indexing report: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"path":     res.Path,
		"size":     e.Size(),
		"tests":    e.Summary.Tests,
		"failures": e.Summary.Failures,
		"errors":   e.Summary.Errors,
	}).Info("Report generated")

	return res, nil
}

// writeMarkdown writes the markdown summary beside the report file.
func (c *Converter) writeMarkdown(
	ctx context.Context,
	reporter *junit.Reporter,
	summary *run.Summary,
	e *export.Export,
	reportPath string,
) (string, error) {
	md := junit.GenerateMarkdown(
		reporter.Build(summary), e.Summary.ReportID(), junit.MaxMarkdownChars,
	)

	return c.writer.Write(ctx, &export.Export{
		Name:    e.Name,
		Path:    strings.TrimSuffix(reportPath, filepath.Ext(reportPath)) + ".md",
		Content: []byte(md),
	})
}

// reportFileName names a report by its report id.
func reportFileName(e *export.Export) string {
	return e.Summary.ReportID() + ".xml"
}
