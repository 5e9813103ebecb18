package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethpandaops/junitoor/pkg/collection"
	"github.com/ethpandaops/junitoor/pkg/config"
	"github.com/ethpandaops/junitoor/pkg/convert"
	"github.com/ethpandaops/junitoor/pkg/export"
	"github.com/ethpandaops/junitoor/pkg/fsutil"
	"github.com/ethpandaops/junitoor/pkg/index"
	"github.com/ethpandaops/junitoor/pkg/upload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	convertSummaries  []string
	convertCollection string
	convertExport     string
	convertOutputDir  string
	convertSeparator  string
	convertUpload     bool
	convertIndex      bool
	convertMarkdown   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert newman run summaries into JUnit XML reports",
	Long: `Convert one or more newman JSON run summaries into JUnit XML reports.
With several summaries each report is named after its report id.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringSliceVar(&convertSummaries, "summary", nil,
		"newman JSON run summary (repeatable)")
	convertCmd.Flags().StringVar(&convertCollection, "collection", "",
		"collection file replacing the collection embedded in the summaries")
	convertCmd.Flags().StringVar(&convertExport, "export", "",
		"report output path (single summary only)")
	convertCmd.Flags().StringVar(&convertOutputDir, "output-dir", "",
		"report output directory (overrides report.output_dir)")
	convertCmd.Flags().StringVar(&convertSeparator, "separator", "",
		"suite name separator (overrides report.separator)")
	convertCmd.Flags().BoolVar(&convertUpload, "upload", false,
		"upload reports to S3 (requires upload.s3 config)")
	convertCmd.Flags().BoolVar(&convertIndex, "index", false,
		"record reports in the report index")
	convertCmd.Flags().BoolVar(&convertMarkdown, "markdown", false,
		"write a markdown summary next to each report")

	_ = convertCmd.MarkFlagRequired("summary")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	applyConvertFlags(cfg)

	owner, err := fsutil.ParseOwner(cfg.Global.ResultsOwner)
	if err != nil {
		return fmt.Errorf("parsing results owner: %w", err)
	}

	// Setup context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig).Warn("Interrupted, cancelling conversion")
			cancel()
		case <-ctx.Done():
		}
	}()

	opts := convert.Options{
		OutputDir:   cfg.Report.OutputDir,
		Separator:   cfg.Report.Separator,
		ExportPath:  cfg.Report.Export,
		Concurrency: cfg.Report.Concurrency,
		Markdown:    convertMarkdown,
	}

	if convertCollection != "" {
		opts.Collection, err = collection.Load(convertCollection)
		if err != nil {
			return err
		}
	}

	var options []convert.Option

	if convertUpload {
		if !cfg.Upload.S3.Enabled {
			return fmt.Errorf("--upload requires upload.s3.enabled in config")
		}

		uploader, err := upload.NewS3Uploader(log, &cfg.Upload.S3)
		if err != nil {
			return fmt.Errorf("creating S3 uploader: %w", err)
		}

		if err := uploader.Preflight(ctx); err != nil {
			return fmt.Errorf("s3 preflight: %w", err)
		}

		options = append(options, convert.WithUploader(uploader))
	}

	if convertIndex || cfg.Index.Enabled {
		store := index.NewStore(log, &cfg.Index.Database)
		if err := store.Start(ctx); err != nil {
			return fmt.Errorf("starting index store: %w", err)
		}

		defer func() {
			if err := store.Stop(); err != nil {
				log.WithError(err).Warn("Index store stop error")
			}
		}()

		host, err := index.DetectHost(ctx)
		if err != nil {
			log.WithError(err).Warn("Failed to detect host info")
		}

		options = append(options, convert.WithIndex(store, host))
	}

	writer := export.NewLocalWriter(log, cfg.Report.OutputDir, owner)
	converter := convert.New(log, opts, writer, options...)

	results, err := converter.Convert(ctx, convertSummaries)
	if err != nil {
		return err
	}

	var written, failures int

	for _, res := range results {
		if res.Skipped {
			continue
		}

		written++
		failures += res.Summary.Failures + res.Summary.Errors
	}

	log.WithFields(logrus.Fields{
		"summaries": len(results),
		"reports":   written,
		"failures":  failures,
	}).Info("Conversion completed")

	return nil
}

// applyConvertFlags overrides config values with explicitly set flags.
func applyConvertFlags(cfg *config.Config) {
	if convertOutputDir != "" {
		cfg.Report.OutputDir = convertOutputDir
	}

	if convertSeparator != "" {
		cfg.Report.Separator = convertSeparator
	}

	if convertExport != "" {
		cfg.Report.Export = convertExport
	}
}
