package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"invoicegrid/internal/config"
	"invoicegrid/internal/domain"
	"invoicegrid/internal/extraction"
	"invoicegrid/internal/logging"
	"invoicegrid/internal/pdfsource"
	"invoicegrid/internal/port"
	"invoicegrid/internal/report"
	"invoicegrid/internal/service"
	s3storage "invoicegrid/internal/storage/s3"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoicegrid",
		Short: "Extract invoice line items from a directory of PDFs into an Excel workbook",
		Long: `invoicegrid reads every PDF in the input directory, detects line item tables,
and writes a workbook with Summary, Line Items, Text Data, and Tables sheets.

Every flag can also be set through the environment, e.g. INVOICEGRID_BATCH_INPUT_DIR.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithFlags(cmd.Flags())
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringP("input-dir", "i", "./pdfs", "directory containing PDF files")
	f.StringP("output-file", "o", "./extracted_data.xlsx", "output workbook path or s3://bucket/key")
	f.Bool("extract-tables", true, "extract tables from PDFs")
	f.Bool("extract-text", true, "extract text from PDFs")
	f.BoolP("verbose", "v", false, "enable debug logging")
	f.Int("concurrency", 4, "number of PDFs processed in parallel")
	f.String("csv", "", "also write the line items as CSV to this path or s3://bucket/key")
	return cmd
}

// runBatch processes every PDF in the input directory and writes the reports.
func runBatch(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger := logging.NewWithWriter(cfg.Log, stderr)
	if cfg.Batch.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	storage, err := storageFor(ctx, cfg, logger)
	if err != nil {
		return err
	}

	source := pdfsource.NewReader(pdfsource.DefaultLayoutOptions(), logger)
	pipeline := extraction.NewPipeline(extraction.RulesFromConfig(cfg.Extraction), logger)
	extractor := service.NewExtractionService(source, pipeline, cfg.Extraction, cfg.S3.MaxFileSizeMB, nil, logger)
	batch := service.NewBatchService(extractor, cfg.Batch.Concurrency, logger)
	exporter := service.NewExportService(report.NewExporter(logger), storage, nil, logger)

	paths, err := batch.Discover(cfg.Batch.InputDir)
	if err != nil {
		return err
	}
	logger.WithField("files", len(paths)).Info("invoicegrid: found PDF files to process")

	results, err := batch.Run(ctx, paths, func(index, total int, result *domain.ExtractionResult) {
		fmt.Fprintf(stdout, "Processing %d/%d: %s\n", index, total, result.Filename)
		if n := len(result.LineItems); n > 0 {
			fmt.Fprintf(stdout, "  ✓ Found %d line items\n", n)
		} else {
			fmt.Fprintln(stdout, "  - No line items detected")
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "\nExporting data to Excel: %s\n", cfg.Batch.OutputFile)
	if err := exporter.Save(ctx, service.FormatXLSX, results, cfg.Batch.OutputFile); err != nil {
		return err
	}
	if cfg.Batch.CSVFile != "" {
		if err := exporter.Save(ctx, service.FormatCSV, results, cfg.Batch.CSVFile); err != nil {
			return err
		}
	}

	summary := service.Summarize(results)
	fmt.Fprintln(stdout, "\nProcessing Complete!")
	fmt.Fprintf(stdout, "Files processed: %d/%d\n", summary.Succeeded, summary.Total)
	fmt.Fprintf(stdout, "Total line items found: %d\n", summary.LineItems)
	fmt.Fprintf(stdout, "Results saved to: %s\n", cfg.Batch.OutputFile)
	if cfg.Batch.CSVFile != "" {
		fmt.Fprintf(stdout, "CSV saved to: %s\n", cfg.Batch.CSVFile)
	}

	logger.WithFields(logrus.Fields{
		"succeeded":    summary.Succeeded,
		"failed":       summary.Failed,
		"line_items":   summary.LineItems,
		"amount_total": summary.AmountTotal.StringFixed(2),
	}).Info("invoicegrid: processing complete")
	return nil
}

// storageFor connects to S3 only when an output destination needs it.
func storageFor(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (port.ObjectStorage, error) {
	if !strings.HasPrefix(cfg.Batch.OutputFile, s3storage.URIScheme) && !strings.HasPrefix(cfg.Batch.CSVFile, s3storage.URIScheme) {
		return nil, nil
	}
	client, err := s3storage.NewS3Client(ctx, &cfg.S3, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	return client, nil
}
