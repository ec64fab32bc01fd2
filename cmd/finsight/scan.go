package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finsight/internal/classify"
	"finsight/internal/cli"
	"finsight/internal/log"
	"finsight/internal/ocr"
	"finsight/internal/services"
	"finsight/internal/session"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image>",
		Short: "Extract and categorize the items on one receipt",
		Long: `Runs OCR and categorization on a JPG or PNG receipt and prints the
items with their totals. Nothing is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !ocr.SupportedExtension(path) {
		return fmt.Errorf("%s: %s", path, services.MsgUnsupportedImage)
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	cfg, logger, err := bootstrap(os.Stderr)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	llmClient, _, err := cli.NewLLMClient(cfg)
	if err != nil {
		return err
	}
	provider, err := cli.NewOCRProvider(cfg)
	if err != nil {
		return err
	}

	progress := cli.NewProgress(cmd.ErrOrStderr())
	extractor := ocr.NewExtractor(provider, logger.WithComponent(log.ComponentOCR).Slog())
	classifier := classify.NewItemClassifier(llmClient,
		classify.WithProgress(progress.Report),
		classify.WithLogger(logger.WithComponent(log.ComponentClassify).Slog()))

	// A one-off session holds the batch so scan shares the upload pipeline.
	store := session.NewMemoryStore(1, time.Hour, logger.Slog())
	defer store.Close()
	registry := session.NewRegistry(store, cfg.BudgetGoal(), logger.Slog())
	receipts := services.NewReceiptService(extractor, classifier, registry,
		logger.WithComponent(log.ComponentReceipt).Slog())

	fmt.Fprintln(out, cli.TitleStyle.Render("Scanning "+path))
	result, err := receipts.ProcessImage(ctx, session.NewID(), path)
	if err != nil {
		return err
	}

	if result.Added() {
		fmt.Fprintln(out, cli.SubtleStyle.Render("Receipt "+result.BatchKey))
		fmt.Fprintln(out, cli.ItemsTable(result.Items))
		fmt.Fprintln(out, cli.Totals(result.Items))
	}
	return cli.WriteNotices(out, result.Notices)
}
