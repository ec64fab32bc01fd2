package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"finsight/internal/cache"
	"finsight/internal/classify"
	"finsight/internal/cli"
	apphttp "finsight/internal/http"
	"finsight/internal/insights"
	"finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/ocr"
	"finsight/internal/services"
	"finsight/internal/session"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap(os.Stdout)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := cli.NewSessionStore(cfg, logger.WithComponent(log.ComponentSession).Slog())
	if err != nil {
		return err
	}
	defer store.Close()
	registry := session.NewRegistry(store, cfg.BudgetGoal(), logger.WithComponent(log.ComponentSession).Slog())

	llmClient, promptCache, err := cli.NewLLMClient(cfg)
	if err != nil {
		return err
	}
	provider, err := cli.NewOCRProvider(cfg)
	if err != nil {
		return err
	}

	extractor := ocr.NewExtractor(provider, logger.WithComponent(log.ComponentOCR).Slog())
	classifier := classify.NewItemClassifier(llmClient,
		classify.WithLogger(logger.WithComponent(log.ComponentClassify).Slog()))
	receipts := services.NewReceiptService(extractor, classifier, registry,
		logger.WithComponent(log.ComponentReceipt).Slog())
	generator := insights.NewGenerator(llmClient, logger.WithComponent(log.ComponentInsights).Slog())
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Sessions:       registry,
		Receipts:       receipts,
		Insights:       generator,
		Limiter:        limiter,
		Logger:         logger,
		PromptCache:    promptCache,
		CookieName:     cfg.CookieName,
		SessionTTL:     cfg.SessionTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	janitor := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	janitor.Register("sessions", store)
	janitor.Register("rate_limiter", limiter)
	if promptCache != nil {
		janitor.Register("prompts", promptCache)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finsight server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"session_backend", cfg.SessionBackend,
			"ocr_provider", cfg.OCRProvider,
			"llm_provider", cfg.LLMProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return janitor.Run(gctx, cfg.CacheCleanupInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
