package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fundingflow/config"
	"fundingflow/internal/collector"
	"fundingflow/internal/models"
	"fundingflow/internal/tokens"
	"fundingflow/internal/writer"
	"fundingflow/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols (BTC or BTC/USDT)")
	tokenFile := flag.String("tokens", "", "Path to JSON token list")
	maxTokens := flag.Int("max-tokens", 0, "Limit the number of tokens loaded from the token file")
	outDir := flag.String("out", "", "Report output directory (overrides writer.output)")
	interval := flag.Duration("interval", 0, "Polling interval; 0 runs a single collection")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if *outDir != "" {
		cfg.Writer.Output = *outDir
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Fundingflow.Name,
		"version": cfg.Fundingflow.Version,
	}).Info("starting fundingflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.InitCloudWatch(cfg.Storage.S3.Region, "FundingFlow")
		logger.StartReport(ctx, log, 30*time.Second)
	}

	syms, err := resolveSymbols(cfg, *symbolsFlag, *tokenFile, *maxTokens)
	if err != nil {
		log.WithError(err).Error("Failed to resolve symbols")
		os.Exit(1)
	}
	if len(syms) == 0 {
		log.Error("no symbols to collect; pass -symbols or -tokens")
		os.Exit(1)
	}

	col, err := collector.New(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to build collector")
		os.Exit(1)
	}

	reportWriter, err := writer.NewReportWriter(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to build report writer")
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
	}()

	runOnce(ctx, log, col, reportWriter, syms)

	if *interval > 0 {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info("fundingflow stopped")
				return
			case <-ticker.C:
				runOnce(ctx, log, col, reportWriter, syms)
			}
		}
	}

	log.Info("fundingflow finished")
}

func runOnce(ctx context.Context, log *logger.Log, col *collector.Collector, w *writer.ReportWriter, syms []models.LogicalSymbol) {
	start := time.Now()
	report := col.FetchAll(ctx, syms)

	for symbol, records := range report {
		log.WithComponent("main").WithFields(logger.Fields{
			"symbol":     symbol,
			"successful": len(records.Successful()),
			"failed":     records.FailedExchanges(),
		}).Info("symbol collected")
	}

	path, err := w.WriteLocal(report)
	if err != nil {
		log.WithComponent("main").WithError(err).Error("failed to write local report")
	}

	if err := w.Upload(ctx, report); err != nil {
		log.WithComponent("main").WithError(err).Error("failed to upload report")
	}

	log.WithComponent("main").WithFields(logger.Fields{
		"symbols":     len(syms),
		"report_path": path,
		"duration":    time.Since(start).String(),
	}).Info("collection round complete")
}

// resolveSymbols builds the symbol list from the -symbols flag or, when that
// is empty, from a JSON token file. Entries may be bare tickers (quote comes
// from configuration) or explicit BASE/QUOTE pairs.
func resolveSymbols(cfg *config.Config, symbolsFlag, tokenFile string, maxTokens int) ([]models.LogicalSymbol, error) {
	quote := cfg.Aggregator.Quote

	if symbolsFlag != "" {
		parts := strings.Split(symbolsFlag, ",")
		out := make([]models.LogicalSymbol, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if base, q, ok := strings.Cut(p, "/"); ok {
				out = append(out, models.NewLogicalSymbol(base, q))
			} else {
				out = append(out, models.NewLogicalSymbol(p, quote))
			}
		}
		return out, nil
	}

	if tokenFile != "" {
		list, err := tokens.Load(tokenFile, maxTokens)
		if err != nil {
			return nil, err
		}
		return tokens.Symbols(list, quote), nil
	}

	return nil, nil
}
