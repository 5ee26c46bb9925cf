package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"signal_trade/internal/api"
	"signal_trade/internal/config"
	"signal_trade/internal/ledger"
	"signal_trade/internal/logger"
	"signal_trade/internal/service"
)

var (
	cfgFile string
	port    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "signal-trade",
		Short: "Webhook driven order execution and hedge reconciliation",
		RunE:  runServer,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.Flags().StringVar(&port, "port", "", "HTTP port, overrides server.port")

	rootCmd.AddCommand(marketsCmd(), alertCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env (best effort), the config file and the logger settings
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadConfigOrCreateDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Server.Port = port
	}
	logger.Infof("config loaded from %s, log level %s", cfgFile, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	venues := buildVenues(cfg)
	if len(venues) == 0 {
		logger.Warn("no venue enabled; alerts will be rejected until credentials are configured")
	}

	monitor := service.NewMarketMonitor(venues, cfg.Trading.MarketRefresh)
	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("start market monitor: %w", err)
	}

	store, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("open hedge ledger: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorf("close hedge ledger: %v", err)
		}
	}()
	logger.Infof("hedge ledger: %s at %s", cfg.Ledger.Driver, cfg.Ledger.Path)

	tradingService := service.NewTradingService(cfg, venues, store)
	logger.Infof("venues: %v", tradingService.Venues())

	httpServer := api.NewServer(cfg.Server, monitor, tradingService)
	return httpServer.Start(ctx)
}
