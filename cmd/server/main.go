package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/profitlevers/internal/baseline"
	"github.com/Simplici0/profitlevers/internal/config"
	"github.com/Simplici0/profitlevers/internal/db"
	"github.com/Simplici0/profitlevers/internal/logging"
	"github.com/Simplici0/profitlevers/internal/metrics"
	"github.com/Simplici0/profitlevers/internal/migrations"
	"github.com/Simplici0/profitlevers/internal/seed"
)

const shutdownTimeout = 10 * time.Second

var (
	// Global flags
	configFile string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Profit levers simulator",
	Long: `Serves the profit levers dashboard: move sales, margin, efficiency
and overhead levers and see operating profit, break-even sales and a
sensitivity chart recomputed on every change.

Run without a subcommand to start the web server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.IsDev())
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard web server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, json, toml or env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newCalcCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	stats, err := seed.Run(ctx, database, seed.Catalog())
	if err != nil {
		return fmt.Errorf("failed to seed baselines: %w", err)
	}
	logger.Info("baselines seeded", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))

	store := baseline.NewStore(database)
	srv := &server{
		baselines:       store,
		metrics:         metrics.New(""),
		logger:          logger,
		defaultBaseline: cfg.DefaultBaseline,
		defaultFXRate:   cfg.DefaultFXRate,
		fallbackSales:   fallbackSales(ctx, store, cfg.DefaultBaseline),
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// fallbackSales is the external sales figure the sensitivity sweep centres
// on when a scenario has none: the default baseline's, else FY2025's.
func fallbackSales(ctx context.Context, store *baseline.Store, name string) float64 {
	if name != "" {
		if b, err := store.Get(ctx, name); err == nil && b.Levers.ExternalSales > 0 {
			return b.Levers.ExternalSales
		}
	}
	return baseline.FY2025().Levers.ExternalSales
}
