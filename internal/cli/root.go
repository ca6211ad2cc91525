package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/duchph/approvebot/internal/control"
	"github.com/duchph/approvebot/internal/core/config"
)

var (
	cfgPath     string
	isDebug     bool
	approvers   []string
	noResume    bool
	stopOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "approvebot",
	Short: "Bulk approver submission for ARMS accounts",
	Long: `Approvebot reads account records from an Excel workbook and submits the
configured approvers for each of them through an already-authenticated
browser session, checkpointing progress so an interrupted run resumes
where it left off.`,
	Run: runBatch,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().StringSliceVar(&approvers, "approvers", nil, "override the three approvers from the config")
	rootCmd.Flags().BoolVar(&noResume, "no-resume", false, "ignore completed records and process everything again")
	rootCmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "halt the run on the first record failure")
}

func setupLogging(level string) {
	slogLevel := slog.LevelInfo
	if isDebug || level == "debug" {
		slogLevel = slog.LevelDebug
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})))
}

func loadConfig(cmd *cobra.Command) *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		setupLogging("")
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging.Level)

	if cmd.Flags().Changed("approvers") {
		cfg.Run.Approvers = approvers
	}
	if noResume {
		resume := false
		cfg.Run.Resume = &resume
	}
	if cmd.Flags().Changed("stop-on-error") {
		cfg.Run.StopOnError = stopOnError
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

func runBatch(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("Received signal, shutting down...", "signal", sig)
		cancel()
	}()

	runErr := app.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	if runErr != nil {
		slog.Error("Run ended with error", "error", runErr)
		os.Exit(1)
	}
}
