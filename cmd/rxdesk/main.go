package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tailored-agentic-units/rxdesk/observability"
	"github.com/tailored-agentic-units/rxdesk/orchestrator"
)

var (
	// Global flags
	configFile string
	verbose    bool
	provider   string
	sessionID  string

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rxdesk",
	Short: "rxdesk - pharmacy operations question desk",
	Long: `rxdesk answers operational questions about a pharmacy chain by routing
them to specialized capabilities (demand, inventory, suppliers, pricing and
more) and merging what they report into one answer.

Run without arguments to start an interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
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
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to rxdesk config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider: gemini, anthropic or none (overrides config)")

	askCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id to continue (default: a new session)")
	chatCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id to continue (default: a new session)")
	batchCmd.Flags().IntVarP(&batchParallel, "parallel", "p", 4, "Maximum questions answered at once")

	rootCmd.AddCommand(askCmd, chatCmd, batchCmd, capabilitiesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config over defaults and applies flag overrides.
func loadConfig() (*orchestrator.Config, error) {
	cfg := orchestrator.DefaultConfig()
	if configFile != "" {
		loaded, err := orchestrator.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if provider != "" {
		cfg.LLM.Provider = provider
	}
	return &cfg, nil
}

// newOrchestrator builds the pipeline with events routed to the zap logger.
func newOrchestrator(ctx context.Context, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var obs observability.Observer = observability.NewZapObserver(logger)
	switch cfg.Observer {
	case "noop":
		obs = observability.NoOpObserver{}
	case "trace":
		obs = observability.NewMultiObserver(obs, observability.TraceObserver{})
	}

	opts = append([]orchestrator.Option{orchestrator.WithObserver(obs)}, opts...)
	return orchestrator.New(ctx, cfg, opts...)
}

func newSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}
