package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/EloSanz/iCardsMCP/config"
	"github.com/EloSanz/iCardsMCP/icards"
	"github.com/EloSanz/iCardsMCP/server"
	"github.com/EloSanz/iCardsMCP/stats"
	"github.com/EloSanz/iCardsMCP/tagging"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger

	client    *icards.Client
	decks     *icards.DeckService
	cards     *icards.FlashcardService
	tags      *icards.TagService
	engine    *tagging.Engine
	estimator *stats.Estimator

	appVersion   = "dev"
	appBuildTime = "unknown"
)

// SetVersion records build metadata injected at link time.
func SetVersion(version, buildTime string) {
	appVersion = version
	appBuildTime = buildTime
	rootCmd.Version = version
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "icards-mcp",
	Short: "MCP server exposing iCards flashcard management tools",
	Long: `icards-mcp bridges the iCards flashcard API to MCP clients. It exposes
deck, flashcard and tag management as typed tools, including bulk tag
assignment and deck organization statistics.`,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration, clients and services
func initializeApp(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Create API client
	client, err = icards.NewClient(cfg.API.URL, cfg.API.Token, logger,
		icards.WithTimeout(cfg.API.Timeout),
		icards.WithRetry(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay),
	)
	if err != nil {
		return fmt.Errorf("failed to create iCards client: %w", err)
	}

	decks = icards.NewDeckService(client)
	cards = icards.NewFlashcardService(client)
	tags = icards.NewTagService(client)
	engine = tagging.NewEngine(decks, cards, tags, logger)
	estimator = stats.NewEstimator(decks, tags, logger)

	return nil
}

// setupLogger configures the zerolog logger. Output always goes to
// stderr so it never interferes with the stdio MCP transport.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long:  `Serve MCP requests over stdin/stdout until the client disconnects.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(decks, cards, tags, engine, estimator, logger, server.Options{
		Version:       appVersion,
		MaxFlashcards: cfg.Bulk.MaxFlashcards,
	})

	return srv.Run(ctx)
}

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to the iCards API",
	Long:  `Check the connection to the configured iCards instance and display basic information.`,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Printf("Checking connection to iCards at %s...\n", cfg.API.URL)

	ctx := context.Background()
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Println("✓ Connection successful!")

	if version := client.Version(ctx); version != "unknown" {
		fmt.Printf("- Backend version: %s\n", version)
	}

	deckList, err := decks.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list decks: %w", err)
	}

	fmt.Printf("\niCards Statistics:\n")
	fmt.Printf("- Total decks: %d\n", len(deckList))

	if len(deckList) > 0 {
		fmt.Printf("\nAvailable decks:\n")
		for _, deck := range deckList {
			fmt.Printf("  • %s (%d cards)\n", deck.Name, deck.FlashcardTotal())
		}
	}

	return nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("icards-mcp %s (built %s)\n", appVersion, appBuildTime)
		return nil
	},
}
