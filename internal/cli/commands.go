package cli

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyike/QuorumGo/config"
	"github.com/dyike/QuorumGo/consts"
	"github.com/dyike/QuorumGo/internal/adapters"
	"github.com/dyike/QuorumGo/internal/analysis"
	"github.com/dyike/QuorumGo/internal/debate"
	"github.com/dyike/QuorumGo/internal/debug"
	"github.com/dyike/QuorumGo/internal/storage/history"
	"github.com/dyike/QuorumGo/internal/storage/usage"
	"github.com/dyike/QuorumGo/models"
	"github.com/dyike/QuorumGo/pkg/dataflows"
	"github.com/dyike/QuorumGo/pkg/utils"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "quorumgo",
		Short: "QuorumGo - Multi-Persona Equity Analysis",
		Long: `QuorumGo runs a stock symbol past three AI analyst personas, measures how
far they agree, and distils their opinions into a graded consensus view.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return debug.NewEinoDebugger(cfg).Initialize()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveMode(cfg)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newDebateCmd(cfg))
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")

	return rootCmd
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run a multi-persona consensus analysis for a stock symbol",
		Long: `Run a consensus analysis for a given stock ticker symbol.
Example: quorumgo analyze AAPL --tier=basic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, _ := cmd.Flags().GetString("tier")
			user, _ := cmd.Flags().GetString("user")
			name, _ := cmd.Flags().GetString("name")
			price, _ := cmd.Flags().GetFloat64("price")

			return runAnalyzeCommand(cfg, args[0], name, user, tier, price)
		},
	}

	cmd.Flags().String("tier", consts.TierBasic, "Subscription tier (free, lite, basic, pro)")
	cmd.Flags().String("user", "", "User id for quota accounting")
	cmd.Flags().String("name", "", "Company name shown to the personas")
	cmd.Flags().Float64("price", 0, "Override the current price instead of fetching a quote")

	return cmd
}

// newDebateCmd creates the debate command
func newDebateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debate [SYMBOL]",
		Short: "Run a multi-round persona debate for a stock symbol",
		Long: `Run the personas through several debate rounds where each reads and
reacts to the replies of the others.
Example: quorumgo debate AAPL --rounds=3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rounds, _ := cmd.Flags().GetInt("rounds")
			name, _ := cmd.Flags().GetString("name")
			session, _ := cmd.Flags().GetString("session")
			user, _ := cmd.Flags().GetString("user")

			return runDebateCommand(cfg, args[0], name, session, user, rounds)
		},
	}

	cmd.Flags().Int("rounds", 0, "Debate rounds to run (default: configured maximum)")
	cmd.Flags().String("name", "", "Company name shown to the personas")
	cmd.Flags().String("session", "", "Session id for the transcript (default: generated)")
	cmd.Flags().String("user", "", "User id for usage accounting")

	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("QuorumGo v1.0.0")
			fmt.Println("Multi-Persona Equity Analysis")
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Manage QuorumGo configuration settings",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cfg)
		},
	})

	return configCmd
}

// buildService assembles the analysis service with its quote chain and
// usage meter. A positive priceOverride replaces the quote chain.
func buildService(ctx context.Context, cfg *config.Config, priceOverride float64) *analysis.Service {
	gens := adapters.NewAdapters(ctx, cfg)
	fallback := adapters.NewFallback()

	var quotes dataflows.QuoteProvider = buildQuoteChain(cfg)
	if priceOverride > 0 {
		quotes = dataflows.NewStaticProvider(priceOverride)
	}

	return analysis.NewService(gens, fallback, quotes, buildMeter(cfg), cfg)
}

func buildQuoteChain(cfg *config.Config) dataflows.QuoteProvider {
	providers := []dataflows.QuoteProvider{}
	if cfg.FinnhubAPIKey != "" {
		providers = append(providers, dataflows.NewFinnhubClient(cfg))
	}
	providers = append(providers,
		dataflows.NewYahooClient(cfg),
		dataflows.NewStaticProvider(cfg.DefaultPrice),
	)
	return dataflows.NewChainProvider(providers...)
}

func buildMeter(cfg *config.Config) usage.Meter {
	meter, err := usage.NewSQLiteMeter(filepath.Join(cfg.DataDir, "usage.db"))
	if err != nil {
		log.Printf("usage store unavailable, metering in memory: %v", err)
		return usage.NewMemoryMeter()
	}
	return meter
}

// runAnalyzeCommand executes the consensus analysis workflow
func runAnalyzeCommand(cfg *config.Config, symbol, name, user, tier string, priceOverride float64) error {
	ctx := context.Background()

	svc := buildService(ctx, cfg, priceOverride)

	DisplayInfo(fmt.Sprintf("Starting %s-tier analysis for %s", tier, symbol))

	resp, err := svc.RunAnalysis(ctx, analysis.Request{
		Symbol: symbol,
		Name:   name,
		UserID: user,
		Tier:   tier,
	})
	if err != nil {
		if usage.IsQuotaError(err) {
			DisplayError(err)
			return nil
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	RenderAnalysis(resp)
	saveAnalysisRun(ctx, cfg, symbol, tier, resp)
	DisplaySuccess("Analysis completed")
	return nil
}

// saveAnalysisRun records the run in the history database and writes a
// markdown report. Both are best effort.
func saveAnalysisRun(ctx context.Context, cfg *config.Config, symbol, tier string, resp *models.AnalysisResponse) {
	normalized := dataflows.NormalizeSymbol(symbol)
	runID := utils.RandStr(16)

	store, err := history.Open(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		log.Printf("history store unavailable: %v", err)
	} else {
		defer store.Close()
		if err := store.SaveRun(ctx, runID, normalized, tier, resp); err != nil {
			log.Printf("save run: %v", err)
		}
	}

	report := buildMarkdownReport(normalized, tier, resp)
	fileName := fmt.Sprintf("%s_%s_%s.md", normalized, time.Now().Format("20060102_150405"), runID[:8])
	if err := utils.WriteMarkdown(cfg.ResultsDir, fileName, report); err != nil {
		log.Printf("write report: %v", err)
	}
}

// newHistoryCmd creates the history command
func newHistoryCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [SYMBOL]",
		Short: "List recent analysis runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := ""
			if len(args) == 1 {
				symbol = dataflows.NormalizeSymbol(args[0])
			}
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := history.Open(filepath.Join(cfg.DataDir, "history.db"))
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(context.Background(), symbol, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				DisplayInfo("No recorded runs.")
				return nil
			}

			for _, r := range runs {
				line := fmt.Sprintf("%s  %-8s %-5s %-16s", r.CreatedAt, r.Symbol, r.Tier, r.Pipeline)
				if r.Grade != "" {
					line += fmt.Sprintf("  %s (%d/100)", r.Grade, r.Confidence)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum runs to list")

	return cmd
}

// runDebateCommand executes the multi-round debate workflow
func runDebateCommand(cfg *config.Config, symbol, name, sessionID, user string, rounds int) error {
	ctx := context.Background()

	gens := adapters.NewAdapters(ctx, cfg)
	quotes := buildQuoteChain(cfg)
	price := func(ctx context.Context, sym string) float64 {
		if md, err := quotes.Quote(ctx, sym); err == nil {
			return md.Price()
		}
		return cfg.DefaultPrice
	}

	// The orchestrator flags its last configured round as final, so it must
	// be built with the round count this run will actually execute.
	rounds = effectiveRounds(rounds, cfg.MaxDebateRounds)
	orch := debate.NewOrchestrator(gens, adapters.NewFallback(), debate.NewMemoryStore(), price, rounds)

	if sessionID == "" {
		sessionID = fmt.Sprintf("%s-%s", dataflows.NormalizeSymbol(symbol), utils.RandStr(8))
	}
	defer orch.DeleteSession(sessionID)

	store, err := history.Open(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		log.Printf("history store unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	meter := buildMeter(cfg)

	for round := 1; round <= rounds; round++ {
		DisplayInfo(fmt.Sprintf("Debate round %d/%d for %s", round, rounds, symbol))
		msgs, err := orch.RunRound(ctx, sessionID, symbol, name, round)
		if err != nil {
			return fmt.Errorf("debate round %d failed: %w", round, err)
		}
		RenderDebateRound(round, msgs)

		if store != nil {
			if err := store.SaveDebateMessages(ctx, sessionID, msgs); err != nil {
				log.Printf("save transcript: %v", err)
			}
		}
		recordDebateRound(ctx, meter, user)
	}

	DisplaySuccess("Debate completed")
	return nil
}

// effectiveRounds clamps the requested debate length to the configured cap.
// Zero or negative means "run the full configured debate".
func effectiveRounds(requested, max int) int {
	if requested <= 0 || requested > max {
		return max
	}
	return requested
}

// recordDebateRound books one completed debate round against the user's
// usage account. Debate is not quota-gated, so recording is best-effort and
// never fails the run.
func recordDebateRound(ctx context.Context, meter usage.Meter, user string) {
	if meter == nil {
		return
	}
	if strings.TrimSpace(user) == "" {
		user = "anonymous"
	}
	if err := meter.Increment(ctx, user, consts.FeatureDebate); err != nil {
		log.Printf("record debate usage: %v", err)
	}
}

// showConfig displays the current configuration
func showConfig(cfg *config.Config) {
	fmt.Println("Current QuorumGo Configuration:")
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("Project Directory:    %s\n", cfg.ProjectDir)
	fmt.Printf("Results Directory:    %s\n", cfg.ResultsDir)
	fmt.Printf("Data Directory:       %s\n", cfg.DataDir)
	fmt.Printf("Cache Directory:      %s\n", cfg.DataCacheDir)
	fmt.Println()
	fmt.Printf("DeepSeek Model:       %s\n", cfg.DeepSeekModel)
	fmt.Printf("OpenAI Model:         %s\n", cfg.OpenAIModel)
	fmt.Printf("DashScope Model:      %s\n", cfg.DashScopeModel)
	fmt.Printf("Backend Timeout:      %ds\n", cfg.BackendTimeoutSec)
	fmt.Println()
	fmt.Printf("Max Debate Rounds:    %d\n", cfg.MaxDebateRounds)
	fmt.Printf("Daily Quota (lite):   %d\n", cfg.DailyQuotaLite)
	fmt.Printf("Daily Quota (basic):  %d\n", cfg.DailyQuotaBasic)
	fmt.Printf("Daily Quota (pro):    %d\n", cfg.DailyQuotaPro)
	fmt.Println()
	fmt.Printf("Cache Enabled:        %t\n", cfg.CacheEnabled)
	fmt.Printf("Debug Mode:           %t\n", cfg.Debug)
	fmt.Printf("Eino Debug:           %t\n", cfg.EinoDebugEnabled)
	if cfg.EinoDebugEnabled {
		fmt.Printf("Eino Debug Port:      %d\n", cfg.EinoDebugPort)
	}
	fmt.Println()

	fmt.Println("API Configuration:")
	fmt.Println("─────────────────────")
	printKeyStatus("DeepSeek API", cfg.DeepSeekAPIKey)
	printKeyStatus("OpenAI API", cfg.OpenAIAPIKey)
	printKeyStatus("DashScope API", cfg.DashScopeAPIKey)
	printKeyStatus("Finnhub API", cfg.FinnhubAPIKey)
}

func printKeyStatus(name, key string) {
	if key != "" {
		fmt.Printf("%-20s  configured\n", name+":")
	} else {
		fmt.Printf("%-20s  not configured\n", name+":")
	}
}

// validateConfig validates the configuration and dependencies
func validateConfig(cfg *config.Config) error {
	fmt.Println("Validating QuorumGo Configuration...")
	fmt.Println("═══════════════════════════════════════")

	fmt.Print("Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Println("failed")
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Println("ok")

	fmt.Print("Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Println("failed")
		return err
	}
	fmt.Println("ok")

	fmt.Print("Checking API keys... ")
	warnings := []string{}
	if cfg.DeepSeekAPIKey == "" {
		warnings = append(warnings, "DeepSeek API key not configured; balanced analyst will answer offline")
	}
	if cfg.OpenAIAPIKey == "" {
		warnings = append(warnings, "OpenAI API key not configured; growth analyst will answer offline")
	}
	if cfg.DashScopeAPIKey == "" {
		warnings = append(warnings, "DashScope API key not configured; macro analyst will answer offline")
	}
	if cfg.FinnhubAPIKey == "" {
		warnings = append(warnings, "Finnhub API key not configured; quotes fall back to Yahoo Finance")
	}

	if len(warnings) > 0 {
		fmt.Println("warnings")
		for _, warning := range warnings {
			fmt.Printf("  - %s\n", warning)
		}
	} else {
		fmt.Println("ok")
	}

	fmt.Println()
	if len(warnings) == 0 {
		fmt.Println("Configuration validation completed successfully.")
	} else {
		fmt.Printf("Configuration validation completed with %d warnings.\n", len(warnings))
		fmt.Println("Personas without a backend key answer with deterministic offline opinions.")
	}

	return nil
}
