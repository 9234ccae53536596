package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/advisor"
	"github.com/dvloznov/finance-coach/internal/bank"
	"github.com/dvloznov/finance-coach/internal/coach"
	"github.com/dvloznov/finance-coach/internal/config"
	"github.com/dvloznov/finance-coach/internal/logger"
	"github.com/dvloznov/finance-coach/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(log)
	case "stocks":
		runStocks(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Coach CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Onboard a sandbox account and run a one-shot spending analysis")
	fmt.Println("  stocks    Generate a set of trending stock ideas")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func newEngine(ctx context.Context, log zerolog.Logger, withStore bool) (*coach.Engine, func(), error) {
	cfg, err := config.Load(log)
	if err != nil {
		return nil, nil, err
	}

	deps := coach.Deps{
		Bank:      bank.NewClient(cfg.NessieBaseURL, cfg.NessieAPIKey, log),
		WarnRatio: cfg.WantsWarnRatio,
		Log:       log,
	}

	cleanup := func() {}
	if withStore {
		repo, err := store.Open(cfg.DatabasePath, log)
		if err != nil {
			return nil, nil, err
		}
		deps.Repo = repo
		cleanup = func() { repo.Close() }
	}

	if cfg.GeminiAPIKey != "" {
		aiClient, err := advisor.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.Warn().Err(err).Msg("Could not initialize AI advisor, using fallbacks")
		} else {
			deps.Advisor = aiClient
		}
	}

	return coach.NewEngine(deps), cleanup, nil
}

func runAnalyze(log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	goal := fs.Float64("goal", 500, "Monthly savings goal in dollars")
	budget := fs.Float64("budget", 2000, "Monthly budget in dollars")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	engine, cleanup, err := newEngine(ctx, log, true)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer cleanup()

	onboard, err := engine.Onboard(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Onboarding failed")
	}
	fmt.Printf("Account ready: customer=%s account=%s\n", onboard.CustomerID, onboard.AccountID)

	if _, err := engine.SetGoal(ctx, *goal, *budget); err != nil {
		log.Fatal().Err(err).Msg("Could not set goal")
	}

	result, err := engine.RunAnalysis(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	fmt.Println("\n=== Spending Analysis ===")
	fmt.Printf("Needs:  $%.2f\n", result.NeedsTotal)
	fmt.Printf("Wants:  $%.2f\n", result.WantsTotal)
	fmt.Printf("Total:  $%.2f\n", result.TotalSpending)
	fmt.Printf("\n%s\n", result.Recommendation)

	fmt.Printf("\n=== Transactions (%d) ===\n", len(result.CategorizedTransactions))
	for i, tx := range result.CategorizedTransactions {
		fmt.Printf("%2d. [%-4s] %-40s $%.2f\n", i+1, tx.Category, tx.Description, tx.Amount)
	}
}

func runStocks(log zerolog.Logger) {
	fs := flag.NewFlagSet("stocks", flag.ExitOnError)
	seed := fs.Int64("seed", 0, "Variety seed (0 picks one from the clock)")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	engine, cleanup, err := newEngine(ctx, log, false)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer cleanup()

	set, err := engine.TrendingIdeas(ctx, nil, *seed, 0, false)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not generate ideas")
	}

	fmt.Println("\n=== Buy Ideas ===")
	for _, idea := range set.Buys {
		fmt.Printf("  %-6s %s\n         %s\n", idea.Symbol, idea.Name, idea.Reason)
	}
	fmt.Println("\n=== Sell Ideas ===")
	for _, idea := range set.Sells {
		fmt.Printf("  %-6s %s\n         %s\n", idea.Symbol, idea.Name, idea.Reason)
	}
	fmt.Printf("\n%s\n", set.Disclaimer)
}
