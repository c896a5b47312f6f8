package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"fxFeedLab/config"
	"fxFeedLab/internal/adapters/logger"
	"fxFeedLab/internal/adapters/sqlite"
	"fxFeedLab/internal/domain"
)

func main() {
	limit := flag.Int("n", 20, "number of most recent runs to show")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.New(logger.Config{Level: logger.LevelWarn, Output: os.Stderr, Console: true})

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("Error opening run history: %v", err)
	}
	defer repo.Close()

	runs, err := repo.ListRuns(context.Background(), *limit)
	if err != nil {
		log.Fatalf("Error listing runs: %v", err)
	}
	if len(runs) == 0 {
		log.Println("No recorded runs found. Run the backtest first.")
		return
	}

	// Create a tabwriter for formatted output
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Run\tStarted\tWindow\tTicks\tFeed\tDecoded\tSkipped\tRejected\tOutside\tStatus\t")
	for _, run := range runs {
		printRun(w, run)
	}
	w.Flush()
}

func printRun(w *tabwriter.Writer, run *domain.RunSummary) {
	window := fmt.Sprintf("%s..%s", run.WindowStart.Format("2006-01-02"), run.WindowEnd.Format("2006-01-02"))
	if len(run.Feeds) == 0 {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t-\t\t\t\t\t\t\n", shortID(run.ID), run.StartedAt.Format("2006-01-02 15:04"), window, run.Ticks)
		return
	}
	for i, f := range run.Feeds {
		id, started, win, ticks := "", "", "", ""
		if i == 0 {
			id = shortID(run.ID)
			started = run.StartedAt.Format("2006-01-02 15:04")
			win = window
			ticks = fmt.Sprint(run.Ticks)
		}
		status := "ok"
		if f.Error != "" {
			status = f.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t\n",
			id, started, win, ticks, f.Symbol, f.Decoded, f.Skipped, f.Rejected, f.OutOfWindow, status)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
