package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/tradescan/internal/config"
	"github.com/verte-zerg/tradescan/internal/itemkey"
	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/stats"
	"github.com/verte-zerg/tradescan/internal/store"
)

var (
	statsProfile string
	statsSince   string
	statsLast    int
	statsTerm    string
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stored session statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsProfile, "profile", "", "profile filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().StringVar(&statsTerm, "term", "", "show the history of one search term")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	filter := model.HistoryFilter{Profile: statsProfile, Since: sinceTime, Last: statsLast}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	term := ""
	if statsTerm != "" {
		term = itemkey.Encode(statsTerm).Display()
	}
	report, err := stats.BuildReport(context.Background(), st, filter, term)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	return renderReport(cmd, a, report)
}

func renderReport(cmd *cobra.Command, a *app, report stats.Report) error {
	out := cmd.OutOrStdout()
	if len(report.Sessions) == 0 {
		return writeLines(out, []string{a.msgs.Get("stats.empty")})
	}
	if err := stats.RenderSessions(out, report.Sessions); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if report.Term != "" {
		if _, err := fmt.Fprintln(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := stats.RenderTermHistory(out, report.Term, report.TermHistory); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if len(report.Latest) > 0 {
		if _, err := fmt.Fprintln(out, "\nLatest session"); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := stats.RenderTerms(out, report.Latest); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
