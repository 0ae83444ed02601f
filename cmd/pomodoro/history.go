package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/adibhanna/pomodoro/internal/models"
	"github.com/adibhanna/pomodoro/internal/storage"
	"github.com/adibhanna/pomodoro/internal/ui/stats"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Summarize the sessions of one day",
		Example: `  pomodoro history
  pomodoro history --date 2026-10-18 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := storage.New(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("opening session history: %w", err)
			}
			if date == "" {
				date = time.Now().Format(storage.DateLayout)
			}
			day, err := store.GetDayStats(date)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(day)
			}
			printDay(cmd.OutOrStdout(), day)
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "day to summarize as YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printDay(w io.Writer, day models.DayStats) {
	fmt.Fprintf(w, "%s\n", day.Date)
	fmt.Fprintf(w, "  Focus:     %d sessions (%s)\n", day.SessionsCount, stats.FormatMinutes(day.FocusSeconds))
	fmt.Fprintf(w, "  Breaks:    %d short, %d long (%s)\n",
		day.ShortBreaksCount, day.LongBreaksCount, stats.FormatMinutes(day.BreakSeconds))
	fmt.Fprintf(w, "  Abandoned: %d\n", day.AbandonedCount)
}
