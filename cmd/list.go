package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/daybook-app/daybook/internal/dateutil"
	"github.com/daybook-app/daybook/internal/model"
)

var (
	listDate  string
	listWeek  bool
	listMonth bool
	listAll   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List day notes",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listDate, "date", "", "Show a specific day (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's notes")
	listCmd.Flags().BoolVar(&listMonth, "month", false, "Show this month's notes")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Show every day on record")
}

func runList(cmd *cobra.Command, args []string) error {
	now := time.Now()
	s := openStore()

	var days []model.DayRecord
	switch {
	case listAll:
		for _, k := range s.Keys() {
			if d, ok := s.Day(k); ok {
				days = append(days, d)
			}
		}
	case listDate != "":
		d, err := dateutil.ParseDayKey(listDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --date value %q: %v\n", listDate, err)
			os.Exit(1)
		}
		days = s.Range(dateutil.StartOfDay(d), dateutil.EndOfDay(d))
	case listWeek:
		from, to := dateutil.WeekRange(now)
		days = s.Range(from, to)
	case listMonth:
		from, to := dateutil.MonthRange(now.Year(), now.Month(), time.Local)
		days = s.Range(from, to)
	default:
		// Default to today (covers the bare command).
		days = s.Range(dateutil.StartOfDay(now), dateutil.EndOfDay(now))
	}

	printDays(days)
	return nil
}

// printDays groups notes under their day header.
func printDays(days []model.DayRecord) {
	if len(days) == 0 {
		fmt.Println("No notes found.")
		return
	}

	for _, day := range days {
		fmt.Println(dateutil.DayKey(day.Date))
		for _, item := range day.Records {
			fmt.Printf("  %s  %s\n", shortID(item.ID), item.Content)
		}
	}
}

// shortID abbreviates a note ID for display. Any unique prefix is
// accepted back by edit and delete.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
