package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/daybook-app/daybook/internal/dateutil"
)

var (
	monthOf     string
	monthFormat string
)

var monthCmd = &cobra.Command{
	Use:   "month",
	Short: "Show a per-day note summary for a month",
	Args:  cobra.NoArgs,
	RunE:  runMonth,
}

func init() {
	monthCmd.Flags().StringVar(&monthOf, "of", "", "Month to summarize (YYYY-MM, default current)")
	monthCmd.Flags().StringVar(&monthFormat, "format", "md", "Output format: md, csv, json")
}

func runMonth(cmd *cobra.Command, args []string) error {
	now := time.Now()
	year, mon := now.Year(), now.Month()
	if monthOf != "" {
		t, err := time.ParseInLocation("2006-01", monthOf, time.Local)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --of value %q (want YYYY-MM): %v\n", monthOf, err)
			os.Exit(1)
		}
		year, mon = t.Year(), t.Month()
	}

	s := openStore()

	from, to := dateutil.MonthRange(year, mon, time.Local)
	days := s.Range(from, to)
	label := dateutil.MonthLabel(from)

	total := 0
	for _, d := range days {
		total += len(d.Records)
	}

	switch monthFormat {
	case "csv":
		fmt.Println("date,notes")
		for _, d := range days {
			fmt.Printf("%s,%d\n", dateutil.DayKey(d.Date), len(d.Records))
		}
	case "json":
		fmt.Println("{")
		fmt.Printf("  \"month\": %q,\n", label)
		fmt.Println("  \"days\": [")
		for i, d := range days {
			comma := ","
			if i == len(days)-1 {
				comma = ""
			}
			fmt.Printf("    {\"date\": %q, \"notes\": %d}%s\n",
				dateutil.DayKey(d.Date), len(d.Records), comma)
		}
		fmt.Println("  ],")
		fmt.Printf("  \"total_notes\": %d\n", total)
		fmt.Println("}")
	default: // md
		fmt.Println(label)
		fmt.Println("--------------------------------")
		for _, d := range days {
			fmt.Printf("%-16s%d\n", dateutil.DayKey(d.Date), len(d.Records))
		}
		fmt.Println("--------------------------------")
		fmt.Printf("%-16s%d\n", "Total", total)
	}

	return nil
}
