package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/daybook-app/daybook/internal/dateutil"
	"github.com/daybook-app/daybook/internal/model"
)

var (
	exportFormat string
	exportFrom   string
	exportTo     string
	exportAll    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export day notes to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every day on record")
}

func runExport(cmd *cobra.Command, args []string) error {
	now := time.Now()
	s := openStore()

	var days []model.DayRecord
	switch {
	case exportAll:
		for _, k := range s.Keys() {
			if d, ok := s.Day(k); ok {
				days = append(days, d)
			}
		}

	case exportFrom != "" || exportTo != "":
		if exportTo != "" && exportFrom == "" {
			fmt.Fprintln(os.Stderr, "--from is required when --to is specified")
			os.Exit(1)
		}
		from, err := dateutil.ParseDayKey(exportFrom)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --from value %q: %v\n", exportFrom, err)
			os.Exit(1)
		}

		to := dateutil.EndOfDay(now)
		if exportTo != "" {
			t, err := dateutil.ParseDayKey(exportTo)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --to value %q: %v\n", exportTo, err)
				os.Exit(1)
			}
			to = dateutil.EndOfDay(t)
		}
		days = s.Range(from, to)

	default:
		// Default: this week.
		from, to := dateutil.WeekRange(now)
		days = s.Range(from, to)
	}

	switch exportFormat {
	case "json":
		data, err := json.MarshalIndent(days, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			os.Exit(2)
		}
		fmt.Println(string(data))
	case "md":
		printDays(days)
	default: // csv
		printCSV(days)
	}

	return nil
}

func printCSV(days []model.DayRecord) {
	fmt.Println("date,id,note,created_at,updated_at")
	for _, day := range days {
		date := dateutil.DayKey(day.Date)
		for _, item := range day.Records {
			fmt.Printf("%s,%s,%s,%s,%s\n",
				csvEscape(date),
				csvEscape(item.ID),
				csvEscape(item.Content),
				csvEscape(item.CreatedAt.Format(time.RFC3339)),
				csvEscape(item.UpdatedAt.Format(time.RFC3339)),
			)
		}
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	needsQuote := false
	for _, c := range s {
		if c == ',' || c == '"' || c == '\n' || c == '\r' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	// Escape internal double quotes by doubling them.
	escaped := ""
	for _, c := range s {
		if c == '"' {
			escaped += "\""
		}
		escaped += string(c)
	}
	return `"` + escaped + `"`
}
