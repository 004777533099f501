package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daybook-app/daybook/internal/dateutil"
)

var addDate string

var addCmd = &cobra.Command{
	Use:   "add <note>...",
	Short: "Add a note to a day",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addDate, "date", "", "Day to add to (YYYY-MM-DD, default today)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	content := strings.TrimSpace(strings.Join(args, " "))
	if content == "" {
		fmt.Fprintln(os.Stderr, "Note content must not be blank.")
		os.Exit(1)
	}

	date := time.Now()
	if addDate != "" {
		d, err := dateutil.ParseDayKey(addDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --date value %q: %v\n", addDate, err)
			os.Exit(1)
		}
		date = d
	}

	s := openStore()
	item, err := s.Add(date, content)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Added note %s to %s\n", shortID(item.ID), dateutil.DayKey(date))
	return nil
}
