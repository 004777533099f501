package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daybook-app/daybook/internal/dateutil"
)

var deleteDate string

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note, or a whole day with --date",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteDate, "date", "", "Delete every note of this day (YYYY-MM-DD)")
}

func runDelete(cmd *cobra.Command, args []string) error {
	s := openStore()

	if deleteDate != "" {
		if len(args) > 0 {
			fmt.Fprintln(os.Stderr, "Pass either a note id or --date, not both.")
			os.Exit(1)
		}
		d, err := dateutil.ParseDayKey(deleteDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --date value %q: %v\n", deleteDate, err)
			os.Exit(1)
		}
		key := dateutil.DayKey(d)

		removed, err := s.DeleteDay(key)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		if !removed {
			fmt.Fprintf(os.Stderr, "No notes on %s.\n", key)
			os.Exit(1)
		}
		fmt.Printf("Deleted all notes of %s\n", key)
		return nil
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Pass a note id or --date.")
		os.Exit(1)
	}

	key, item, ok := s.FindItem(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "No unique note with id %q. Use 'daybook list' to see note ids.\n", args[0])
		os.Exit(1)
	}

	removed, err := s.DeleteItem(key, item.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if !removed {
		fmt.Fprintf(os.Stderr, "No note with id %q on %s.\n", args[0], key)
		os.Exit(1)
	}

	fmt.Printf("Deleted note %s from %s\n", shortID(item.ID), key)
	return nil
}
