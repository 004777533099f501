package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <id> <note>...",
	Short: "Rewrite an existing note",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	content := strings.TrimSpace(strings.Join(args[1:], " "))
	if content == "" {
		fmt.Fprintln(os.Stderr, "Note content must not be blank.")
		os.Exit(1)
	}

	s := openStore()

	key, item, ok := s.FindItem(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "No unique note with id %q. Use 'daybook list' to see note ids.\n", args[0])
		os.Exit(1)
	}

	updated, err := s.Update(key, item.ID, content)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if !updated {
		fmt.Fprintf(os.Stderr, "No note with id %q on %s.\n", args[0], key)
		os.Exit(1)
	}

	fmt.Printf("Updated note %s on %s\n", shortID(item.ID), key)
	return nil
}
