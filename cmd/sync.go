package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daybook-app/daybook/internal/cloud"
	"github.com/daybook-app/daybook/internal/config"
	"github.com/daybook-app/daybook/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize day notes with daybook cloud",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var syncLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to daybook cloud",
	Args:  cobra.NoArgs,
	RunE:  runSyncLogin,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cloud account state",
	Args:  cobra.NoArgs,
	RunE:  runSyncStatus,
}

func init() {
	syncCmd.AddCommand(syncLoginCmd)
	syncCmd.AddCommand(syncStatusCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	s := openStore()
	ctx := context.Background()

	svc, err := newSyncService(ctx, cfg, s, newLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Syncing with %s...\n", cfg.Cloud.BaseURL)

	res, err := svc.SyncNow(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  %d fetched\n", res.Fetched)
	fmt.Printf("  %d applied\n", res.Applied)
	fmt.Printf("  %d skipped\n", res.Skipped)
	fmt.Printf("  %d pushed\n", res.Pushed)
	if res.Errors > 0 {
		fmt.Printf("  %d errors\n", res.Errors)
		os.Exit(2)
	}
	return nil
}

func runSyncLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := cloud.Login(context.Background(), cfg.Cloud); err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Signed in. Run 'daybook sync' to synchronize.")
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if !cloud.HasToken() {
		fmt.Println("Not signed in. Run 'daybook sync login' first.")
		return nil
	}

	ctx := context.Background()
	tok, ocfg, err := cloud.Session(ctx, cfg.Cloud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Session error: %v\n", err)
		os.Exit(1)
	}

	blobs := cloud.NewHTTPStore(cfg.Cloud.BaseURL, cloud.SessionClient(ctx, tok, ocfg), newLogger())

	fmt.Println("Signed in.")
	fmt.Printf("  Cloud:   %s\n", cfg.Cloud.BaseURL)
	fmt.Printf("  Account: %s\n", blobs.AccountStatus(ctx))
	return nil
}

// newSyncService wires the cloud sync service from the stored session.
// Returns cloud.ErrNotSignedIn when no session exists.
func newSyncService(ctx context.Context, cfg config.Config, s *store.Store, logger *logrus.Logger) (*cloud.Service, error) {
	tok, ocfg, err := cloud.Session(ctx, cfg.Cloud)
	if err != nil {
		return nil, err
	}
	blobs := cloud.NewHTTPStore(cfg.Cloud.BaseURL, cloud.SessionClient(ctx, tok, ocfg), logger)
	return cloud.NewService(s, blobs, logger), nil
}
