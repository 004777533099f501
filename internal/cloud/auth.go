package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/daybook-app/daybook/internal/config"
)

var requiredScopes = []string{
	"records.read",
	"records.write",
	"offline_access",
}

// ErrNotSignedIn is returned when an operation needs a cloud session
// and no usable token is stored.
var ErrNotSignedIn = errors.New("not signed in to daybook cloud (run 'daybook sync login')")

// tokenFilePath returns the path to the stored token file.
func tokenFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".daybook", "auth", "cloud_tokens.json"), nil
}

// oauth2Config returns the oauth2.Config for the configured cloud.
func oauth2Config(cc config.CloudConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID: cc.ClientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: cc.DeviceAuthEndpoint(),
			TokenURL:      cc.TokenEndpoint(),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// loadToken loads a previously saved token from disk.
func loadToken() (*oauth2.Token, error) {
	path, err := tokenFilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

// saveToken persists a token to disk.
func saveToken(tok *oauth2.Token) error {
	path, err := tokenFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// HasToken reports whether a stored cloud session exists.
func HasToken() bool {
	tok, err := loadToken()
	return err == nil && tok != nil
}

// Login runs the OAuth2 device code flow and stores the resulting
// token. It prompts on stdout and blocks until the user completes the
// flow or ctx is cancelled.
func Login(ctx context.Context, cc config.CloudConfig) error {
	cfg := oauth2Config(cc)

	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Println()
	fmt.Println("To sign in, use a web browser to open the page:")
	fmt.Printf("  %s\n", resp.VerificationURI)
	fmt.Printf("Enter the code: %s\n", resp.UserCode)
	fmt.Println()

	tok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return fmt.Errorf("device authentication failed: %w", err)
	}

	if err := saveToken(tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// Session returns the stored token, refreshed if needed. It never
// prompts; callers get ErrNotSignedIn when no usable session exists.
func Session(ctx context.Context, cc config.CloudConfig) (*oauth2.Token, *oauth2.Config, error) {
	cfg := oauth2Config(cc)

	tok, err := loadToken()
	if err != nil {
		// Corrupt token: warn and treat as signed out.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		tok = nil
	}
	if tok == nil {
		return nil, nil, ErrNotSignedIn
	}

	if tok.Valid() {
		return tok, cfg, nil
	}

	if tok.RefreshToken != "" {
		ts := cfg.TokenSource(ctx, tok)
		refreshed, err := ts.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("token refresh failed: %w", err)
		}
		if err := saveToken(refreshed); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save refreshed token: %v\n", err)
		}
		return refreshed, cfg, nil
	}

	return nil, nil, ErrNotSignedIn
}
