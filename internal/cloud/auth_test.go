package cloud_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/daybook-app/daybook/internal/cloud"
	"github.com/daybook-app/daybook/internal/config"
)

func writeTokenFile(t *testing.T, home string, body string) {
	t.Helper()
	dir := filepath.Join(home, ".daybook", "auth")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cloud_tokens.json"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func readTokenFile(t *testing.T, home string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(home, ".daybook", "auth", "cloud_tokens.json"))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestHasToken(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if cloud.HasToken() {
		t.Error("HasToken = true with no token file")
	}
	writeTokenFile(t, home, `{"access_token":"x","token_type":"Bearer"}`)
	if !cloud.HasToken() {
		t.Error("HasToken = false after writing token file")
	}
}

func TestSessionNotSignedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, err := cloud.Session(context.Background(), config.CloudConfig{BaseURL: "https://cloud.example"})
	if !errors.Is(err, cloud.ErrNotSignedIn) {
		t.Errorf("Session error = %v, want ErrNotSignedIn", err)
	}
}

func TestSessionRefreshesExpiredToken(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh","token_type":"Bearer","refresh_token":"rt-2","expires_in":3600}`)
	}))
	defer srv.Close()

	expiry := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	writeTokenFile(t, home, fmt.Sprintf(
		`{"access_token":"stale","token_type":"Bearer","refresh_token":"rt-1","expiry":%q}`, expiry))

	cc := config.CloudConfig{
		BaseURL:  srv.URL,
		ClientID: "test-client",
		TokenURL: srv.URL + "/token",
	}
	tok, _, err := cloud.Session(context.Background(), cc)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if tok.AccessToken != "fresh" {
		t.Errorf("AccessToken = %q, want refreshed token", tok.AccessToken)
	}

	saved := readTokenFile(t, home)
	if saved["access_token"] != "fresh" {
		t.Errorf("token file access_token = %v, refresh not persisted", saved["access_token"])
	}
}

func TestSessionValidTokenNeedsNoNetwork(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	expiry := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	writeTokenFile(t, home, fmt.Sprintf(
		`{"access_token":"live","token_type":"Bearer","expiry":%q}`, expiry))

	// BaseURL points nowhere; a valid token must not trigger a request.
	cc := config.CloudConfig{BaseURL: "http://127.0.0.1:1", ClientID: "test-client"}
	tok, _, err := cloud.Session(context.Background(), cc)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if tok.AccessToken != "live" {
		t.Errorf("AccessToken = %q, want stored token", tok.AccessToken)
	}
}

func TestLoginDeviceFlow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/devicecode":
			fmt.Fprint(w, `{"device_code":"dc-1","user_code":"ABCD-1234","verification_uri":"https://cloud.example/activate","expires_in":300,"interval":1}`)
		case "/token":
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm: %v", err)
			}
			if got := r.Form.Get("device_code"); got != "dc-1" {
				t.Errorf("device_code = %q, want dc-1", got)
			}
			fmt.Fprint(w, `{"access_token":"granted","token_type":"Bearer","refresh_token":"rt-1","expires_in":3600}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cc := config.CloudConfig{
		BaseURL:       srv.URL,
		ClientID:      "test-client",
		DeviceAuthURL: srv.URL + "/devicecode",
		TokenURL:      srv.URL + "/token",
	}
	if err := cloud.Login(context.Background(), cc); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if !cloud.HasToken() {
		t.Error("HasToken = false after login")
	}
	saved := readTokenFile(t, home)
	if saved["access_token"] != "granted" {
		t.Errorf("token file access_token = %v, want granted", saved["access_token"])
	}
}
