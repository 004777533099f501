package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// HTTPStore implements BlobStore against the daybook cloud REST API.
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewHTTPStore creates a cloud client. The given client handles
// authentication; use SessionClient to build one from a stored session.
func NewHTTPStore(baseURL string, client *http.Client, logger *logrus.Logger) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     logger,
	}
}

// SessionClient returns an HTTP client that authenticates with the
// given session and persists refreshed tokens.
func SessionClient(ctx context.Context, tok *oauth2.Token, cfg *oauth2.Config) *http.Client {
	ts := cfg.TokenSource(ctx, tok)
	return oauth2.NewClient(ctx, &savingTokenSource{ts: ts})
}

// savingTokenSource wraps a TokenSource and persists refreshed tokens.
type savingTokenSource struct {
	ts oauth2.TokenSource
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	// Best-effort save; ignore errors.
	_ = saveToken(tok)
	return tok, nil
}

func (s *HTTPStore) recordURL(key string) string {
	return s.baseURL + "/v1/records/" + url.PathEscape(key)
}

// do sends the request and returns the response body and status code.
func (s *HTTPStore) do(req *http.Request) ([]byte, int, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("cloud request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// Upsert creates or replaces one record blob under the given key.
func (s *HTTPStore) Upsert(ctx context.Context, key string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.recordURL(key), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := s.do(req)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return fmt.Errorf("cloud API error %d: %s", status, string(body))
	}
}

// recordsPage is the paged response of the records collection endpoint.
type recordsPage struct {
	Records []Blob `json:"records"`
	Next    string `json:"next"`
}

// FetchAll retrieves every record blob in the journal collection,
// following pagination links.
func (s *HTTPStore) FetchAll(ctx context.Context) ([]Blob, error) {
	endpoint := s.baseURL + "/v1/records"

	var all []Blob
	for endpoint != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		body, status, err := s.do(req)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("cloud API error %d: %s", status, string(body))
		}

		var page recordsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding records page: %w", err)
		}

		all = append(all, page.Records...)
		endpoint = page.Next
	}
	return all, nil
}

// Delete removes one record blob. A missing key is not an error.
func (s *HTTPStore) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.recordURL(key), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	body, status, err := s.do(req)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("cloud API error %d: %s", status, string(body))
	}
}

// AccountStatus probes the account endpoint. Transport failures map to
// unavailable, auth failures to not-signed-in.
func (s *HTTPStore) AccountStatus(ctx context.Context) AccountStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/account", nil)
	if err != nil {
		return StatusIndeterminate
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).Debug("cloud: account probe failed")
		return StatusUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var acct struct {
			SignedIn bool `json:"signedIn"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
			return StatusIndeterminate
		}
		if acct.SignedIn {
			return StatusSignedIn
		}
		return StatusNotSignedIn
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return StatusNotSignedIn
	case resp.StatusCode >= http.StatusInternalServerError:
		return StatusUnavailable
	default:
		return StatusIndeterminate
	}
}
