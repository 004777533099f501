package cloud_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/daybook-app/daybook/internal/cloud"
)

func TestHTTPStoreRoundTrip(t *testing.T) {
	var (
		mu     sync.Mutex
		stored = map[string][]byte{}
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/account":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"signedIn": true}`)

		case r.URL.Path == "/v1/records" && r.Method == http.MethodGet:
			mu.Lock()
			defer mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			var parts []string
			for k, v := range stored {
				parts = append(parts, fmt.Sprintf(`{"key":%q,"record":%s}`, k, v))
			}
			fmt.Fprintf(w, `{"records":[%s]}`, strings.Join(parts, ","))

		case strings.HasPrefix(r.URL.Path, "/v1/records/"):
			key := strings.TrimPrefix(r.URL.Path, "/v1/records/")
			switch r.Method {
			case http.MethodPut:
				body, _ := io.ReadAll(r.Body)
				mu.Lock()
				stored[key] = body
				mu.Unlock()
				w.WriteHeader(http.StatusNoContent)
			case http.MethodDelete:
				mu.Lock()
				delete(stored, key)
				mu.Unlock()
				w.WriteHeader(http.StatusNoContent)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}

		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	hs := cloud.NewHTTPStore(srv.URL, srv.Client(), logrus.New())
	ctx := context.Background()

	if err := hs.Upsert(ctx, "day-1", []byte(`{"id":"day-1"}`)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := hs.Upsert(ctx, "day-2", []byte(`{"id":"day-2"}`)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	blobs, err := hs.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(blobs) != 2 {
		t.Fatalf("FetchAll returned %d blobs, want 2", len(blobs))
	}

	if err := hs.Delete(ctx, "day-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	blobs, err = hs.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll after delete: %v", err)
	}
	if len(blobs) != 1 || blobs[0].Key != "day-2" {
		t.Errorf("after delete blobs = %+v, want only day-2", blobs)
	}

	if got := hs.AccountStatus(ctx); got != cloud.StatusSignedIn {
		t.Errorf("AccountStatus = %v, want signed-in", got)
	}
}

func TestHTTPStoreFetchAllFollowsPaging(t *testing.T) {
	var baseURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/records" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"records":[{"key":"b","record":{}}]}`)
			return
		}
		fmt.Fprintf(w, `{"records":[{"key":"a","record":{}}],"next":%q}`, baseURL+"/v1/records?page=2")
	}))
	defer srv.Close()
	baseURL = srv.URL

	hs := cloud.NewHTTPStore(srv.URL, srv.Client(), logrus.New())
	blobs, err := hs.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(blobs) != 2 {
		t.Fatalf("FetchAll returned %d blobs, want 2 across pages", len(blobs))
	}
	if blobs[0].Key != "a" || blobs[1].Key != "b" {
		t.Errorf("blobs = %+v, want pages in order", blobs)
	}
}

func TestHTTPStoreDeleteMissingKeySucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	hs := cloud.NewHTTPStore(srv.URL, srv.Client(), logrus.New())
	if err := hs.Delete(context.Background(), "never-existed"); err != nil {
		t.Errorf("Delete of missing key = %v, want nil", err)
	}
}

func TestHTTPStoreUpsertServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	hs := cloud.NewHTTPStore(srv.URL, srv.Client(), logrus.New())
	err := hs.Upsert(context.Background(), "day-1", []byte(`{}`))
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want status code in message", err)
	}
}

func TestHTTPStoreAccountStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    cloud.AccountStatus
	}{
		{
			name: "signed out",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"signedIn": false}`)
			},
			want: cloud.StatusNotSignedIn,
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: cloud.StatusNotSignedIn,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: cloud.StatusUnavailable,
		},
		{
			name: "garbled body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `not json`)
			},
			want: cloud.StatusIndeterminate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			hs := cloud.NewHTTPStore(srv.URL, srv.Client(), logrus.New())
			if got := hs.AccountStatus(context.Background()); got != tt.want {
				t.Errorf("AccountStatus = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPStoreUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	hs := cloud.NewHTTPStore(srv.URL, http.DefaultClient, logrus.New())
	if got := hs.AccountStatus(context.Background()); got != cloud.StatusUnavailable {
		t.Errorf("AccountStatus = %v, want unavailable when host is down", got)
	}
	if _, err := hs.FetchAll(context.Background()); err == nil {
		t.Error("FetchAll against dead host succeeded, want error")
	}
}
