package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cleverdining/datahub/internal/models"
)

type fakeTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	cleared bool
}

func (f *fakeTokens) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeTokens) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh
}

func (f *fakeTokens) SetTokens(access, refresh string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access, f.refresh = access, refresh
}

func (f *fakeTokens) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access, f.refresh = "", ""
	f.cleared = true
}

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestClient(t *testing.T, handler http.Handler) (*Client, *fakeTokens, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tokens := &fakeTokens{access: "old-access", refresh: "refresh-1"}
	return NewClient(srv.URL, tokens, testLogger()), tokens, srv
}

func TestRefreshSingleRetry(t *testing.T) {
	var dataCalls, refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/owners/orders/", func(w http.ResponseWriter, r *http.Request) {
		dataCalls++
		// Both the original request and the replay are rejected.
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"new-access"}`))
	})

	c, tokens, _ := newTestClient(t, mux)

	_, err := c.FetchOrders(context.Background(), models.RoleOwner, 1, "")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("want ErrSessionExpired, got %v", err)
	}
	if dataCalls != 2 {
		t.Fatalf("want exactly 2 data calls (original + single replay), got %d", dataCalls)
	}
	if refreshCalls != 1 {
		t.Fatalf("want exactly 1 refresh call, got %d", refreshCalls)
	}
	if got := tokens.AccessToken(); got != "new-access" {
		t.Fatalf("access token after refresh = %q, want %q", got, "new-access")
	}
}

func TestRefreshThenReplaySucceeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/owners/food-items/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"results":[{"id":7,"name":"Falafel Wrap","price":8.50,"category":"Wraps","available":true}]}`))
	})
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"good","refresh":"refresh-2"}`))
	})

	c, tokens, _ := newTestClient(t, mux)

	page, err := c.FetchFoodItems(context.Background(), models.RoleOwner, 1, "")
	if err != nil {
		t.Fatalf("FetchFoodItems: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].Name != "Falafel Wrap" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if tokens.RefreshToken() != "refresh-2" {
		t.Fatalf("refresh token not rotated: %q", tokens.RefreshToken())
	}
	if tokens.cleared {
		t.Fatal("session must not be cleared on a cured 401")
	}
}

func TestRefreshFailureClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/owners/orders/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, tokens, _ := newTestClient(t, mux)

	_, err := c.FetchOrders(context.Background(), models.RoleOwner, 1, "")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("want ErrSessionExpired, got %v", err)
	}
	if !tokens.cleared {
		t.Fatal("session must be cleared when the refresh itself fails")
	}
}

func TestPaginationEnvelope(t *testing.T) {
	var gotPage, gotSearch string
	mux := http.NewServeMux()
	mux.HandleFunc("/owners/food-items/", func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		gotSearch = r.URL.Query().Get("search")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":23,"results":[
			{"id":1,"name":"a"},{"id":2,"name":"b"},{"id":3,"name":"c"},
			{"id":4,"name":"d"},{"id":5,"name":"e"},{"id":6,"name":"f"},
			{"id":7,"name":"g"},{"id":8,"name":"h"},{"id":9,"name":"i"},
			{"id":10,"name":"j"},{"id":11,"name":"k"},{"id":12,"name":"l"},
			{"id":13,"name":"m"},{"id":14,"name":"n"},{"id":15,"name":"o"}]}`))
	})

	c, _, _ := newTestClient(t, mux)

	page, err := c.FetchFoodItems(context.Background(), models.RoleOwner, 2, "wrap")
	if err != nil {
		t.Fatalf("FetchFoodItems: %v", err)
	}
	if gotPage != "2" || gotSearch != "wrap" {
		t.Fatalf("query params page=%q search=%q", gotPage, gotSearch)
	}
	if page.Count != 23 {
		t.Fatalf("count = %d, want 23", page.Count)
	}
	if page.Page != 2 {
		t.Fatalf("page = %d, want 2", page.Page)
	}
	if len(page.Results) != 15 {
		t.Fatalf("results = %d items, want 15", len(page.Results))
	}
}

func TestAPIErrorBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/owners/orders/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"bad page"}`))
	})

	c, _, _ := newTestClient(t, mux)

	_, err := c.FetchOrders(context.Background(), models.RoleOwner, 1, "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", apiErr.StatusCode)
	}
}
