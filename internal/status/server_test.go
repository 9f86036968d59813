package status

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/cleverdining/datahub/internal/models"
	"github.com/cleverdining/datahub/internal/session"
	"github.com/cleverdining/datahub/internal/store"
)

func TestStatusEndpoint(t *testing.T) {
	lg := log.New(io.Discard, "", 0)
	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"), nil, lg)
	sess.SetSession(models.Session{
		AccessToken: "acc",
		UserInfo:    models.UserInfo{Role: "owner"},
	})

	srv := NewServer(":0", Sources{Session: sess}, lg)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.LoggedIn || resp.Role != "owner" || resp.Dashboard != "/dashboard" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestStatusListsStaffResources(t *testing.T) {
	lg := log.New(io.Discard, "", 0)
	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"), nil, lg)
	sess.SetSession(models.Session{
		AccessToken: "acc",
		UserInfo:    models.UserInfo{Role: "staff"},
	})

	staff := store.NewStaffStore(nil, nil, lg)
	srv := NewServer(":0", Sources{Session: sess, Staff: staff}, lg)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Resources) != 3 {
		t.Fatalf("staff resources = %d entries, want 3", len(resp.Resources))
	}
	if resp.Resources[0].Name != "orders" {
		t.Fatalf("first staff resource = %q, want orders", resp.Resources[0].Name)
	}
}

func TestHealthz(t *testing.T) {
	lg := log.New(io.Discard, "", 0)
	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"), nil, lg)
	srv := NewServer(":0", Sources{Session: sess}, lg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
}
