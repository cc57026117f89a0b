package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"media-helper/internal/database"
	"media-helper/internal/delivery"
	"media-helper/internal/mediastore"
	"media-helper/internal/mediatypes"
	"media-helper/internal/workers"
)

// pingFailStore wraps a database and fails every ping.
type pingFailStore struct {
	*database.Database
}

func (pingFailStore) Ping(context.Context) error { return errors.New("disk unplugged") }

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "media.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seed(t *testing.T, db *database.Database, category mediatypes.Category, names ...string) {
	t.Helper()
	for i, name := range names {
		err := db.Upsert(context.Background(), category, database.Record{
			Path:    filepath.Join("/media", name),
			Size:    int64((i + 1) * 100),
			ModTime: time.Unix(int64(1700000000+i), 0),
		})
		if err != nil {
			t.Fatalf("Upsert %s: %v", name, err)
		}
	}
}

func newRouter(t *testing.T, store Store) *mux.Router {
	t.Helper()
	pool := workers.NewPool(workers.PoolConfig{MaxWorkers: 2})
	loop := delivery.NewLoop("handlers-test")
	t.Cleanup(func() {
		pool.Close()
		loop.Close()
	})

	r := mux.NewRouter()
	New(store, Config{Pool: pool, Poster: loop, ScanTimeout: 5 * time.Second}).Register(r)
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeScan(t *testing.T, rec *httptest.ResponseRecorder) ScanResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp ScanResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func names(items []mediastore.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.DisplayName
	}
	return out
}

func TestScanCategory(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, mediatypes.CategoryAudio, "b.mp3", "A.flac", "c.ogg")
	seed(t, db, mediatypes.CategoryImage, "photo.jpg")
	r := newRouter(t, db)

	resp := decodeScan(t, serve(r, http.MethodGet, "/api/scan/audio"))
	if resp.Category != mediatypes.CategoryAudio || resp.Total != 3 {
		t.Fatalf("got category %s total %d", resp.Category, resp.Total)
	}
	if got := strings.Join(names(resp.Items), ","); got != "A.flac,b.mp3,c.ogg" {
		t.Errorf("default order = %s", got)
	}
	if !strings.HasPrefix(resp.Items[0].URI, "content://media/external/audio/media/") {
		t.Errorf("unexpected URI %q", resp.Items[0].URI)
	}

	resp = decodeScan(t, serve(r, http.MethodGet, "/api/scan/images"))
	if resp.Total != 1 || resp.Items[0].DisplayName != "photo.jpg" {
		t.Errorf("image scan = %+v", resp)
	}
}

func TestScanCategoryParameters(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, mediatypes.CategoryVideo, "one.mp4", "two.mkv", "three_100%.webm")
	r := newRouter(t, db)

	tests := []struct {
		name  string
		query string
		total int
		want  string
	}{
		{"sort size desc", "?sort=size&order=desc", 3, "three_100%.webm,two.mkv,one.mp4"},
		{"filter", "?q=o", 2, "one.mp4,two.mkv"},
		{"filter escapes wildcards", "?q=" + "100%25", 1, "three_100%.webm"},
		{"limit keeps total", "?sort=modified&limit=1", 3, "one.mp4"},
		{"no match", "?q=zzz", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := decodeScan(t, serve(r, http.MethodGet, "/api/scan/video"+tt.query))
			if resp.Total != tt.total {
				t.Errorf("total = %d, want %d", resp.Total, tt.total)
			}
			if got := strings.Join(names(resp.Items), ","); got != tt.want {
				t.Errorf("items = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestScanCategoryRejectsBadInput(t *testing.T) {
	r := newRouter(t, setupTestDB(t))

	tests := []struct {
		target string
		code   int
	}{
		{"/api/scan/documents", http.StatusNotFound},
		{"/api/scan/audio?sort=rowid", http.StatusBadRequest},
		{"/api/scan/audio?order=sideways", http.StatusBadRequest},
		{"/api/scan/audio?limit=-1", http.StatusBadRequest},
		{"/api/scan/audio?limit=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(r, http.MethodGet, tt.target)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	db := setupTestDB(t)
	db.UpdateStats(database.IndexStats{TotalAudio: 4, LastIndexed: time.Now()})
	r := newRouter(t, db)

	rec := serve(r, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != statusHealthy || !resp.Ready {
		t.Errorf("status = %s ready = %v", resp.Status, resp.Ready)
	}
	if resp.TotalAudio != 4 || resp.LastIndexed == "" {
		t.Errorf("stats not reported: %+v", resp)
	}

	if rec := serve(r, http.MethodHead, "/healthz"); rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD: status %d, body %d bytes", rec.Code, rec.Body.Len())
	}
}

func TestHealthCheckDegraded(t *testing.T) {
	r := newRouter(t, pingFailStore{setupTestDB(t)})

	rec := serve(r, http.MethodGet, "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != statusDegraded || resp.Error == "" {
		t.Errorf("got %+v", resp)
	}

	if rec := serve(r, http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503", rec.Code)
	}
	if rec := serve(r, http.MethodGet, "/livez"); rec.Code != http.StatusOK {
		t.Errorf("livez = %d, want 200", rec.Code)
	}
}

func TestProbesAndVersion(t *testing.T) {
	r := newRouter(t, setupTestDB(t))

	for _, path := range []string{"/livez", "/readyz", "/version"} {
		rec := serve(r, http.MethodGet, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s = %d", path, rec.Code)
		}
	}

	var info map[string]string
	if err := json.NewDecoder(serve(r, http.MethodGet, "/version").Body).Decode(&info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info["version"] == "" || info["goVersion"] == "" {
		t.Errorf("version body = %v", info)
	}
}
