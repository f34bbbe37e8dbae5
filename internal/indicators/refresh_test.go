package indicators

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleHolidays = `[
  {"year": "2025", "holiday": {"10-01": {"holiday": true, "name": "国庆节", "wage": 3, "date": "2025-10-01"}}},
  {"year": "2026", "holiday": {"01-01": {"holiday": true, "name": "元旦", "wage": 3, "date": "2026-01-01"}}},
  {"year": "bad", "holiday": {}}
]`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshHolidays(t *testing.T) {
	srv := serve(t, http.StatusOK, sampleHolidays)
	dest := filepath.Join(t.TempDir(), "weekcal", "holidays.json")

	summary, err := RefreshHolidays(context.Background(), srv.Client(), srv.URL, dest, 0, nil)
	if err != nil {
		t.Fatalf("RefreshHolidays failed: %v", err)
	}
	if summary.MinYear != 2025 || summary.MaxYear != 2026 || summary.Years != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Path != dest || summary.Size != int64(len(sampleHolidays)) {
		t.Fatalf("unexpected file info %+v", summary)
	}

	set, err := LoadFile(dest, Options{})
	if err != nil {
		t.Fatalf("refreshed file should load: %v", err)
	}
	if set.Lookup(time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)).Kind() != One {
		t.Fatalf("expected holiday dot from refreshed file")
	}
}

func TestRefreshHolidaysKeepsOldCacheOnFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "holidays.json")
	if err := os.WriteFile(dest, []byte(sampleHolidays), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"not json", http.StatusOK, "<html></html>"},
		{"no years", http.StatusOK, "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			if _, err := RefreshHolidays(context.Background(), srv.Client(), srv.URL, dest, 0, nil); err == nil {
				t.Fatalf("expected error")
			}
			data, err := os.ReadFile(dest)
			if err != nil || string(data) != sampleHolidays {
				t.Fatalf("previous cache should be untouched")
			}
		})
	}

	srv := serve(t, http.StatusOK, "[]")
	_, err := RefreshHolidays(context.Background(), srv.Client(), srv.URL, dest, 0, nil)
	if !errors.Is(err, ErrEmptyHolidayData) {
		t.Fatalf("expected ErrEmptyHolidayData, got %v", err)
	}
}

func TestRefreshHolidaysHonoursContext(t *testing.T) {
	srv := serve(t, http.StatusOK, sampleHolidays)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dest := filepath.Join(t.TempDir(), "holidays.json")
	if _, err := RefreshHolidays(ctx, srv.Client(), srv.URL, dest, 0, nil); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("no file should be written, stat err %v", err)
	}
}
