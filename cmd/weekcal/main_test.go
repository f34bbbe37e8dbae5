package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/lululau/weekcal/internal/calendar"
	"github.com/lululau/weekcal/internal/indicators"
)

func TestParseRequest(t *testing.T) {
	cal := calendar.NewConfig(1, "UTC")
	now := time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		args     []string
		showYear bool
		want     time.Time
		wantYear bool
		wantErr  bool
	}{
		{"today", nil, false, time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC), false, false},
		{"month only", []string{"9"}, false, time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC), false, false},
		{"year only", []string{"1983"}, false, time.Date(1983, time.January, 1, 12, 0, 0, 0, time.UTC), true, false},
		{"year flag with number", []string{"2012"}, true, time.Date(2012, time.January, 1, 12, 0, 0, 0, time.UTC), true, false},
		{"year and month", []string{"2012", "12"}, false, time.Date(2012, time.December, 1, 12, 0, 0, 0, time.UTC), false, false},
		{"bad month", []string{"2012", "13"}, false, time.Time{}, false, true},
		{"not a number", []string{"soon"}, false, time.Time{}, false, true},
		{"year flag with two args", []string{"2012", "1"}, true, time.Time{}, false, true},
		{"too many", []string{"1", "2", "3"}, false, time.Time{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, showYear, err := parseRequest(cal, now, tt.showYear, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !req.Anchor.Equal(tt.want) {
				t.Fatalf("anchor = %v want %v", req.Anchor, tt.want)
			}
			if showYear != tt.wantYear {
				t.Fatalf("showYear = %v want %v", showYear, tt.wantYear)
			}
			if req.Unit != calendar.UnitMonth || req.Offset != 0 {
				t.Fatalf("unexpected request %+v", req)
			}
		})
	}
}

func TestParseSelected(t *testing.T) {
	cal := calendar.NewConfig(1, "Asia/Shanghai")
	if got, err := parseSelected(cal, ""); err != nil || got != nil {
		t.Fatalf("empty value should select nothing, got %v %v", got, err)
	}
	got, err := parseSelected(cal, "2026-02-17")
	if err != nil {
		t.Fatalf("parseSelected failed: %v", err)
	}
	if got.Location().String() != "Asia/Shanghai" || got.Day() != 17 {
		t.Fatalf("unexpected selection %v", got)
	}
	if _, err := parseSelected(cal, "17/02/2026"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestStringListAccumulates(t *testing.T) {
	var list stringList
	_ = list.Set("a.yaml")
	_ = list.Set("b.ics")
	if list.String() != "a.yaml,b.ics" {
		t.Fatalf("unexpected list %q", list.String())
	}
}

const weeklyCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//weekcal//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:review@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"DTSTART:20260105T090000Z\r\n" +
	"DTEND:20260105T100000Z\r\n" +
	"RRULE:FREQ=WEEKLY\r\n" +
	"COLOR:red\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

const cachedHolidays = `[{"year": "2026", "holiday": {"01-01": {"holiday": true, "name": "元旦", "wage": 3, "date": "2026-01-01"}}}]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestIndicatorSourceMergesCacheAndFiles(t *testing.T) {
	cacheDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheDir)
	cachePath, err := indicators.CachePath()
	if err != nil || !strings.HasPrefix(cachePath, cacheDir) {
		t.Skipf("user cache directory does not follow XDG_CACHE_HOME: %s %v", cachePath, err)
	}
	writeFile(t, cachePath, cachedHolidays)
	ics := filepath.Join(t.TempDir(), "review.ics")
	writeFile(t, ics, weeklyCalendar)
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	cal := calendar.NewConfig(1, "UTC")
	now := time.Date(2026, time.January, 21, 12, 0, 0, 0, time.UTC)
	source := newIndicatorSource([]string{ics, missing}, cal, now)
	if !source.HasHolidays() {
		t.Fatalf("fresh holiday cache should be loaded")
	}
	svc := calendar.NewService(
		calendar.WithConfig(cal),
		calendar.WithNow(func() time.Time { return now }),
		calendar.WithIndicatorLoader(source.Load),
	)

	tests := []struct {
		name   string
		offset int
		index  int
		color  string
	}{
		// Week of 2025-12-28: Thursday is New Year's Day.
		{"cached holiday", -3, 4, indicators.HolidayColor},
		// Week of 2026-01-04: the first Monday of the series.
		{"first occurrence", -2, 1, "red"},
		// Week of 2029-11-18, beyond the range loaded for the first view.
		{"far occurrence", 200, 1, "red"},
		{"far past has nothing", -200, -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := svc.View(calendar.WindowRequest{Anchor: now, Offset: tt.offset, Unit: calendar.UnitWeek}, nil)
			for i, day := range view.Weeks[0] {
				got := day.Indicator
				if i != tt.index {
					if got.Kind() != indicators.None {
						t.Fatalf("%s: unexpected dot %+v", day.Date.Format("2006-01-02"), got)
					}
					continue
				}
				if got.Kind() != indicators.One || got.Colors[0] != tt.color {
					t.Fatalf("%s: got %+v want %s", day.Date.Format("2006-01-02"), got, tt.color)
				}
			}
		})
	}
	if !source.failed[missing] || len(source.failed) != 1 {
		t.Fatalf("missing file should be recorded once, got %v", source.failed)
	}
}
