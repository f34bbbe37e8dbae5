package indicators

import (
	"strings"
	"testing"
	"time"
)

const testCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//weekcal//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"DTSTART:20260105T090000Z\r\n" +
	"DTEND:20260105T093000Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=4\r\n" +
	"EXDATE:20260112T090000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:trip@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20260220\r\n" +
	"DTEND;VALUE=DATE:20260223\r\n" +
	"COLOR:purple\r\n" +
	"SUMMARY:Trip\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:late@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"DTSTART:20260301T230000Z\r\n" +
	"DTEND:20260302T010000Z\r\n" +
	"SUMMARY:Late call\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseICS(t *testing.T) {
	set, err := ParseICS(strings.NewReader(testCalendar), Options{
		Location: time.UTC,
		From:     day(2025, time.December, 1),
		To:       day(2026, time.December, 31),
		Color:    "green",
	})
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}

	tests := []struct {
		name  string
		date  time.Time
		want  Kind
		color string
	}{
		{"first standup", day(2026, time.January, 5), One, "green"},
		{"excluded standup", day(2026, time.January, 12), None, ""},
		{"third standup", day(2026, time.January, 19), One, "green"},
		{"fourth standup", day(2026, time.January, 26), One, "green"},
		{"after count", day(2026, time.February, 2), None, ""},
		{"trip start", day(2026, time.February, 20), One, "purple"},
		{"trip middle", day(2026, time.February, 21), One, "purple"},
		{"trip last", day(2026, time.February, 22), One, "purple"},
		{"trip end exclusive", day(2026, time.February, 23), None, ""},
		{"late call start", day(2026, time.March, 1), One, "green"},
		{"late call spill", day(2026, time.March, 2), One, "green"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := set.Lookup(tt.date)
			if got.Kind() != tt.want {
				t.Fatalf("%s: kind %v want %v (%+v)", Key(tt.date), got.Kind(), tt.want, got)
			}
			if tt.color != "" && got.Colors[0] != tt.color {
				t.Fatalf("%s: color %q want %q", Key(tt.date), got.Colors[0], tt.color)
			}
		})
	}
}

func TestParseICSUsesDisplayLocation(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*60*60)
	set, err := ParseICS(strings.NewReader(testCalendar), Options{
		Location: shanghai,
		From:     day(2025, time.December, 1),
		To:       day(2026, time.December, 31),
	})
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}
	// 23:00Z to 01:00Z is 07:00 to 09:00 on March 2 in UTC+8.
	if set.Lookup(time.Date(2026, time.March, 1, 0, 0, 0, 0, shanghai)).Kind() != None {
		t.Fatalf("late call should not touch March 1 in UTC+8")
	}
	if set.Lookup(time.Date(2026, time.March, 2, 0, 0, 0, 0, shanghai)).Kind() != One {
		t.Fatalf("late call should mark March 2 in UTC+8")
	}
}

func TestParseICSRecurrenceOverride(t *testing.T) {
	cal := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//weekcal//test//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:gym@example.com\r\n" +
		"DTSTAMP:20260101T000000Z\r\n" +
		"DTSTART:20260106T180000Z\r\n" +
		"DTEND:20260106T190000Z\r\n" +
		"RRULE:FREQ=WEEKLY;COUNT=3\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:gym@example.com\r\n" +
		"DTSTAMP:20260101T000000Z\r\n" +
		"RECURRENCE-ID:20260113T180000Z\r\n" +
		"DTSTART:20260114T180000Z\r\n" +
		"DTEND:20260114T190000Z\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
	set, err := ParseICS(strings.NewReader(cal), Options{
		Location: time.UTC,
		From:     day(2026, time.January, 1),
		To:       day(2026, time.February, 1),
	})
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}
	if set.Lookup(day(2026, time.January, 13)).Kind() != None {
		t.Fatalf("moved instance should leave its original day empty")
	}
	for _, d := range []int{6, 14, 20} {
		if set.Lookup(day(2026, time.January, d)).Kind() != One {
			t.Fatalf("expected a dot on January %d", d)
		}
	}
}

func TestParseICSInvalid(t *testing.T) {
	if _, err := ParseICS(strings.NewReader("not a calendar"), Options{}); err == nil {
		t.Fatalf("expected error for invalid calendar")
	}
}
