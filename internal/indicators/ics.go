package indicators

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

const (
	maxOccurrencesPerEvent = 5000
	maxDaysPerOccurrence   = 366
)

// event is the part of a VEVENT needed to place dots.
type event struct {
	uid      string
	start    time.Time
	end      time.Time
	allDay   bool
	rrule    string
	exDates  []time.Time
	color    string
	override *time.Time
}

// ParseICS marks every day covered by an event in the calendar. Recurring
// events are expanded between opts.From and opts.To; EXDATE entries are
// skipped. Events that cannot be read are logged and ignored.
func ParseICS(r io.Reader, opts Options) (Set, error) {
	opts = opts.normalized()

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, err
	}

	events := make([]event, 0)
	moved := make(map[string][]time.Time)
	for _, ve := range cal.Events() {
		ev, err := readEvent(ve, opts)
		if err != nil {
			slog.Warn("skipping ics event", slog.Any("error", err))
			continue
		}
		if ev.override != nil {
			moved[ev.uid] = append(moved[ev.uid], *ev.override)
		}
		events = append(events, ev)
	}

	set := make(Set)
	for _, ev := range events {
		if ev.override != nil {
			markEvent(set, ev, ev.start, opts)
			continue
		}
		// Instances replaced by an override are drawn on the override's day.
		ev.exDates = append(ev.exDates, moved[ev.uid]...)
		for _, start := range occurrences(ev, opts) {
			markEvent(set, ev, start, opts)
		}
	}
	return set, nil
}

func readEvent(ve *ical.VEvent, opts Options) (event, error) {
	ev := event{color: opts.Color}
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.uid = p.Value
	}
	if p := ve.GetProperty("COLOR"); p != nil && strings.TrimSpace(p.Value) != "" {
		ev.color = strings.TrimSpace(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, fmt.Errorf("event %q has no DTSTART", ev.uid)
	}
	ev.allDay = isDateValue(dtStart)

	if ev.allDay {
		start, err := parseICSDate(dtStart.Value, time.UTC)
		if err != nil {
			return ev, fmt.Errorf("event %q: %w", ev.uid, err)
		}
		ev.start = start
		ev.end = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := parseICSDate(dtEnd.Value, time.UTC); err == nil && end.After(start) {
				ev.end = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return ev, fmt.Errorf("event %q: %w", ev.uid, err)
		}
		ev.start = start
		ev.end = start
		if end, err := ve.GetEndAt(); err == nil && end.After(start) {
			ev.end = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rrule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, ev.start.Location()); err == nil {
				ev.exDates = append(ev.exDates, t)
			}
		}
	}
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value, ev.start.Location()); err == nil {
			ev.override = &t
		}
	}
	return ev, nil
}

// occurrences returns the start of every instance of ev inside the range.
func occurrences(ev event, opts Options) []time.Time {
	if ev.rrule == "" {
		if ev.end.Before(opts.From) || ev.start.After(opts.To) {
			return nil
		}
		return []time.Time{ev.start}
	}

	rule, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		slog.Warn("skipping ics rrule", slog.String("uid", ev.uid), slog.String("rrule", ev.rrule), slog.Any("error", err))
		return []time.Time{ev.start}
	}
	rule.DTStart(ev.start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	duration := ev.end.Sub(ev.start)
	from := opts.From.In(ev.start.Location()).Add(-duration)
	to := opts.To.In(ev.start.Location())
	starts := set.Between(from, to, true)
	if len(starts) > maxOccurrencesPerEvent {
		slog.Warn("truncated ics occurrences", slog.String("uid", ev.uid), slog.Int("cap", maxOccurrencesPerEvent))
		starts = starts[:maxOccurrencesPerEvent]
	}
	return starts
}

// markEvent adds a dot to each day the instance starting at start covers.
// All-day instances are floating dates held in UTC and cover [start, end);
// timed instances cover every day they touch in opts.Location.
func markEvent(set Set, ev event, start time.Time, opts Options) {
	end := start.Add(ev.end.Sub(ev.start))
	if !ev.allDay {
		start = start.In(opts.Location)
		end = end.In(opts.Location)
		if end.After(start) {
			end = end.Add(-time.Nanosecond)
		}
	} else {
		end = end.AddDate(0, 0, -1)
	}

	day, last := civilDate(start), civilDate(end)
	for i := 0; i < maxDaysPerOccurrence && !day.After(last); i++ {
		set.Add(day, ev.color)
		day = day.AddDate(0, 0, 1)
	}
}

// civilDate keeps t's wall date as midnight UTC so that stepping by days
// never lands in a DST gap.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func parseICSDate(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if len(v) > 8 {
		v = v[:8]
	}
	return time.ParseInLocation("20060102", v, loc)
}

// parseICSTime handles the basic DATE, local DATE-TIME and UTC forms.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, fmt.Errorf("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
