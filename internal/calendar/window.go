package calendar

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// DaysPerWeek is the fixed width of every window row.
const DaysPerWeek = 7

// WeekPolicy decides which days of a week window are active.
type WeekPolicy int

const (
	// PolicyAll marks all seven days of a week window active.
	PolicyAll WeekPolicy = iota
	// PolicyAnchorMonth marks a day inactive (rendered blank) when its month
	// differs from the month of the shifted anchor.
	PolicyAnchorMonth
)

func (p WeekPolicy) String() string {
	switch p {
	case PolicyAnchorMonth:
		return "anchor-month"
	default:
		return "all"
	}
}

// ParseWeekPolicy accepts "all" and "anchor-month".
func ParseWeekPolicy(value string) (WeekPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all", "none":
		return PolicyAll, nil
	case "anchor-month", "month", "filter":
		return PolicyAnchorMonth, nil
	}
	return PolicyAll, fmt.Errorf("unknown week policy %q", value)
}

// Config is the immutable calendar system the windows are computed in.
// The zero value is usable and degraded.
type Config struct {
	firstDay int
	timeZone string
	loc      *time.Location
	locale   language.Tag
	policy   WeekPolicy
}

// ConfigOption customises a Config during construction.
type ConfigOption func(*Config)

// WithLocale sets the locale used for weekday labels.
func WithLocale(tag language.Tag) ConfigOption {
	return func(c *Config) {
		c.locale = tag
	}
}

// WithWeekPolicy selects how week windows treat days outside the anchor month.
func WithWeekPolicy(p WeekPolicy) ConfigOption {
	return func(c *Config) {
		c.policy = p
	}
}

// NewConfig builds a Config. firstDay uses 1 = Sunday through 7 = Saturday.
// An empty timeZone means time.Local. A time zone that cannot be loaded or a
// firstDay outside 1..7 does not fail; the config is degraded instead and
// every window falls back to start-of-day anchors.
func NewConfig(firstDay int, timeZone string, opts ...ConfigOption) Config {
	c := Config{
		firstDay: firstDay,
		timeZone: timeZone,
		locale:   language.English,
	}
	if timeZone == "" {
		c.loc = time.Local
	} else if loc, err := time.LoadLocation(timeZone); err == nil {
		c.loc = loc
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// FirstDayOfWeek returns the configured first weekday (1 = Sunday).
func (c Config) FirstDayOfWeek() int { return c.firstDay }

// TimeZone returns the configured time zone identifier.
func (c Config) TimeZone() string { return c.timeZone }

// Locale returns the locale used for weekday labels.
func (c Config) Locale() language.Tag { return c.locale }

// WeekPolicy returns the active week filtering policy.
func (c Config) WeekPolicy() WeekPolicy { return c.policy }

// Degraded reports whether week alignment is unavailable.
func (c Config) Degraded() bool {
	return c.loc == nil || c.firstDay < 1 || c.firstDay > DaysPerWeek
}

// Location returns the configured location, or time.Local when the time zone
// could not be loaded.
func (c Config) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// headerFirstDay is the rotation used by the weekday header. Sunday is used
// when the configured value is out of range.
func (c Config) headerFirstDay() int {
	if c.firstDay < 1 || c.firstDay > DaysPerWeek {
		return 1
	}
	return c.firstDay
}

// StartOfDay returns the first instant of t's day in the configured zone.
// That is midnight, or the end of the DST gap when the zone skips midnight.
// When the zone is unavailable t keeps its own location.
func (c Config) StartOfDay(t time.Time) time.Time {
	return dayStart(c.civilDay(t), c.zone(t))
}

// StartOfWeek returns the first day of the week containing t. A degraded
// config yields t's own start of day.
func (c Config) StartOfWeek(t time.Time) time.Time {
	return dayStart(c.civilWeekStart(c.civilDay(t)), c.zone(t))
}

// AddDays returns the start of the day n calendar days after t's day.
func (c Config) AddDays(t time.Time, n int) time.Time {
	return dayStart(c.civilDay(t).AddDate(0, 0, n), c.zone(t))
}

// Date returns the first instant of the given calendar date in the
// configured zone, or in time.Local when the zone is unavailable.
func (c Config) Date(year int, month time.Month, day int) time.Time {
	loc := c.loc
	if loc == nil {
		loc = time.Local
	}
	return dayStart(time.Date(year, month, day, 0, 0, 0, 0, time.UTC), loc)
}

// zone is the location window dates are expressed in.
func (c Config) zone(t time.Time) *time.Location {
	if c.loc == nil {
		return t.Location()
	}
	return c.loc
}

// civilDay returns t's calendar date in the configured zone as midnight UTC.
// Times already carrying a location of the same name keep their wall date,
// which keeps a day the zone skipped entirely addressable.
func (c Config) civilDay(t time.Time) time.Time {
	if c.loc != nil && t.Location().String() != c.loc.String() {
		t = t.In(c.loc)
	}
	return civil(t)
}

// civilWeekStart steps a civil date back to the configured first weekday.
func (c Config) civilWeekStart(day time.Time) time.Time {
	if c.Degraded() {
		return day
	}
	back := (weekdayNumber(day) - c.firstDay + DaysPerWeek) % DaysPerWeek
	return day.AddDate(0, 0, -back)
}

// Unit is the navigation step of a window.
type Unit int

const (
	UnitWeek Unit = iota
	UnitMonth
)

func (u Unit) String() string {
	if u == UnitMonth {
		return "month"
	}
	return "week"
}

// DayCell is a single day of a window.
type DayCell struct {
	Date          time.Time
	InActiveMonth bool
}

// WindowRequest describes the window Offset units away from the week or
// month containing Anchor.
type WindowRequest struct {
	Anchor time.Time
	Offset int
	Unit   Unit
}

// Next moves the request one unit forward.
func (r WindowRequest) Next() WindowRequest {
	r.Offset++
	return r
}

// Previous moves the request one unit back.
func (r WindowRequest) Previous() WindowRequest {
	r.Offset--
	return r
}

// Window is a computed request. Week windows have exactly one row.
type Window struct {
	Unit  Unit
	Weeks [][]DayCell
}

// Days flattens the window rows.
func (w Window) Days() []DayCell {
	days := make([]DayCell, 0, len(w.Weeks)*DaysPerWeek)
	for _, week := range w.Weeks {
		days = append(days, week...)
	}
	return days
}

// Compute evaluates the request against cfg.
func (r WindowRequest) Compute(cfg Config) Window {
	if r.Unit == UnitMonth {
		return Window{Unit: UnitMonth, Weeks: MonthWindow(cfg, r.Anchor, r.Offset)}
	}
	return Window{Unit: UnitWeek, Weeks: [][]DayCell{WeekWindow(cfg, r.Anchor, r.Offset)}}
}

// WeekWindow returns the seven days of the week weekOffset weeks away from
// the week containing anchor.
func WeekWindow(cfg Config, anchor time.Time, weekOffset int) []DayCell {
	loc := cfg.zone(anchor)
	shifted := cfg.civilDay(anchor).AddDate(0, 0, weekOffset*DaysPerWeek)
	start := cfg.civilWeekStart(shifted)

	cells := make([]DayCell, DaysPerWeek)
	for i := range cells {
		day := start.AddDate(0, 0, i)
		active := true
		if cfg.policy == PolicyAnchorMonth {
			active = sameMonth(day, shifted)
		}
		cells[i] = DayCell{Date: dayStart(day, loc), InActiveMonth: active}
	}
	return cells
}

// MonthWindow returns every calendar week intersecting the month monthOffset
// months away from anchor's month. Days of adjacent months pad the first and
// last rows and are marked inactive.
func MonthWindow(cfg Config, anchor time.Time, monthOffset int) [][]DayCell {
	loc := cfg.zone(anchor)
	day := cfg.civilDay(anchor)
	year, month := shiftMonth(day.Year(), day.Month(), monthOffset)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := first.AddDate(0, 0, daysIn(year, month))

	weeks := make([][]DayCell, 0, 6)
	for cursor := cfg.civilWeekStart(first); cursor.Before(end); {
		week := make([]DayCell, DaysPerWeek)
		for i := range week {
			week[i] = DayCell{Date: dayStart(cursor, loc), InActiveMonth: sameMonth(cursor, first)}
			cursor = cursor.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// MonthOffsetBetween counts the calendar months from reference to target.
func MonthOffsetBetween(cfg Config, reference, target time.Time) int {
	r := cfg.civilDay(reference)
	t := cfg.civilDay(target)
	return (t.Year()-r.Year())*12 + int(t.Month()) - int(r.Month())
}

// WeekOffsetBetween counts whole weeks from the week containing anchor to the
// week containing target.
func WeekOffsetBetween(cfg Config, anchor, target time.Time) int {
	from := cfg.civilWeekStart(cfg.civilDay(anchor))
	to := cfg.civilWeekStart(cfg.civilDay(target))
	return floorDiv(civilDaysBetween(from, to), DaysPerWeek)
}

// weekdayNumber maps time.Weekday to 1 = Sunday ... 7 = Saturday.
func weekdayNumber(t time.Time) int {
	return int(t.Weekday()) + 1
}

// civil returns t's wall date as midnight UTC, where day arithmetic is exact.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayStart returns the first instant of the civil day in loc. If midnight
// falls in a DST gap the day starts at the transition. If the zone skipped the
// whole day, the transition instant is returned in a fixed zone at the offset
// in force before it, so that it still reads as that date.
func dayStart(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if civil(t).Equal(day) {
		return t
	}
	start, end := t.ZoneBounds()
	transition := start
	if civil(t).Before(day) {
		transition = end
	}
	if transition.IsZero() {
		return t
	}
	if civil(transition).Equal(day) {
		return transition
	}
	_, offset := transition.Add(-time.Nanosecond).Zone()
	return transition.In(time.FixedZone(loc.String(), offset))
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func shiftMonth(year int, month time.Month, offset int) (int, time.Month) {
	total := year*12 + int(month) - 1 + offset
	return floorDiv(total, 12), time.Month(total - floorDiv(total, 12)*12 + 1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// civilDaysBetween ignores the locations of a and b and counts calendar days.
func civilDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
