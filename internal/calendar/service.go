package calendar

import (
	"fmt"
	"sync"
	"time"

	calendarlib "github.com/Lofanmi/chinese-calendar-golang/calendar"

	"github.com/lululau/weekcal/internal/indicators"
)

// Supported Gregorian year range of the lunar calendar library. Days outside
// it are still laid out, just without lunar metadata.
const (
	MinSupportedYear = 1900
	MaxSupportedYear = 3000
)

// ErrYearOutOfRange indicates the requested year view is unsupported.
var ErrYearOutOfRange = fmt.Errorf("year must be between %d and %d", MinSupportedYear, MaxSupportedYear)

// Day is a window cell decorated for display.
type Day struct {
	Date            time.Time
	InActiveMonth   bool
	LunarDayAlias   string
	LunarMonthAlias string
	SolarTerm       string
	IsToday         bool
	IsSelected      bool
	Indicator       indicators.Indicator
	hasLunarData    bool
}

// SecondaryLabel selects the string that should be rendered beneath the
// Gregorian date. Solar terms take precedence, followed by lunar month names
// whenever it is the first day of a lunar month.
func (d Day) SecondaryLabel() string {
	if d.SolarTerm != "" {
		return d.SolarTerm
	}
	if d.LunarDayAlias == "初一" && d.LunarMonthAlias != "" {
		return d.LunarMonthAlias
	}
	return d.LunarDayAlias
}

// HasLunarData reports whether lunar metadata was successfully calculated.
func (d Day) HasLunarData() bool {
	return d.hasLunarData
}

// View is a window laid out for rendering.
type View struct {
	Unit   Unit
	Policy WeekPolicy
	Offset int
	Year   int
	Month  time.Month
	Title  string
	Header HeaderRow
	Weeks  [][]Day
}

// IndicatorLoader returns the indicators of the days between from and to.
type IndicatorLoader func(from, to time.Time) indicators.Set

// indicatorMarginYears pads every range handed to an IndicatorLoader.
const indicatorMarginYears = 2

// Service materialises window views for a fixed Config.
type Service struct {
	now        func() time.Time
	cfg        Config
	labeler    WeekdayLabeler
	indicators indicators.Set

	mu         sync.Mutex
	load       IndicatorLoader
	loadedFrom time.Time
	loadedTo   time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithNow overrides the clock, which is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithConfig sets the calendar system.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithLabeler overrides the weekday label source.
func WithLabeler(labeler WeekdayLabeler) Option {
	return func(s *Service) {
		s.labeler = labeler
	}
}

// WithIndicators attaches dot indicators.
func WithIndicators(set indicators.Set) Option {
	return func(s *Service) {
		s.indicators = set
	}
}

// WithIndicatorLoader loads indicators on demand. The loader runs on the first
// view and again whenever a view reaches a day outside the range loaded so
// far; its result replaces any set given through WithIndicators.
func WithIndicatorLoader(load IndicatorLoader) Option {
	return func(s *Service) {
		s.load = load
	}
}

// NewService constructs a Service. Without WithConfig it uses a Sunday-first
// calendar in time.Local.
func NewService(opts ...Option) *Service {
	s := &Service{
		now:     time.Now,
		cfg:     NewConfig(1, ""),
		labeler: DefaultWeekdayLabeler,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the calendar system used by the service.
func (s *Service) Config() Config {
	return s.cfg
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.now()
}

// HasIndicators reports whether any dot indicators are loaded.
func (s *Service) HasIndicators() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.indicators) > 0
}

// indicatorsFor returns a set covering first through last, reloading it
// around that span when it falls outside what was loaded before.
func (s *Service) indicatorsFor(first, last time.Time) indicators.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.load == nil {
		return s.indicators
	}
	if !s.loadedFrom.IsZero() && !first.Before(s.loadedFrom) && !last.After(s.loadedTo) {
		return s.indicators
	}
	s.loadedFrom = first.AddDate(-indicatorMarginYears, 0, 0)
	s.loadedTo = last.AddDate(indicatorMarginYears, 0, 0)
	s.indicators = s.load(s.loadedFrom, s.loadedTo)
	return s.indicators
}

// View computes and decorates the window described by req.
func (s *Service) View(req WindowRequest, selected *time.Time) View {
	window := req.Compute(s.cfg)
	now := s.now()
	days := window.Days()
	set := s.indicatorsFor(days[0].Date, days[len(days)-1].Date)

	view := View{
		Unit:   req.Unit,
		Policy: s.cfg.WeekPolicy(),
		Offset: req.Offset,
		Header: WeekdayHeaderRow(s.cfg, s.labeler, selected),
		Weeks:  make([][]Day, len(window.Weeks)),
	}
	for i, week := range window.Weeks {
		view.Weeks[i] = make([]Day, len(week))
		for j, cell := range week {
			view.Weeks[i][j] = s.buildDay(cell, now, selected, set)
		}
	}

	switch req.Unit {
	case UnitMonth:
		first := s.activeMonthStart(req)
		view.Year, view.Month = first.Year(), first.Month()
		view.Title = fmt.Sprintf("%d 年 %d 月", view.Year, int(view.Month))
	default:
		start, end := days[0].Date, days[len(days)-1].Date
		view.Year, view.Month = start.Year(), start.Month()
		view.Title = fmt.Sprintf("%d 年 %d 月 %d 日 – %d 月 %d 日",
			start.Year(), int(start.Month()), start.Day(), int(end.Month()), end.Day())
	}
	return view
}

// Year returns the twelve month views of year.
func (s *Service) Year(year int, selected *time.Time) ([]View, error) {
	if year < MinSupportedYear || year > MaxSupportedYear {
		return nil, ErrYearOutOfRange
	}
	anchor := time.Date(year, time.January, 1, 12, 0, 0, 0, s.cfg.Location())
	views := make([]View, 0, 12)
	for m := 0; m < 12; m++ {
		views = append(views, s.View(WindowRequest{Anchor: anchor, Offset: m, Unit: UnitMonth}, selected))
	}
	return views, nil
}

func (s *Service) activeMonthStart(req WindowRequest) time.Time {
	day := s.cfg.civilDay(req.Anchor)
	year, month := shiftMonth(day.Year(), day.Month(), req.Offset)
	return dayStart(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), s.cfg.zone(req.Anchor))
}

func (s *Service) buildDay(cell DayCell, now time.Time, selected *time.Time, set indicators.Set) Day {
	day := cell.Date
	d := Day{
		Date:          day,
		InActiveMonth: cell.InActiveMonth,
		IsToday:       sameDay(day, s.cfg.StartOfDay(now)),
		IsSelected:    selected != nil && sameDay(day, s.cfg.StartOfDay(*selected)),
		Indicator:     set.Lookup(day),
	}

	if day.Year() < MinSupportedYear || day.Year() > MaxSupportedYear {
		return d
	}

	cal := calendarlib.BySolar(
		int64(day.Year()),
		int64(day.Month()),
		int64(day.Day()),
		12, 0, 0,
	)
	d.LunarDayAlias = cal.Lunar.DayAlias()
	d.LunarMonthAlias = cal.Lunar.MonthAlias()
	d.hasLunarData = true
	if solarterm := cal.Solar.CurrentSolarterm; solarterm != nil {
		if solarterm.IsInDay(&day) {
			d.SolarTerm = solarterm.Alias()
		}
	}
	return d
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
