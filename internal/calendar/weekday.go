package calendar

import (
	"time"

	"golang.org/x/text/language"
)

// WeekdayLabeler returns seven short weekday labels for locale, Sunday first.
type WeekdayLabeler func(locale language.Tag) []string

// EnglishWeekdays is the fallback label set.
var EnglishWeekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var weekdayTables = []struct {
	tag    language.Tag
	labels []string
}{
	{language.English, EnglishWeekdays},
	{language.Chinese, []string{"日", "一", "二", "三", "四", "五", "六"}},
	{language.Japanese, []string{"日", "月", "火", "水", "木", "金", "土"}},
	{language.Korean, []string{"일", "월", "화", "수", "목", "금", "토"}},
	{language.German, []string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}},
	{language.French, []string{"dim", "lun", "mar", "mer", "jeu", "ven", "sam"}},
	{language.Spanish, []string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}},
	{language.Portuguese, []string{"dom", "seg", "ter", "qua", "qui", "sex", "sáb"}},
}

var weekdayMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(weekdayTables))
	for i, table := range weekdayTables {
		tags[i] = table.tag
	}
	return language.NewMatcher(tags)
}()

// DefaultWeekdayLabeler matches locale against the built-in label tables.
func DefaultWeekdayLabeler(locale language.Tag) []string {
	_, idx, conf := weekdayMatcher.Match(locale)
	if conf == language.No || idx < 0 || idx >= len(weekdayTables) {
		return append([]string(nil), EnglishWeekdays...)
	}
	return append([]string(nil), weekdayTables[idx].labels...)
}

// HeaderCell is one column of the weekday header.
type HeaderCell struct {
	Label    string
	Selected bool
}

// HeaderRow is the weekday header, index 0 being the first day of the week.
type HeaderRow []HeaderCell

// SelectedIndex returns the selected column or -1.
func (h HeaderRow) SelectedIndex() int {
	for i, cell := range h {
		if cell.Selected {
			return i
		}
	}
	return -1
}

// WeekdayHeaderRow rotates the labels so that index 0 is the configured first
// day and marks the column of selected, if any. A nil labeler, or one that
// does not return seven labels, falls back to EnglishWeekdays.
func WeekdayHeaderRow(cfg Config, labeler WeekdayLabeler, selected *time.Time) HeaderRow {
	var labels []string
	if labeler != nil {
		labels = labeler(cfg.Locale())
	}
	if len(labels) != DaysPerWeek {
		labels = EnglishWeekdays
	}

	first := cfg.headerFirstDay()
	selectedIdx := -1
	if selected != nil {
		selectedIdx = (weekdayNumber(cfg.civilDay(*selected)) - first + DaysPerWeek) % DaysPerWeek
	}

	row := make(HeaderRow, DaysPerWeek)
	for i := range row {
		row[i] = HeaderCell{
			Label:    labels[(first-1+i)%DaysPerWeek],
			Selected: i == selectedIdx,
		}
	}
	return row
}
