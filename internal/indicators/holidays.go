package indicators

import (
	"encoding/json"
	"fmt"
)

// Colors used for holiday data, blue for days off and orange for make-up
// workdays (调休).
const (
	HolidayColor = "#3B82F6"
	WorkdayColor = "#F97316"
)

// HolidayEntry is a single day of the holiday JSON data.
type HolidayEntry struct {
	Holiday DayOff `json:"holiday"`
	Name    string `json:"name"`
	Wage    int    `json:"wage"`
	Date    string `json:"date"`
	After   *bool  `json:"after,omitempty"`
	Target  string `json:"target,omitempty"`
	Rest    *int   `json:"rest,omitempty"`
}

// DayOff marks a day off. Some published files put the holiday name in its
// place, so any non-empty string counts too; other values mean a workday.
type DayOff bool

func (d *DayOff) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case bool:
		*d = DayOff(v)
	case string:
		*d = v != ""
	default:
		*d = false
	}
	return nil
}

// HolidayData is the holidays JSON file: one entry per year, each mapping
// "MM-DD" to a HolidayEntry.
type HolidayData []struct {
	Year    string                   `json:"year"`
	Holiday map[string]*HolidayEntry `json:"holiday"`
}

// Set converts the holiday data into single-dot indicators.
func (d HolidayData) Set() (Set, error) {
	set := make(Set)
	for _, year := range d {
		for monthDay, entry := range year.Holiday {
			if entry == nil {
				continue
			}
			key := year.Year + "-" + monthDay
			if _, err := parseDateKey(key); err != nil {
				return nil, fmt.Errorf("holiday %q: %w", key, err)
			}
			color := WorkdayColor
			if entry.Holiday {
				color = HolidayColor
			}
			set.addKey(key, color)
		}
	}
	return set, nil
}
