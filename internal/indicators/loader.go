package indicators

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFile is returned for files whose extension has no parser.
var ErrUnsupportedFile = errors.New("unsupported indicator file")

// Options controls how dated sources are interpreted.
type Options struct {
	// Location is the zone timed events are converted into before being
	// keyed by day. Nil means time.Local.
	Location *time.Location
	// From and To bound recurring event expansion. A zero To means
	// defaultHorizon after From.
	From time.Time
	To   time.Time
	// Color is used for ICS events without a COLOR property.
	Color string
}

const (
	defaultColor   = "green"
	defaultHorizon = 2 * 365 * 24 * time.Hour
)

func (o Options) normalized() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Color == "" {
		o.Color = defaultColor
	}
	if o.From.IsZero() {
		o.From = time.Now().Add(-defaultHorizon / 2)
	}
	if o.To.IsZero() || o.To.Before(o.From) {
		o.To = o.From.Add(defaultHorizon)
	}
	return o
}

// LoadFile reads an indicator file, picking the parser by extension:
// .yaml/.yml and .json hold a date to colors map (.json may also be holiday
// data), .ics holds calendar events.
func LoadFile(path string, opts Options) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read indicator file: %w", err)
	}

	var set Set
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		set, err = ParseYAML(data)
	case ".json":
		set, err = ParseJSON(data)
	case ".ics", ".ical":
		set, err = ParseICS(bytes.NewReader(data), opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return set, nil
}

// ParseYAML parses a mapping of "YYYY-MM-DD" to a color or a list of colors.
func ParseYAML(data []byte) (Set, error) {
	var raw map[string]colorList
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return fromColorMap(raw)
}

// ParseJSON parses either the holiday array format or a date to colors map.
func ParseJSON(data []byte) (Set, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var holidays HolidayData
		if err := json.Unmarshal(trimmed, &holidays); err != nil {
			return nil, err
		}
		return holidays.Set()
	}
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	colors := make(map[string]colorList, len(raw))
	for key, list := range raw {
		colors[key] = list
	}
	return fromColorMap(colors)
}

// colorList accepts a scalar color or a sequence of colors.
type colorList []string

func (c *colorList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*c = colorList{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*c = list
	return nil
}

func fromColorMap(raw map[string]colorList) (Set, error) {
	set := make(Set, len(raw))
	for key, colors := range raw {
		day, err := parseDateKey(key)
		if err != nil {
			return nil, err
		}
		for _, color := range colors {
			if color = strings.TrimSpace(color); color != "" {
				set.addKey(Key(day), color)
			}
		}
	}
	return set, nil
}

func parseDateKey(key string) (time.Time, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", key)
	}
	return day, nil
}

// CachePath returns the holiday cache file under the user cache directory.
func CachePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "weekcal", "holidays.json"), nil
}

// IsCacheValid reports whether the cache file exists and was written within
// the last six months.
func IsCacheValid(cachePath string, now time.Time) (bool, error) {
	info, err := os.Stat(cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.ModTime().After(now.AddDate(0, -6, 0)), nil
}

// LoadCachedHolidays loads the holiday cache when it is present and fresh.
// A missing or stale cache returns a nil Set and no error.
func LoadCachedHolidays(now time.Time) (Set, error) {
	cachePath, err := CachePath()
	if err != nil {
		return nil, err
	}
	valid, err := IsCacheValid(cachePath, now)
	if err != nil || !valid {
		return nil, err
	}
	return LoadFile(cachePath, Options{})
}
