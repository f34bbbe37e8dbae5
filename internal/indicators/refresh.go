package indicators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"
)

// DefaultHolidaysURL serves the holiday data published with lucal.
const DefaultHolidaysURL = "https://raw.githubusercontent.com/lululau/lucal/main/holidays.json"

// ErrEmptyHolidayData is returned when a download holds no usable year.
var ErrEmptyHolidayData = errors.New("no year data found")

// Progress is a snapshot of a running download.
type Progress struct {
	Downloaded int64
	// Total is -1 when the server sent no Content-Length.
	Total int64
	// Speed is in bytes per second.
	Speed float64
}

// Summary describes a refreshed holiday file.
type Summary struct {
	Path    string
	Size    int64
	ModTime time.Time
	MinYear int
	MaxYear int
	Years   int
}

// RefreshHolidays downloads url into dest. The body is written to a
// temporary file next to dest and only renamed over it once it parses as
// holiday data, so a failed download keeps the previous cache. onProgress,
// when set, is called from a separate goroutine about every interval.
func RefreshHolidays(ctx context.Context, client *http.Client, url, dest string, interval time.Duration, onProgress func(Progress)) (Summary, error) {
	if client == nil {
		client = http.DefaultClient
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("failed to create directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to start download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Summary{}, fmt.Errorf("HTTP %s", resp.Status)
	}

	tmp, err := os.CreateTemp(dir, ".holidays-*.json")
	if err != nil {
		return Summary{}, fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	var downloaded atomic.Int64
	stop := make(chan struct{})
	if onProgress != nil && interval > 0 {
		go reportProgress(&downloaded, resp.ContentLength, interval, stop, onProgress)
	}
	_, err = io.Copy(tmp, io.TeeReader(resp.Body, countingWriter{&downloaded}))
	close(stop)
	if err != nil {
		tmp.Close()
		return Summary{}, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Summary{}, err
	}

	summary, err := summarizeHolidayFile(tmpName)
	if err != nil {
		return Summary{}, fmt.Errorf("downloaded data rejected: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return Summary{}, err
	}
	info, err := os.Stat(dest)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to stat file: %w", err)
	}
	summary.Path = dest
	summary.Size = info.Size()
	summary.ModTime = info.ModTime()
	return summary, nil
}

func reportProgress(downloaded *atomic.Int64, total int64, interval time.Duration, stop <-chan struct{}, onProgress func(Progress)) {
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n := downloaded.Load()
			if n == 0 {
				continue
			}
			onProgress(Progress{
				Downloaded: n,
				Total:      total,
				Speed:      float64(n) / time.Since(start).Seconds(),
			})
		}
	}
}

type countingWriter struct {
	n *atomic.Int64
}

func (w countingWriter) Write(p []byte) (int, error) {
	w.n.Add(int64(len(p)))
	return len(p), nil
}

// summarizeHolidayFile parses path as holiday data and reports its year span.
func summarizeHolidayFile(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	var holidays HolidayData
	if err := json.Unmarshal(data, &holidays); err != nil {
		return Summary{}, fmt.Errorf("failed to parse JSON: %w", err)
	}

	var s Summary
	for _, year := range holidays {
		y, err := strconv.Atoi(year.Year)
		if err != nil {
			continue
		}
		if s.Years == 0 || y < s.MinYear {
			s.MinYear = y
		}
		if s.Years == 0 || y > s.MaxYear {
			s.MaxYear = y
		}
		s.Years++
	}
	if s.Years == 0 {
		return Summary{}, ErrEmptyHolidayData
	}
	return s, nil
}
