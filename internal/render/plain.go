package render

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/lululau/weekcal/internal/calendar"
)

// PlainOptions controls how the non-interactive renderer behaves.
type PlainOptions struct {
	Writer   io.Writer
	Service  *calendar.Service
	Request  calendar.WindowRequest
	Selected *time.Time
	// Year renders the twelve months of the anchor's year shifted by
	// Request.Offset years, ignoring Request.Unit.
	Year          bool
	Width         int
	HolidayLegend bool
}

// RunPlain renders the requested view exactly once.
func RunPlain(opts PlainOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Service == nil {
		opts.Service = calendar.NewService()
	}

	views, err := fetchViews(opts)
	if err != nil {
		return err
	}
	width := opts.Width
	if width == 0 {
		width = DetectWidth()
	}
	output := Layout(BuildBlocks(views), width)
	if output == "" {
		return nil
	}
	if _, err := fmt.Fprintln(opts.Writer, output); err != nil {
		return err
	}

	if opts.HolidayLegend && opts.Service.HasIndicators() {
		_, err = fmt.Fprintln(opts.Writer, "\n"+ColorLegend())
	}
	return err
}

// DetectWidth tries to determine the terminal width, falling back to 100 cols.
func DetectWidth() int {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) {
		if w, _, err := term.GetSize(int(fd)); err == nil {
			return w
		}
	}
	return 100
}

func fetchViews(opts PlainOptions) ([]calendar.View, error) {
	svc := opts.Service
	if opts.Year {
		year := svc.Config().StartOfDay(opts.Request.Anchor).Year() + opts.Request.Offset
		return svc.Year(year, opts.Selected)
	}
	return []calendar.View{svc.View(opts.Request, opts.Selected)}, nil
}
