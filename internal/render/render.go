package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lululau/weekcal/internal/calendar"
	"github.com/lululau/weekcal/internal/indicators"
	"github.com/lululau/weekcal/internal/textwidth"
)

const (
	cellPadding = 1
	blockGap    = 2
	// Each week is drawn as a date row, a lunar row and a dot row.
	rowsPerWeek = 3
)

var (
	noColorMode bool // Global flag to disable all color output
)

// SetNoColor sets the global no-color flag
func SetNoColor(disable bool) {
	noColorMode = disable
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FEC260"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A5B4FC"))
	selectedHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Underline(true).
				Foreground(lipgloss.Color("#FEC260"))
	dimCellStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	todayCellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	selectedCellStyle = lipgloss.NewStyle().Reverse(true)
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	borderStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#475569"))
)

// namedColors lets indicator files use plain color names.
var namedColors = map[string]string{
	"red":    "#EF4444",
	"green":  "#22C55E",
	"blue":   indicators.HolidayColor,
	"orange": indicators.WorkdayColor,
	"purple": "#A855F7",
	"pink":   "#EC4899",
	"yellow": "#EAB308",
	"gray":   "#6B7280",
	"grey":   "#6B7280",
}

// Block packages rendered lines with their visual width/height.
type Block struct {
	Lines  []string
	Width  int
	Height int
}

// BuildBlocks converts views into renderable blocks.
func BuildBlocks(views []calendar.View) []Block {
	blocks := make([]Block, len(views))
	for i, view := range views {
		blocks[i] = BuildBlock(view)
	}
	return blocks
}

// Layout places blocks left to right, wrapping when the next block would not
// fit in width columns.
func Layout(blocks []Block, width int) string {
	if len(blocks) == 0 {
		return ""
	}
	blockWidth := 0
	for _, b := range blocks {
		blockWidth = max(blockWidth, b.Width)
	}
	perRow := max(1, (width+blockGap)/(blockWidth+blockGap))

	var lines []string
	for start := 0; start < len(blocks); start += perRow {
		if start > 0 {
			lines = append(lines, "")
		}
		group := blocks[start:min(start+perRow, len(blocks))]
		height := 0
		for _, b := range group {
			height = max(height, b.Height)
		}
		for i := 0; i < height; i++ {
			parts := make([]string, len(group))
			for j, b := range group {
				line := ""
				if i < len(b.Lines) {
					line = b.Lines[i]
				}
				if j < len(group)-1 {
					line = textwidth.PadRight(line, blockWidth)
				}
				parts[j] = line
			}
			lines = append(lines, strings.TrimRight(strings.Join(parts, strings.Repeat(" ", blockGap)), " "))
		}
	}
	return strings.Join(lines, "\n")
}

// BuildBlock renders a single view: title, weekday header and one group of
// rows per week.
func BuildBlock(view calendar.View) Block {
	colWidth := determineColumnWidth(view) + cellPadding*2

	headers := make([]string, len(view.Header))
	for i, cell := range view.Header {
		headers[i] = cell.Label
	}

	rows := make([][]string, 0, len(view.Weeks)*rowsPerWeek)
	for _, week := range view.Weeks {
		gregorianRow := make([]string, len(week))
		lunarRow := make([]string, len(week))
		dotRow := make([]string, len(week))
		for idx, day := range week {
			gregorianRow[idx] = renderGregorianCell(view, day)
			lunarRow[idx] = renderLunarCell(view, day)
			dotRow[idx] = renderDots(view, day)
		}
		rows = append(rows, gregorianRow, lunarRow, dotRow)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderColumn(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle(view, row, col, colWidth)
		})
	if !noColorMode {
		t = t.BorderStyle(borderStyle)
	}

	title := view.Title
	if !noColorMode {
		title = titleStyle.Render(view.Title)
	}
	lines := append([]string{title, ""}, strings.Split(strings.TrimRight(t.Render(), "\n"), "\n")...)

	width := 0
	for _, line := range lines {
		width = max(width, textwidth.StringWidth(line))
	}
	return Block{
		Lines:  lines,
		Width:  width,
		Height: len(lines),
	}
}

func cellStyle(view calendar.View, row, col, width int) lipgloss.Style {
	base := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if noColorMode {
		return base
	}
	if row == table.HeaderRow {
		if col < len(view.Header) && view.Header[col].Selected {
			return selectedHeaderStyle.Inherit(base)
		}
		return headerStyle.Inherit(base)
	}

	weekIdx := row / rowsPerWeek
	if weekIdx >= len(view.Weeks) || col >= len(view.Weeks[weekIdx]) || row%rowsPerWeek == 2 {
		return base
	}
	day := view.Weeks[weekIdx][col]
	switch {
	case hidden(view, day):
		return base
	case day.IsSelected:
		return selectedCellStyle.Inherit(base)
	case !day.InActiveMonth:
		return dimCellStyle.Inherit(base)
	case day.IsToday:
		return todayCellStyle.Inherit(base)
	}
	return base
}

// hidden reports whether a cell is nulled out by the week filter policy.
// Inactive days of month views stay visible but dimmed.
func hidden(view calendar.View, day calendar.Day) bool {
	return view.Unit == calendar.UnitWeek && !day.InActiveMonth
}

func determineColumnWidth(view calendar.View) int {
	width := 4
	for _, cell := range view.Header {
		width = max(width, textwidth.StringWidth(cell.Label))
	}
	for _, week := range view.Weeks {
		for _, day := range week {
			width = max(width, textwidth.StringWidth(renderGregorianCell(view, day)))
			width = max(width, textwidth.StringWidth(renderLunarCell(view, day)))
		}
	}
	return width
}

func renderGregorianCell(view calendar.View, day calendar.Day) string {
	if hidden(view, day) {
		return ""
	}
	if noColorMode && day.IsSelected {
		return fmt.Sprintf("[%d]", day.Date.Day())
	}
	return fmt.Sprintf("%2d", day.Date.Day())
}

func renderLunarCell(view calendar.View, day calendar.Day) string {
	if hidden(view, day) {
		return ""
	}
	label := day.SecondaryLabel()
	if label == "" {
		label = "  "
	}
	return label
}

func renderDots(view calendar.View, day calendar.Day) string {
	if hidden(view, day) {
		return ""
	}
	var sb strings.Builder
	for _, color := range day.Indicator.Colors[:min(2, len(day.Indicator.Colors))] {
		if noColorMode {
			sb.WriteString("●")
			continue
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(resolveColor(color))).Render("●"))
	}
	return sb.String()
}

func resolveColor(name string) string {
	if hex, ok := namedColors[strings.ToLower(strings.TrimSpace(name))]; ok {
		return hex
	}
	return name
}

// HelpLine describes the interactive key bindings.
func HelpLine() string {
	helpText := "h/← 上一页  l/→ 下一页  j/k 后/前一天  J/K 后/前一周  w 切换周/月  . 回到今天  g 跳转日期  q 退出"
	if noColorMode {
		return helpText
	}
	return helpStyle.Render(helpText)
}

// ColorLegend explains the holiday dot colors.
func ColorLegend() string {
	legend := "蓝色=节假日  橙色=调休日"
	if noColorMode {
		return legend
	}
	return dimCellStyle.Render(legend)
}
