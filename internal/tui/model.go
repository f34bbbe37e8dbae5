package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lululau/weekcal/internal/calendar"
	"github.com/lululau/weekcal/internal/render"
)

var (
	noColorMode bool // Global flag to disable all color output
)

// SetNoColor sets the global no-color flag
func SetNoColor(disable bool) {
	noColorMode = disable
}

const dateLayout = "2006-01-02"

// Run starts the interactive Bubble Tea UI.
func Run(svc *calendar.Service, req calendar.WindowRequest, selected *time.Time) error {
	if svc == nil {
		svc = calendar.NewService()
	}
	prog := tea.NewProgram(newModel(svc, req, selected), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

type model struct {
	svc       *calendar.Service
	request   calendar.WindowRequest
	selected  time.Time
	width     int
	prompting bool
	input     textinput.Model
	statusMsg string
}

func newModel(svc *calendar.Service, req calendar.WindowRequest, selected *time.Time) model {
	ti := textinput.New()
	ti.Placeholder = dateLayout
	ti.CharLimit = 16
	ti.Prompt = "> "

	m := model{
		svc:     svc,
		request: req,
		input:   ti,
	}
	if selected != nil {
		m.selected = svc.Config().StartOfDay(*selected)
	} else {
		m.selected = svc.Config().StartOfDay(req.Anchor)
	}
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		if m.prompting {
			return m.handleInputKey(msg)
		}
		m.statusMsg = ""
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h", "left":
			m.request = m.request.Previous()
		case "l", "right":
			m.request = m.request.Next()
		case "j", "down":
			m.moveSelection(1)
		case "k", "up":
			m.moveSelection(-1)
		case "J":
			m.moveSelection(calendar.DaysPerWeek)
		case "K":
			m.moveSelection(-calendar.DaysPerWeek)
		case "w":
			if m.request.Unit == calendar.UnitWeek {
				m.request.Unit = calendar.UnitMonth
			} else {
				m.request.Unit = calendar.UnitWeek
			}
			m.syncOffsetToSelection()
		case ".":
			m.request.Anchor = m.svc.Now()
			m.request.Offset = 0
			m.selected = m.svc.Config().StartOfDay(m.request.Anchor)
		case "g":
			m.prompting = true
			m.input.SetValue("")
			m.input.Focus()
		}
	}
	return m, nil
}

// moveSelection shifts the selected date by days and keeps it in view.
func (m *model) moveSelection(days int) {
	m.selected = m.svc.Config().AddDays(m.selected, days)
	m.syncOffsetToSelection()
}

// syncOffsetToSelection points the request at the window holding the
// selected date, relative to the unchanged anchor.
func (m *model) syncOffsetToSelection() {
	cfg := m.svc.Config()
	switch m.request.Unit {
	case calendar.UnitMonth:
		m.request.Offset = calendar.MonthOffsetBetween(cfg, m.request.Anchor, m.selected)
	default:
		m.request.Offset = calendar.WeekOffsetBetween(cfg, m.request.Anchor, m.selected)
	}
}

func (m model) View() string {
	if m.prompting {
		return m.inputView()
	}

	width := m.width
	if width <= 0 {
		width = 100
	}
	selected := m.selected
	view := m.svc.View(m.request, &selected)
	body := render.Layout(render.BuildBlocks([]calendar.View{view}), width)

	sb := strings.Builder{}
	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString(render.HelpLine())
	if m.statusMsg != "" {
		sb.WriteString("\n")
		if noColorMode {
			sb.WriteString(m.statusMsg)
		} else {
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316")).Render(m.statusMsg))
		}
	}
	return sb.String()
}

func (m model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompting = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.applyInput()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) applyInput() {
	value := strings.TrimSpace(m.input.Value())
	day, err := time.Parse(dateLayout, value)
	if err != nil {
		m.statusMsg = "日期格式应为 " + dateLayout
		m.prompting = false
		m.input.Blur()
		return
	}
	m.selected = m.svc.Config().Date(day.Date())
	m.syncOffsetToSelection()
	m.statusMsg = ""
	m.prompting = false
	m.input.Blur()
}

func (m model) inputView() string {
	label := "输入日期 YYYY-MM-DD (回车确认 / Esc 取消)"
	if noColorMode {
		return label + "\n\n" + m.input.View()
	}
	return lipgloss.NewStyle().
		Bold(true).
		Render(label) + "\n\n" + m.input.View()
}
