package tui

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lululau/weekcal/internal/indicators"
)

const (
	progressBarWidth = 50
	progressInterval = 100 * time.Millisecond
)

type refreshProgressMsg indicators.Progress

type refreshDoneMsg struct {
	summary indicators.Summary
	err     error
}

type refreshModel struct {
	url        string
	dest       string
	progress   indicators.Progress
	done       bool
	summary    indicators.Summary
	err        error
	progressCh chan indicators.Progress
	doneCh     chan refreshDoneMsg
	cancel     context.CancelFunc
}

func newRefreshModel(url, dest string, cancel context.CancelFunc) refreshModel {
	return refreshModel{
		url:        url,
		dest:       dest,
		progressCh: make(chan indicators.Progress, 10),
		doneCh:     make(chan refreshDoneMsg, 1),
		cancel:     cancel,
	}
}

// RefreshHolidays downloads the holiday data into dest behind a progress
// screen and waits for a key press once the download has finished.
func RefreshHolidays(ctx context.Context, client *http.Client, url, dest string) (indicators.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newRefreshModel(url, dest, cancel)
	go func() {
		summary, err := indicators.RefreshHolidays(ctx, client, url, dest, progressInterval, func(p indicators.Progress) {
			select {
			case m.progressCh <- p:
			default:
			}
		})
		m.doneCh <- refreshDoneMsg{summary: summary, err: err}
	}()

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return indicators.Summary{}, err
	}
	rm := final.(refreshModel)
	if !rm.done {
		return indicators.Summary{}, context.Canceled
	}
	return rm.summary, rm.err
}

func (m refreshModel) Init() tea.Cmd {
	return m.listen
}

func (m refreshModel) listen() tea.Msg {
	select {
	case p := <-m.progressCh:
		return refreshProgressMsg(p)
	case msg := <-m.doneCh:
		return msg
	}
}

func (m refreshModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.done {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case refreshProgressMsg:
		m.progress = indicators.Progress(msg)
		return m, m.listen
	case refreshDoneMsg:
		m.done = true
		m.summary = msg.summary
		m.err = msg.err
	}
	return m, nil
}

func (m refreshModel) View() string {
	if m.done {
		return m.doneView()
	}

	var bar, info string
	p := m.progress
	if p.Total > 0 {
		percent := min(float64(p.Downloaded)/float64(p.Total), 1.0)
		filled := int(percent * progressBarWidth)
		bar = strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
		info = fmt.Sprintf("%s / %s  %s  %.1f%%", formatBytes(p.Downloaded), formatBytes(p.Total), formatSpeed(p.Speed), percent*100)
	} else {
		bar = strings.Repeat("░", progressBarWidth)
		info = formatBytes(p.Downloaded)
		if p.Speed > 0 {
			info += "  " + formatSpeed(p.Speed)
		}
	}
	return fmt.Sprintf("正在下载节假日数据...\n\n[%s]\n%s\n\n按 Ctrl+C 取消\n", bar, info)
}

func (m refreshModel) doneView() string {
	var sb strings.Builder
	if m.err != nil {
		fmt.Fprintf(&sb, "❌ 下载失败\n\n错误详情: %v\n\n", m.err)
		sb.WriteString("您可以手动下载节假日数据文件：\n")
		fmt.Fprintf(&sb, "1. 访问: %s\n", m.url)
		fmt.Fprintf(&sb, "2. 下载文件并保存到: %s\n\n", m.dest)
		sb.WriteString("按任意键退出...\n")
		return sb.String()
	}
	s := m.summary
	fmt.Fprintf(&sb, "✅ 下载成功!\n\n文件大小: %s\n更新时间: %s\n保存位置: %s\n",
		formatBytes(s.Size), s.ModTime.Format("2006-01-02 15:04:05"), s.Path)
	fmt.Fprintf(&sb, "\n数据年份范围: %d 年 - %d 年\n总共包含 %d 年的数据\n", s.MinYear, s.MaxYear, s.Years)
	sb.WriteString("\n按任意键退出...\n")
	return sb.String()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatSpeed(speed float64) string {
	return formatBytes(int64(speed)) + "/s"
}
