package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lululau/weekcal/internal/calendar"
	"github.com/lululau/weekcal/internal/config"
	"github.com/lululau/weekcal/internal/indicators"
	"github.com/lululau/weekcal/internal/logger"
	"github.com/lululau/weekcal/internal/render"
	"github.com/lululau/weekcal/internal/tui"
)

var (
	yearFlag    = flag.Bool("y", false, "显示全年日历")
	weekFlag    = flag.Bool("w", false, "按周显示")
	plain       = flag.Bool("n", false, "直接渲染并退出（非交互模式）")
	noColor     = flag.Bool("N", false, "禁用所有颜色输出")
	noColorLong = flag.Bool("no-color", false, "禁用所有颜色输出")
	offset      = flag.Int("o", 0, "相对锚点日期的偏移（周/月/年）")
	selectDate  = flag.String("d", "", "选中日期 YYYY-MM-DD")
	configPath  = flag.String("c", "", "配置文件路径（默认位于用户配置目录）")
	weekStart   = flag.String("s", "", "每周第一天: sunday/monday/... 或 1-7 (1=周日)")
	timezone    = flag.String("z", "", "时区，例如 Asia/Shanghai")
	locale      = flag.String("l", "", "星期标签语言，例如 zh、en、ja")
	policy      = flag.String("p", "", "周视图策略: all 或 anchor-month")
	logLevel    = flag.String("log-level", "", "日志级别: debug/info/warn/error")
	update      = flag.Bool("update-holidays", false, "下载最新的节假日数据")
)

var indicatorFiles stringList

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func init() {
	flag.Var(&indicatorFiles, "i", "圆点标记文件 (.yaml/.json/.ics)，可重复，与节假日缓存合并显示")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "用法: %s [选项] [year] [month]\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), `
  无参数      展示当前月份
  -w          展示当前周
  -w -o -1    展示上一周
  -y          展示当前年份
  9           展示当年9月份
  1983        展示1983年
  2012 12     展示2012年12月
  -update-holidays  下载最新的节假日数据

选项:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := loadConfig(*configPath)
	applyFlags(cfg)
	logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if cfg.NoColor {
		render.SetNoColor(true)
		tui.SetNoColor(true)
	}

	calCfg, warnings := cfg.Calendar()
	for _, w := range warnings {
		slog.Warn("calendar configuration", slog.Any("error", w))
	}
	if calCfg.Degraded() {
		slog.Warn("week alignment unavailable, windows start at the anchor day",
			slog.String("week_start", cfg.WeekStart), slog.String("timezone", cfg.Timezone))
	}

	if *update {
		if err := updateHolidays(cfg.HolidaysURL, *plain); err != nil {
			fmt.Fprintln(os.Stderr, "错误:", err)
			os.Exit(1)
		}
		return
	}

	now := time.Now()
	req, showYear, err := parseRequest(calCfg, now, *yearFlag, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
	if *weekFlag {
		req.Unit = calendar.UnitWeek
	}
	req.Offset += *offset

	selected, err := parseSelected(calCfg, *selectDate)
	if err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}

	source := newIndicatorSource(cfg.Indicators, calCfg, now)
	service := calendar.NewService(
		calendar.WithConfig(calCfg),
		calendar.WithIndicatorLoader(source.Load),
	)

	if *plain || showYear {
		if err := render.RunPlain(render.PlainOptions{
			Service:       service,
			Request:       req,
			Selected:      selected,
			Year:          showYear,
			HolidayLegend: source.HasHolidays(),
		}); err != nil {
			fmt.Fprintln(os.Stderr, "错误:", err)
			os.Exit(1)
		}
		return
	}

	if err := tui.Run(service, req, selected); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err == nil {
		return cfg
	}
	fmt.Fprintf(os.Stderr, "警告: 无法加载配置文件 %s: %v\n", path, err)
	cfg = config.DefaultConfig()
	if err := config.ApplyEnv(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "警告:", err)
	}
	cfg.Normalize()
	return cfg
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cfg.WeekStart = *weekStart
		case "z":
			cfg.Timezone = *timezone
		case "l":
			cfg.Locale = *locale
		case "p":
			cfg.WeekPolicy = *policy
		case "log-level":
			cfg.LogLevel = *logLevel
		case "N", "no-color":
			cfg.NoColor = *noColor || *noColorLong
		case "i":
			cfg.Indicators = append(cfg.Indicators, indicatorFiles...)
		}
	})
}

// updateHolidays refreshes the holiday cache, with a progress screen unless
// plain output was requested.
func updateHolidays(url string, plainOutput bool) error {
	dest, err := indicators.CachePath()
	if err != nil {
		return err
	}
	ctx := context.Background()
	var summary indicators.Summary
	if plainOutput {
		summary, err = indicators.RefreshHolidays(ctx, nil, url, dest, 0, nil)
		if err == nil {
			fmt.Printf("节假日数据已更新: %s (%d 年 - %d 年)\n", summary.Path, summary.MinYear, summary.MaxYear)
		}
	} else {
		summary, err = tui.RefreshHolidays(ctx, nil, url, dest)
	}
	if err != nil {
		return err
	}
	slog.Info("holiday cache refreshed", slog.String("path", summary.Path),
		slog.Int("min_year", summary.MinYear), slog.Int("max_year", summary.MaxYear))
	return nil
}

// indicatorSource combines the holiday cache with the indicator files. The
// cache is read once; the files are expanded again for each requested range
// so that recurring ICS events follow navigation.
type indicatorSource struct {
	paths    []string
	loc      *time.Location
	holidays indicators.Set
	failed   map[string]bool
}

func newIndicatorSource(paths []string, cal calendar.Config, now time.Time) *indicatorSource {
	holidays, err := indicators.LoadCachedHolidays(now)
	if err != nil {
		slog.Warn("holiday cache unreadable", slog.Any("error", err))
	}
	return &indicatorSource{
		paths:    paths,
		loc:      cal.Location(),
		holidays: holidays,
		failed:   make(map[string]bool),
	}
}

// HasHolidays reports whether the holiday cache contributed any day.
func (src *indicatorSource) HasHolidays() bool {
	return len(src.holidays) > 0
}

// Load returns the cached holidays merged with every file expanded between
// from and to. Unreadable files are reported once and skipped.
func (src *indicatorSource) Load(from, to time.Time) indicators.Set {
	set := make(indicators.Set)
	set.Merge(src.holidays)
	opts := indicators.Options{Location: src.loc, From: from, To: to}
	for _, path := range src.paths {
		loaded, err := indicators.LoadFile(path, opts)
		if err != nil {
			if !src.failed[path] {
				fmt.Fprintf(os.Stderr, "警告: 无法加载标记文件 %s: %v\n", path, err)
				src.failed[path] = true
			}
			continue
		}
		slog.Debug("indicators loaded", slog.String("path", path), slog.Int("days", len(loaded)),
			slog.Time("from", from), slog.Time("to", to))
		set.Merge(loaded)
	}
	return set
}

// parseRequest maps the positional arguments onto an anchor date. A lone
// number between 1 and 12 is a month of the current year; any other lone
// number is a year and switches to the year view.
func parseRequest(cal calendar.Config, now time.Time, showYear bool, args []string) (calendar.WindowRequest, bool, error) {
	loc := cal.Location()
	now = now.In(loc)
	year, month, day := now.Date()

	switch len(args) {
	case 0:
		// defaults
	case 1:
		val, err := parseNumber(args[0], "month/year")
		if err != nil {
			return calendar.WindowRequest{}, false, err
		}
		if !showYear && val >= 1 && val <= 12 {
			month, day = time.Month(val), 1
		} else {
			year, month, day = val, time.January, 1
			showYear = true
		}
	case 2:
		if showYear {
			return calendar.WindowRequest{}, false, errors.New("使用 -y 时最多只需要指定一个年份参数")
		}
		y, err := parseNumber(args[0], "year")
		if err != nil {
			return calendar.WindowRequest{}, false, err
		}
		m, err := parseNumber(args[1], "month")
		if err != nil {
			return calendar.WindowRequest{}, false, err
		}
		if m < 1 || m > 12 {
			return calendar.WindowRequest{}, false, fmt.Errorf("月份需要在 1-12 之间 (收到 %d)", m)
		}
		year, month, day = y, time.Month(m), 1
	default:
		return calendar.WindowRequest{}, false, errors.New("参数过多，请参考 --help")
	}

	return calendar.WindowRequest{
		Anchor: time.Date(year, month, day, 12, 0, 0, 0, loc),
		Unit:   calendar.UnitMonth,
	}, showYear, nil
}

func parseSelected(cal calendar.Config, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("无法将 %q 解析为日期 (YYYY-MM-DD)", value)
	}
	day := cal.Date(t.Date())
	return &day, nil
}

func parseNumber(value string, field string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("无法将 %q 解析为 %s", value, field)
	}
	return n, nil
}
