package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/doridoridoriand/inetwatch/internal/config"
	"github.com/doridoridoriand/inetwatch/internal/state"
)

const (
	uiRefreshInterval = 500 * time.Millisecond
	labelWidth        = 9
)

// UI renders a terminal view of the connectivity status.
type UI struct {
	cfg   config.Config
	state state.Store
	now   func() time.Time
}

// New returns a UI instance.
func New(cfg config.Config, store state.Store) *UI {
	return &UI{cfg: cfg, state: store, now: time.Now}
}

// Run blocks until the context is cancelled or the user quits.
func (u *UI) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()
	defer screen.Fini()

	eventCh := make(chan tcell.Event, 1)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(uiRefreshInterval)
	defer ticker.Stop()

	u.render(screen, u.state.GetSnapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-eventCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return context.Canceled
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			u.render(screen, u.state.GetSnapshot())
		}
	}
}

func (u *UI) render(screen tcell.Screen, snap state.Snapshot) {
	screen.Clear()
	width, height := screen.Size()
	if width < 20 || height < 5 {
		screen.Show()
		return
	}

	now := u.now()
	header := fmt.Sprintf(" inetwatch  %s  (q to quit)", now.Format("2006-01-02 15:04:05"))
	drawText(screen, 0, 0, width, header, tcell.StyleDefault.Bold(true))
	drawText(screen, 0, 1, width, formatConfigInfo(u.cfg), tcell.StyleDefault.Foreground(tcell.ColorGray))

	lines := statusLines(snap, now)
	boxHeight := minInt(len(lines)+2, height-2)
	drawBox(screen, 0, 2, width, boxHeight)
	for i, line := range lines {
		row := 3 + i
		if row >= 2+boxHeight-1 {
			break
		}
		drawStyledText(screen, 2, row, width-4, flattenStyledText(line, width-4))
	}

	screen.Show()
}

// statusLines returns the rows shown inside the status box.
func statusLines(snap state.Snapshot, now time.Time) [][]styledText {
	plain := tcell.StyleDefault
	label := func(name string) styledText {
		return styledText{text: padOrTrim(name, labelWidth), style: plain.Foreground(tcell.ColorGray)}
	}

	since := "-"
	if !snap.Since.IsZero() {
		since = fmt.Sprintf("%s  (for %s)", snap.Since.Local().Format("2006-01-02 15:04:05"), formatElapsed(now.Sub(snap.Since)))
	}
	lastError := snap.LastError
	if lastError == "" {
		lastError = "-"
	}

	lines := [][]styledText{
		{label("Target"), {text: snap.Target, style: plain.Bold(true)}},
		{label("Status"), {text: string(snap.Status), style: statusStyle(snap.Status).Bold(true)}},
		{label("Since"), {text: since, style: plain}},
		{label("Outages"), {text: fmt.Sprintf("%d", snap.Outages), style: plain}},
		{label("Probes"), {text: fmt.Sprintf("%d total, %d failed (%.1f%% loss)", snap.TotalProbes, snap.FailedProbes, lossPercent(snap)), style: plain}},
		{label("RTT"), {text: formatRTT(snap.LastRTT), style: plain}},
		{label("Error"), {text: lastError, style: plain.Foreground(tcell.ColorYellow)}},
	}
	if snap.LogWriteErrors > 0 {
		lines = append(lines, []styledText{
			label("Log"),
			{text: fmt.Sprintf("%d write errors, last: %s", snap.LogWriteErrors, snap.LastLogError), style: plain.Foreground(tcell.ColorRed)},
		})
	}
	return lines
}

func drawBox(screen tcell.Screen, x, y, width, height int) {
	if width < 2 || height < 2 {
		return
	}
	right := x + width - 1
	bottom := y + height - 1

	setCell(screen, x, y, '+', tcell.StyleDefault)
	setCell(screen, right, y, '+', tcell.StyleDefault)
	setCell(screen, x, bottom, '+', tcell.StyleDefault)
	setCell(screen, right, bottom, '+', tcell.StyleDefault)

	for col := x + 1; col < right; col++ {
		setCell(screen, col, y, '-', tcell.StyleDefault)
		setCell(screen, col, bottom, '-', tcell.StyleDefault)
	}
	for row := y + 1; row < bottom; row++ {
		setCell(screen, x, row, '|', tcell.StyleDefault)
		setCell(screen, right, row, '|', tcell.StyleDefault)
	}
}

func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	drawStyledText(screen, x, y, width, []styledRune{{r: []rune(text), style: style}})
}

type styledText struct {
	text  string
	style tcell.Style
}

type styledRune struct {
	r     []rune
	style tcell.Style
}

func drawStyledText(screen tcell.Screen, x, y, width int, parts []styledRune) {
	if width <= 0 {
		return
	}
	col := x
	for _, part := range parts {
		for _, r := range part.r {
			if col >= x+width {
				return
			}
			setCell(screen, col, y, r, part.style)
			col++
		}
	}
	for col < x+width {
		setCell(screen, col, y, ' ', tcell.StyleDefault)
		col++
	}
}

func flattenStyledText(parts []styledText, width int) []styledRune {
	result := make([]styledRune, 0, len(parts))
	used := 0
	for _, part := range parts {
		runes := []rune(part.text)
		if used+len(runes) > width {
			runes = runes[:maxInt(0, width-used)]
		}
		result = append(result, styledRune{r: runes, style: part.style})
		used += len(runes)
		if used >= width {
			break
		}
	}
	return result
}

func setCell(screen tcell.Screen, x, y int, r rune, style tcell.Style) {
	screen.SetContent(x, y, r, nil, style)
}

func padOrTrim(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) > width {
		return string(runes[:width])
	}
	if len(runes) < width {
		return value + strings.Repeat(" ", width-len(runes))
	}
	return value
}

func formatRTT(rtt time.Duration) string {
	if rtt <= 0 {
		return "-"
	}
	if rtt < time.Millisecond {
		return fmt.Sprintf("%dus", rtt.Microseconds())
	}
	if rtt < time.Second {
		return fmt.Sprintf("%dms", rtt.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", rtt.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}

func lossPercent(snap state.Snapshot) float64 {
	if snap.TotalProbes == 0 {
		return 0.0
	}
	return float64(snap.FailedProbes) / float64(snap.TotalProbes) * 100.0
}

func statusStyle(status state.Status) tcell.Style {
	switch status {
	case state.StatusUp:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case state.StatusDown:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func formatConfigInfo(cfg config.Config) string {
	return fmt.Sprintf(" interval=%s  timeout=%s  address_index=%d  log=%s",
		cfg.Interval, cfg.Timeout, cfg.AddressIndex, cfg.LogFile)
}
