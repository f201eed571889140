package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"procscope/internal/fileinfo"
	"procscope/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 2)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 2)
)

func (m *Model) View() string {
	if m.overlay != nil {
		return m.viewDetails()
	}

	var body string
	switch m.tab {
	case tabOverview:
		body = m.viewOverview()
	case tabProcesses:
		body = m.viewProcesses()
	case tabDisks:
		body = m.viewDisks()
	case tabFiles:
		body = m.viewFiles()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		body,
		m.help.View(m.keys),
	)
}

func (m *Model) viewHeader() string {
	tabs := make([]string, 0, int(tabCount))
	for t := tab(0); t < tabCount; t++ {
		style := tabStyle
		if t == m.tab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(t.title()))
	}
	status := subtleStyle.Render(fmt.Sprintf("cycle %d · %s · every %s",
		m.latest.Cycle, m.latest.Timestamp.Format("15:04:05"), m.latest.Interval))
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("procscope")+"  "+status,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
	)
}

func (m *Model) viewOverview() string {
	s := m.latest

	cpuLines := []string{
		gaugeBar(s.CPU.Percent, 28),
		subtleStyle.Render(RenderSparkline(m.history.Slice(), 40)),
	}
	cpuLines = append(cpuLines, coreLines(s.PerCore)...)
	cpuCard := card("cpu", strings.Join(cpuLines, "\n"))

	memCard := card("memory", strings.Join([]string{
		gaugeBar(s.Memory.Percent, 28),
		fmt.Sprintf("%s used of %s", formatKB(s.Memory.UsedKB), formatKB(s.Memory.TotalKB)),
		labelStyle.Render("cached ") + formatKB(s.Memory.CachedKB) +
			labelStyle.Render("  free ") + formatKB(s.Memory.FreeKB),
		swapLine(s.Memory),
	}, "\n"))

	hostCard := card("host", strings.Join([]string{
		fmt.Sprintf("%s · %s", s.Host.Hostname, s.Host.KernelVersion),
		fmt.Sprintf("%d cpus · up %s", s.Host.CPUCount, formatUptime(s.Host.UptimeSeconds)),
		fmt.Sprintf("load %.2f %.2f %.2f", s.Load.Load1, s.Load.Load5, s.Load.Load15),
	}, "\n"))

	procCard := card("processes", strings.Join([]string{
		fmt.Sprintf("%d running processes", s.ProcessCount),
		fmt.Sprintf("%d threads reported", s.ReportedThreadCount),
		fmt.Sprintf("%d thread records sampled", s.SampledThreadRecords),
	}, "\n"))

	topCard := card("top memory", renderTopList(s.TopProcessesByMemory, 8))

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cpuCard, memCard)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, hostCard, procCard)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2, topCard)
}

func swapLine(m model.MemoryUsage) string {
	if m.SwapTotalKB == 0 {
		return subtleStyle.Render("no swap")
	}
	used := m.SwapTotalKB - m.SwapFreeKB
	return labelStyle.Render("swap   ") + fmt.Sprintf("%s of %s", formatKB(used), formatKB(m.SwapTotalKB))
}

// coreLines packs per-core mini gauges four to a row.
func coreLines(cores []model.CoreUsage) []string {
	if len(cores) == 0 {
		return nil
	}
	var lines []string
	var row []string
	for _, c := range cores {
		row = append(row, fmt.Sprintf("c%-2d %s", c.Core, gaugeBar(c.Percent, 8)))
		if len(row) == 4 {
			lines = append(lines, strings.Join(row, "  "))
			row = nil
		}
	}
	if len(row) > 0 {
		lines = append(lines, strings.Join(row, "  "))
	}
	return lines
}

func renderTopList(procs []model.ProcessRecord, limit int) string {
	if len(procs) == 0 {
		return subtleStyle.Render("no resident processes")
	}
	if limit > 0 && len(procs) > limit {
		procs = procs[:limit]
	}
	lines := make([]string, 0, len(procs)+1)
	lines = append(lines, labelStyle.Render(fmt.Sprintf("%-7s %-20s %-12s %10s", "PID", "NAME", "OWNER", "RSS")))
	for _, p := range procs {
		lines = append(lines, fmt.Sprintf("%-7d %-20s %-12s %10s",
			p.PID, truncate(p.Name, 20), truncate(p.Owner, 12), formatKB(p.ResidentKB)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewProcesses() string {
	status := subtleStyle.Render(fmt.Sprintf("%d processes by resident memory · enter for details",
		len(m.latest.TopProcessesByMemory)))
	return lipgloss.JoinVertical(lipgloss.Left, status, m.procTable.View())
}

func (m *Model) viewDisks() string {
	parts := m.latest.Partitions
	if len(parts) == 0 {
		return subtleStyle.Render("no mounted partitions in this snapshot")
	}
	cards := make([]string, 0, len(parts))
	for _, p := range parts {
		body := strings.Join([]string{
			gaugeBar(p.Percent, 28),
			fmt.Sprintf("%.1f GiB used of %.1f GiB", bytesToGiB(p.UsedBytes), bytesToGiB(p.TotalBytes)),
			labelStyle.Render(p.Device) + subtleStyle.Render(" · "+p.FSType),
		}, "\n")
		cards = append(cards, card(p.Mountpoint, body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m *Model) viewFiles() string {
	path := labelStyle.Render("path ") + m.cwd
	return lipgloss.JoinVertical(lipgloss.Left, path, m.fileTable.View())
}

func (m *Model) viewDetails() string {
	d := m.overlay
	name := d.info.Status["Name"]
	if name == "" {
		name = "unknown"
	}

	cmd := d.info.CommandLine
	if cmd == "" {
		cmd = subtleStyle.Render("(no command line)")
	}

	pagesCard := card("memory pages", strings.Join([]string{
		labelStyle.Render("total ") + formatKB(d.pages.TotalKB),
		labelStyle.Render("code  ") + formatKB(d.pages.CodeKB),
		labelStyle.Render("heap  ") + formatKB(d.pages.HeapKB),
		labelStyle.Render("stack ") + formatKB(d.pages.StackKB),
	}, "\n"))

	resCard := card("open resources", renderResources(d.res))
	statusCard := card("status", renderStatus(d.info.Status))

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("process %d · %s", d.pid, name)),
		truncate(cmd, max(40, m.width-4)),
		lipgloss.JoinHorizontal(lipgloss.Top, pagesCard, statusCard),
		resCard,
		subtleStyle.Render("esc to close · q to quit"),
	)
}

// statusOrder is the subset of status fields worth a card line, in
// display order. Everything else stays in the JSON output only.
var statusOrder = []string{
	"State", "PPid", "Uid", "Gid", "VmSize", "VmRSS", "VmSwap",
	"Threads", "voluntary_ctxt_switches", "nonvoluntary_ctxt_switches",
}

func renderStatus(status map[string]string) string {
	lines := make([]string, 0, len(statusOrder))
	for _, k := range statusOrder {
		if v, ok := status[k]; ok {
			lines = append(lines, labelStyle.Render(fmt.Sprintf("%-28s", k))+v)
		}
	}
	if len(lines) == 0 {
		return subtleStyle.Render("status unavailable")
	}
	return strings.Join(lines, "\n")
}

func renderResources(res model.OpenResources) string {
	sections := []struct {
		name    string
		entries []model.FDInfo
	}{
		{"open files", res.OpenFiles},
		{"sockets", res.Sockets},
		{"semaphores", res.Semaphores},
	}
	var lines []string
	for _, sec := range sections {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%s (%d)", sec.name, len(sec.entries))))
		shown := sec.entries
		if len(shown) > 6 {
			shown = shown[:6]
		}
		for _, e := range shown {
			line := fmt.Sprintf("  %3s → %s", e.FD, truncate(e.Target, 60))
			lines = append(lines, line)
			if e.Info != "" {
				first := strings.SplitN(e.Info, "\n", 2)[0]
				lines = append(lines, subtleStyle.Render("        "+truncate(first, 56)))
			}
		}
		if len(sec.entries) > len(shown) {
			lines = append(lines, subtleStyle.Render(fmt.Sprintf("  … %d more", len(sec.entries)-len(shown))))
		}
	}
	return strings.Join(lines, "\n")
}

func procColumns() []table.Column {
	return []table.Column{
		{Title: "PID", Width: 7},
		{Title: "NAME", Width: 20},
		{Title: "OWNER", Width: 12},
		{Title: "STATE", Width: 9},
		{Title: "RSS", Width: 11},
		{Title: "THREADS", Width: 7},
	}
}

func procRows(procs []model.ProcessRecord) []table.Row {
	rows := make([]table.Row, 0, len(procs))
	for _, p := range procs {
		rows = append(rows, table.Row{
			strconv.FormatUint(uint64(p.PID), 10),
			truncate(p.Name, 20),
			truncate(p.Owner, 12),
			p.State.String(),
			formatKB(p.ResidentKB),
			strconv.FormatUint(uint64(p.Threads), 10),
		})
	}
	return rows
}

func fileColumns() []table.Column {
	return []table.Column{
		{Title: "PERMS", Width: 11},
		{Title: "OWNER", Width: 10},
		{Title: "SIZE", Width: 10},
		{Title: "MODIFIED", Width: 16},
		{Title: "NAME", Width: 32},
	}
}

func fileRows(entries []fileinfo.Entry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{
			e.Permissions,
			truncate(e.Owner, 10),
			e.SizeLabel,
			e.Modified.Format("2006-01-02 15:04"),
			e.Name,
		})
	}
	return rows
}

func gaugeBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) +
		fmt.Sprintf("] %5.1f%%", percent)
}

func card(title, body string) string {
	return cardStyle.Render(titleStyle.Render(title) + "\n" + body)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func formatKB(kb uint64) string {
	switch {
	case kb >= 1<<20:
		return fmt.Sprintf("%.1f GiB", float64(kb)/(1<<20))
	case kb >= 1<<10:
		return fmt.Sprintf("%.1f MiB", float64(kb)/(1<<10))
	default:
		return fmt.Sprintf("%d KiB", kb)
	}
}

func formatUptime(secs uint64) string {
	days := secs / 86400
	hours := secs % 86400 / 3600
	mins := secs % 3600 / 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs%60)
}

func bytesToGiB(b uint64) float64 {
	return float64(b) / (1 << 30)
}
