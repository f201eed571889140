package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procscope/internal/fileinfo"
	"procscope/internal/model"
)

func TestGaugeBar(t *testing.T) {
	assert.Equal(t,
		"["+strings.Repeat("█", 5)+strings.Repeat("░", 5)+"]  50.0%",
		gaugeBar(50, 10))

	assert.Equal(t,
		"["+strings.Repeat("█", 4)+"] 150.0%",
		gaugeBar(150, 4))

	assert.Equal(t,
		"["+strings.Repeat("░", 4)+"] -10.0%",
		gaugeBar(-10, 4))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hello w…", truncate("hello world", 8))
	assert.Equal(t, "hé…", truncate("héllo", 3))
	assert.Equal(t, "", truncate("anything", 0))
}

func TestFormatKB(t *testing.T) {
	assert.Equal(t, "512 KiB", formatKB(512))
	assert.Equal(t, "2.0 MiB", formatKB(2048))
	assert.Equal(t, "3.0 GiB", formatKB(3<<20))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "1m 30s", formatUptime(90))
	assert.Equal(t, "1h 1m", formatUptime(3660))
	assert.Equal(t, "1d 1h 1m", formatUptime(90060))
}

func TestSwapLine(t *testing.T) {
	assert.Contains(t, swapLine(model.MemoryUsage{}), "no swap")

	line := swapLine(model.MemoryUsage{SwapTotalKB: 4096, SwapFreeKB: 3072})
	assert.Contains(t, line, "1.0 MiB of 4.0 MiB")
}

func TestCoreLinesPackFourPerRow(t *testing.T) {
	assert.Nil(t, coreLines(nil))

	cores := make([]model.CoreUsage, 5)
	for i := range cores {
		cores[i] = model.CoreUsage{Core: i, Percent: float64(i * 10)}
	}
	lines := coreLines(cores)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "c0 ")
	assert.Contains(t, lines[0], "c3 ")
	assert.Contains(t, lines[1], "c4 ")
}

func TestProcRows(t *testing.T) {
	rows := procRows([]model.ProcessRecord{
		{PID: 42, Name: "worker", Owner: "alice", State: model.StateRunning, ResidentKB: 2048, Threads: 3},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"42", "worker", "alice", "running", "2.0 MiB", "3"}, []string(rows[0]))
}

func TestFileRows(t *testing.T) {
	mod := time.Date(2026, 5, 4, 13, 30, 0, 0, time.UTC)
	rows := fileRows([]fileinfo.Entry{
		{Name: "notes.txt", Permissions: "-rw-r--r--", Owner: "alice", SizeLabel: "1.0 KB", Modified: mod},
	})
	require.Len(t, rows, 1)
	assert.Equal(t,
		[]string{"-rw-r--r--", "alice", "1.0 KB", "2026-05-04 13:30", "notes.txt"},
		[]string(rows[0]))
}

func TestRenderTopList(t *testing.T) {
	assert.Contains(t, renderTopList(nil, 8), "no resident processes")

	procs := []model.ProcessRecord{
		{PID: 2, Name: "db", Owner: "postgres", ResidentKB: 50},
		{PID: 3, Name: "cache", Owner: "redis", ResidentKB: 30},
	}
	out := renderTopList(procs, 8)
	assert.Contains(t, out, "db")
	assert.Contains(t, out, "cache")

	capped := renderTopList(procs, 1)
	assert.Contains(t, capped, "db")
	assert.NotContains(t, capped, "cache")
}

func TestRenderStatus(t *testing.T) {
	assert.Contains(t, renderStatus(nil), "status unavailable")

	out := renderStatus(map[string]string{
		"State":        "S (sleeping)",
		"Threads":      "4",
		"Cpus_allowed": "ff",
	})
	assert.Contains(t, out, "S (sleeping)")
	assert.Contains(t, out, "Threads")
	assert.NotContains(t, out, "Cpus_allowed")
}

func TestRenderResources(t *testing.T) {
	res := model.OpenResources{
		OpenFiles: []model.FDInfo{{FD: "0", Target: "/dev/null"}},
		Sockets:   []model.FDInfo{{FD: "3", Target: "socket:[123]"}},
		Semaphores: []model.FDInfo{
			{FD: "5", Target: "/dev/shm/sem.lock", Info: "pos:\t0\nflags:\t02"},
		},
	}
	out := renderResources(res)
	assert.Contains(t, out, "open files (1)")
	assert.Contains(t, out, "sockets (1)")
	assert.Contains(t, out, "semaphores (1)")
	assert.Contains(t, out, "/dev/null")
	assert.Contains(t, out, "pos:")
	assert.NotContains(t, out, "flags:")
}
