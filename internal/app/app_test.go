package app

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procscope/internal/config"
)

// writeProcFixture lays out a minimal proc tree with one process so a
// full sampling cycle can run without touching the real /proc.
func writeProcFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"stat":       "cpu  600 0 200 750 50 0 0 0 0 0\ncpu0 600 0 200 750 50 0 0 0 0 0\n",
		"meminfo":    "MemTotal: 16000000 kB\nMemFree: 4000000 kB\nBuffers: 1000000 kB\nCached: 5000000 kB\n",
		"uptime":     "3600.00 7000.00\n",
		"42/status":  "Name:\tworker\nState:\tS (sleeping)\nUid:\t1000\t1000\t1000\t1000\nVmRSS:\t    2048 kB\nThreads:\t2\n",
		"42/cmdline": "worker\x00--verbose\x00",
	}
	for name, body := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func TestNewParsesArgs(t *testing.T) {
	var stderr bytes.Buffer
	a, err := New([]string{"procscope", "-json", "-interval", "2s"}, &stderr)
	require.NoError(t, err)
	assert.True(t, a.Config.JSON)
	assert.Equal(t, 2*time.Second, a.Config.Interval)
}

func TestNewReportsHelp(t *testing.T) {
	var stderr bytes.Buffer
	_, err := New([]string{"procscope", "-h"}, &stderr)
	require.Error(t, err)
	assert.True(t, IsHelpError(err))
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestVersionHelpers(t *testing.T) {
	assert.True(t, HasVersionFlag([]string{"-version"}))
	assert.True(t, HasVersionFlag([]string{"--version"}))
	assert.False(t, HasVersionFlag([]string{"-json"}))

	var buf bytes.Buffer
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "procscope")
}

func TestRunJSONOncePrintsOneSnapshot(t *testing.T) {
	a := &Application{
		Config: config.Config{
			Interval: 20 * time.Millisecond,
			TopN:     5,
			ProcRoot: writeProcFixture(t),
			JSON:     true,
		},
		ErrWriter: io.Discard,
	}

	var out bytes.Buffer
	code := a.Run(context.Background(), &out)
	require.Equal(t, ExitOK, code)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.GreaterOrEqual(t, snap["cycle"].(float64), 1.0)
	assert.EqualValues(t, 1, snap["process_count"])

	top := snap["top_processes_by_memory"].([]any)
	require.Len(t, top, 1)
	assert.EqualValues(t, 42, top[0].(map[string]any)["pid"])
	assert.Equal(t, "worker --verbose", top[0].(map[string]any)["command"])
}

func TestRunJSONStreamEmitsNewCyclesUntilCancelled(t *testing.T) {
	a := &Application{
		Config: config.Config{
			Interval:   30 * time.Millisecond,
			TopN:       5,
			ProcRoot:   writeProcFixture(t),
			JSONStream: true,
		},
		ErrWriter: io.Discard,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	code := a.Run(ctx, &out)
	require.Equal(t, ExitOK, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)

	var first, last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Greater(t, last["cycle"].(float64), first["cycle"].(float64))
}
