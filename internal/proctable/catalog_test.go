package proctable

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procscope/internal/ident"
	"procscope/internal/model"
)

// newTestCatalog builds a catalog over an empty fixture proc tree with
// root and alice in the identity table.
func newTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	idDir := t.TempDir()
	passwd := filepath.Join(idDir, "passwd")
	require.NoError(t, os.WriteFile(passwd, []byte(
		"root:x:0:0:root:/root:/bin/sh\nalice:x:1000:1000::/home/alice:/bin/sh\n"), 0o644))
	idents := ident.LoadPaths(zerolog.Nop(), passwd, filepath.Join(idDir, "group"))

	root := t.TempDir()
	return NewCatalog(root, idents, zerolog.Nop()), root
}

// statusBody renders a minimal status file. Negative rssKB or threads
// omit the corresponding line, like kernel threads do.
func statusBody(name, state, uid string, rssKB, threads int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:\t%s\n", name)
	fmt.Fprintf(&b, "State:\t%s\n", state)
	fmt.Fprintf(&b, "Uid:\t%s\t%s\t%s\t%s\n", uid, uid, uid, uid)
	if rssKB >= 0 {
		fmt.Fprintf(&b, "VmRSS:\t%8d kB\n", rssKB)
	}
	if threads >= 0 {
		fmt.Fprintf(&b, "Threads:\t%d\n", threads)
	}
	return b.String()
}

func addProc(t *testing.T, root, pid, status string) {
	t.Helper()
	dir := filepath.Join(root, pid)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if status != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte(status), 0o644))
	}
}

// addTask writes a thread status file; empty state leaves the State
// line out entirely.
func addTask(t *testing.T, root, pid, tid, state string) {
	t.Helper()
	dir := filepath.Join(root, pid, "task", tid)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	body := "Name:\tthr\n"
	if state != "" {
		body += "State:\t" + state + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte(body), 0o644))
}

func TestEnumerate(t *testing.T) {
	cat, root := newTestCatalog(t)

	addProc(t, root, "1", statusBody("init", "S (sleeping)", "0", 12000, 1))
	addTask(t, root, "1", "1", "S (sleeping)")

	addProc(t, root, "42", statusBody("worker", "R (running)", "1000", 250000, 3))
	addTask(t, root, "42", "42", "R (running)")
	addTask(t, root, "42", "43", "S (sleeping)")
	addTask(t, root, "42", "44", "")

	// Kernel thread: no VmRSS, no Threads, idle state.
	addProc(t, root, "77", "Name:\tkworker/0:1\nState:\tI (idle)\nUid:\t0\t0\t0\t0\n")

	addProc(t, root, "900", statusBody("orphan", "Z (zombie)", "4242", -1, 1))

	// Noise the walk must ignore.
	addProc(t, root, "3000", "") // vanished before its status was read
	require.NoError(t, os.MkdirAll(filepath.Join(root, "self"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uptime"), []byte("1 2\n"), 0o644))

	procs, threads := cat.Enumerate()

	require.Len(t, procs, 4)
	assert.Equal(t, model.ProcessRecord{
		PID: 1, Name: "init", Owner: "root",
		State: model.StateSleeping, ResidentKB: 12000, Threads: 1,
	}, procs[0])
	assert.Equal(t, model.ProcessRecord{
		PID: 42, Name: "worker", Owner: "alice",
		State: model.StateRunning, ResidentKB: 250000, Threads: 3,
	}, procs[1])
	assert.Equal(t, model.ProcessRecord{
		PID: 77, Name: "kworker/0:1", Owner: "root",
		State: model.StateUnknown, ResidentKB: 0, Threads: 1,
	}, procs[2])
	assert.Equal(t, model.ProcessRecord{
		PID: 900, Name: "orphan", Owner: "UID:4242",
		State: model.StateZombie, ResidentKB: 0, Threads: 1,
	}, procs[3])

	require.Len(t, threads, 4)
	assert.Equal(t, model.ThreadRecord{TID: 1, PID: 1, Name: "init", Owner: "root", State: model.StateSleeping}, threads[0])
	assert.Equal(t, uint32(42), threads[1].TID)
	assert.Equal(t, model.StateSleeping, threads[2].State)
	// No State line in the thread status falls back to the parent.
	assert.Equal(t, model.ThreadRecord{TID: 44, PID: 42, Name: "worker", Owner: "alice", State: model.StateRunning}, threads[3])
}

func TestEnumerateMissingRoot(t *testing.T) {
	cat, root := newTestCatalog(t)
	require.NoError(t, os.RemoveAll(root))

	procs, threads := cat.Enumerate()
	assert.Empty(t, procs)
	assert.Empty(t, threads)
}

func TestEnumeratePerProcessThreadCap(t *testing.T) {
	cat, root := newTestCatalog(t)
	cat.MaxThreadsPerProcess = 2

	addProc(t, root, "10", statusBody("many", "S (sleeping)", "0", 100, 7))
	for _, tid := range []string{"10", "11", "12", "13", "14", "15", "16"} {
		addTask(t, root, "10", tid, "S (sleeping)")
	}

	_, threads := cat.Enumerate()
	require.Len(t, threads, 2)
	assert.Equal(t, uint32(10), threads[0].TID)
	assert.Equal(t, uint32(11), threads[1].TID)
}

func TestEnumerateGlobalThreadGate(t *testing.T) {
	cat, root := newTestCatalog(t)
	cat.MaxThreadsPerProcess = 3
	cat.MaxThreadRecords = 4

	for _, pid := range []string{"100", "200", "300"} {
		addProc(t, root, pid, statusBody("p"+pid, "S (sleeping)", "0", 10, 3))
		for i := 0; i < 3; i++ {
			addTask(t, root, pid, fmt.Sprintf("%s%d", pid, i), "S (sleeping)")
		}
	}

	procs, threads := cat.Enumerate()

	// The gate closes between processes, so the second batch lands in
	// full and the third is never collected. Every process still has a
	// record.
	require.Len(t, procs, 3)
	assert.Len(t, threads, 6)
	for _, th := range threads {
		assert.NotEqual(t, uint32(300), th.PID)
	}
}

func TestStateFromStatus(t *testing.T) {
	cases := []struct {
		value string
		want  model.ProcState
	}{
		{"R (running)", model.StateRunning},
		{"S (sleeping)", model.StateSleeping},
		{"D (disk sleep)", model.StateWaiting},
		{"Z (zombie)", model.StateZombie},
		{"T (stopped)", model.StateStopped},
		{"t (tracing stop)", model.StateUnknown},
		{"I (idle)", model.StateUnknown},
		{"", model.StateUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stateFromStatus(tc.value), "value %q", tc.value)
	}
}

func TestTopByMemory(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 1, ResidentKB: 10},
		{PID: 2, ResidentKB: 50},
		{PID: 3, ResidentKB: 30},
	}

	top := TopByMemory(procs, 2)
	require.Len(t, top, 2)
	assert.Equal(t, uint32(2), top[0].PID)
	assert.Equal(t, uint32(3), top[1].PID)

	// The input order is untouched.
	assert.Equal(t, uint32(1), procs[0].PID)
}

func TestTopByMemoryFiltersZeroResidents(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 1, ResidentKB: 0},
		{PID: 2, ResidentKB: 5},
		{PID: 3, ResidentKB: 0},
	}

	top := TopByMemory(procs, 10)
	require.Len(t, top, 1)
	assert.Equal(t, uint32(2), top[0].PID)
}

func TestTopByMemoryTiesKeepEnumerationOrder(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 5, ResidentKB: 100},
		{PID: 9, ResidentKB: 200},
		{PID: 7, ResidentKB: 100},
	}

	top := TopByMemory(procs, -1)
	require.Len(t, top, 3)
	assert.Equal(t, []uint32{9, 5, 7}, []uint32{top[0].PID, top[1].PID, top[2].PID})
}

func TestTopByMemoryLimits(t *testing.T) {
	procs := []model.ProcessRecord{{PID: 1, ResidentKB: 1}, {PID: 2, ResidentKB: 2}}

	assert.Empty(t, TopByMemory(procs, 0))
	assert.Len(t, TopByMemory(procs, -1), 2)
	assert.Len(t, TopByMemory(procs, 99), 2)
}

func TestTopByMemoryIdempotent(t *testing.T) {
	procs := []model.ProcessRecord{
		{PID: 1, ResidentKB: 30},
		{PID: 2, ResidentKB: 30},
		{PID: 3, ResidentKB: 90},
	}

	once := TopByMemory(procs, 2)
	twice := TopByMemory(once, 2)
	assert.Equal(t, once, twice)
}
