// Package proctable enumerates processes and threads from a
// proc-format filesystem and serves the per-process deep views.
//
// Records are rebuilt from scratch every pass. A PID seen in two
// passes is two unrelated records; nothing here tracks identity over
// time.
package proctable

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"procscope/internal/ident"
	"procscope/internal/model"
	"procscope/internal/procfs"
)

// Default sampling caps. Thread records are a sampled detail view, not
// an exhaustive census; the caps keep a pass cheap on busy hosts.
const (
	DefaultMaxThreadsPerProcess = 5
	DefaultMaxThreadRecords     = 400
)

// Catalog reads the process table under one proc root. Owners resolve
// through the injected ident table, never the filesystem.
type Catalog struct {
	root   string
	idents *ident.Table
	log    zerolog.Logger

	// Caps are fields so tests can lower them.
	MaxThreadsPerProcess int
	MaxThreadRecords     int

	rootWarn sync.Once
}

// NewCatalog returns a Catalog over root, or the live procfs mount
// when root is empty.
func NewCatalog(root string, idents *ident.Table, log zerolog.Logger) *Catalog {
	if root == "" {
		root = procfs.DefaultRoot
	}
	return &Catalog{
		root:                 root,
		idents:               idents,
		log:                  log,
		MaxThreadsPerProcess: DefaultMaxThreadsPerProcess,
		MaxThreadRecords:     DefaultMaxThreadRecords,
	}
}

// Enumerate walks every numeric entry under the root and returns one
// record per readable process plus a capped sample of thread records.
// A PID whose status cannot be read (it exited mid-scan, or the mount
// hides it) is skipped; the pass itself never fails. A missing root
// yields empty slices and a single warning for the life of the catalog.
func (c *Catalog) Enumerate() ([]model.ProcessRecord, []model.ThreadRecord) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		c.rootWarn.Do(func() {
			c.log.Warn().Str("root", c.root).Err(err).Msg("process table unavailable")
		})
		return nil, nil
	}

	pids := make([]uint32, 0, len(entries))
	for _, e := range entries {
		pid, err := strconv.ParseUint(e.Name(), 10, 32)
		if err != nil {
			continue
		}
		pids = append(pids, uint32(pid))
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	procs := make([]model.ProcessRecord, 0, len(pids))
	var threads []model.ThreadRecord
	for _, pid := range pids {
		rec, ok := c.readProcess(pid)
		if !ok {
			continue
		}
		procs = append(procs, rec)
		if len(threads) < c.MaxThreadRecords {
			threads = append(threads, c.readThreads(rec)...)
		}
	}
	return procs, threads
}

// TopByMemory returns the limit largest residents. Zero-resident
// records (kernel threads, unreadable processes) are excluded, ties
// keep their enumeration order, and the input is never reordered.
// Negative limits mean no truncation.
func TopByMemory(procs []model.ProcessRecord, limit int) []model.ProcessRecord {
	eligible := make([]model.ProcessRecord, 0, len(procs))
	for _, p := range procs {
		if p.ResidentKB > 0 {
			eligible = append(eligible, p)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].ResidentKB > eligible[j].ResidentKB
	})
	if limit >= 0 && len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible
}

// readProcess parses <pid>/status into a record. ok is false when the
// file cannot be read at all.
func (c *Catalog) readProcess(pid uint32) (model.ProcessRecord, bool) {
	f, err := os.Open(filepath.Join(c.procDir(pid), "status"))
	if err != nil {
		return model.ProcessRecord{}, false
	}
	defer f.Close()

	// Kernel threads have no VmRSS line; every process has at least
	// one thread even when the Threads line is missing.
	rec := model.ProcessRecord{PID: pid, Name: "unknown", Owner: "unknown", Threads: 1}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, rest, ok := splitStatusLine(sc.Text())
		if !ok {
			continue
		}
		switch key {
		case "Name":
			rec.Name = rest
		case "State":
			rec.State = stateFromStatus(rest)
		case "Uid":
			if uid, ok := firstUint(rest, 32); ok {
				rec.Owner = c.idents.User(uint32(uid))
			}
		case "VmRSS":
			if kb, ok := firstUint(rest, 64); ok {
				rec.ResidentKB = kb
			}
		case "Threads":
			if n, ok := firstUint(rest, 32); ok {
				rec.Threads = uint32(n)
			}
		}
	}
	return rec, true
}

// readThreads samples up to MaxThreadsPerProcess thread records for
// one process. Thread state comes from the per-thread status file and
// falls back to the parent's state; name and owner are inherited.
func (c *Catalog) readThreads(parent model.ProcessRecord) []model.ThreadRecord {
	entries, err := os.ReadDir(filepath.Join(c.procDir(parent.PID), "task"))
	if err != nil {
		return nil
	}

	tids := make([]uint32, 0, len(entries))
	for _, e := range entries {
		tid, err := strconv.ParseUint(e.Name(), 10, 32)
		if err != nil {
			continue
		}
		tids = append(tids, uint32(tid))
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })
	if len(tids) > c.MaxThreadsPerProcess {
		tids = tids[:c.MaxThreadsPerProcess]
	}

	out := make([]model.ThreadRecord, 0, len(tids))
	for _, tid := range tids {
		state := parent.State
		if st, ok := c.readThreadState(parent.PID, tid); ok {
			state = st
		}
		out = append(out, model.ThreadRecord{
			TID:   tid,
			PID:   parent.PID,
			Name:  parent.Name,
			Owner: parent.Owner,
			State: state,
		})
	}
	return out
}

// readThreadState pulls just the State line from a thread's status.
func (c *Catalog) readThreadState(pid, tid uint32) (model.ProcState, bool) {
	path := filepath.Join(c.procDir(pid), "task", strconv.FormatUint(uint64(tid), 10), "status")
	f, err := os.Open(path)
	if err != nil {
		return model.StateUnknown, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if key, rest, ok := splitStatusLine(sc.Text()); ok && key == "State" {
			return stateFromStatus(rest), true
		}
	}
	return model.StateUnknown, false
}

func (c *Catalog) procDir(pid uint32) string {
	return filepath.Join(c.root, strconv.FormatUint(uint64(pid), 10))
}

// splitStatusLine cuts "Key:\tvalue" into its trimmed halves.
func splitStatusLine(line string) (key, value string, ok bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// stateFromStatus maps a status State value like "S (sleeping)" to the
// enum. Unrecognized letters are Unknown; idle kernel threads ("I")
// land there intentionally.
func stateFromStatus(value string) model.ProcState {
	if value == "" {
		return model.StateUnknown
	}
	switch value[0] {
	case 'R':
		return model.StateRunning
	case 'S':
		return model.StateSleeping
	case 'D':
		return model.StateWaiting
	case 'Z':
		return model.StateZombie
	case 'T':
		return model.StateStopped
	default:
		return model.StateUnknown
	}
}

// firstUint parses the first whitespace-separated field of a status
// value, for lines like "VmRSS:  123 kB" or "Uid: 1000 1000 1000 1000".
func firstUint(value string, bits int) (uint64, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(fields[0], 10, bits)
	if err != nil {
		return 0, false
	}
	return v, true
}
