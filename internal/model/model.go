package model

import (
	"encoding/json"
	"time"
)

// CPUSample is one raw reading of kernel CPU time counters, in ticks.
// Total is the sum of every time column; Idle is the idle column alone.
type CPUSample struct {
	Total uint64 `json:"total"`
	Idle  uint64 `json:"idle"`
}

// CPUUsage is a derived busy percentage plus the raw ticks of the
// sample that produced it and the window deltas it was computed from.
type CPUUsage struct {
	Percent    float64 `json:"percent"`
	Total      uint64  `json:"total"`
	Idle       uint64  `json:"idle"`
	DeltaTotal uint64  `json:"delta_total"`
	DeltaIdle  uint64  `json:"delta_idle"`
}

// CoreUsage is CPUUsage for a single logical CPU.
type CoreUsage struct {
	Core    int     `json:"core"`
	Percent float64 `json:"percent"`
}

// MemoryStats is one raw reading of system memory counters, in KiB.
type MemoryStats struct {
	TotalKB     uint64 `json:"total_kb"`
	FreeKB      uint64 `json:"free_kb"`
	AvailableKB uint64 `json:"available_kb"`
	BuffersKB   uint64 `json:"buffers_kb"`
	CachedKB    uint64 `json:"cached_kb"`
	SwapTotalKB uint64 `json:"swap_total_kb"`
	SwapFreeKB  uint64 `json:"swap_free_kb"`
}

// MemoryUsage is the derived view of MemoryStats used for display.
// Available and the swap counters pass through unchanged.
type MemoryUsage struct {
	TotalKB     uint64  `json:"total_kb"`
	UsedKB      uint64  `json:"used_kb"`
	FreeKB      uint64  `json:"free_kb"`
	AvailableKB uint64  `json:"available_kb"`
	CachedKB    uint64  `json:"cached_kb"`
	SwapTotalKB uint64  `json:"swap_total_kb"`
	SwapFreeKB  uint64  `json:"swap_free_kb"`
	Percent     float64 `json:"percent"`
}

// DeriveMemoryUsage computes used memory as total minus free minus
// buffers minus cache. A reclaim burst can make that sum exceed total
// between reads; the difference clamps to zero rather than wrapping.
func DeriveMemoryUsage(s MemoryStats) MemoryUsage {
	reclaimable := s.FreeKB + s.BuffersKB + s.CachedKB
	var used uint64
	if s.TotalKB > reclaimable {
		used = s.TotalKB - reclaimable
	}
	u := MemoryUsage{
		TotalKB:     s.TotalKB,
		UsedKB:      used,
		FreeKB:      s.FreeKB,
		AvailableKB: s.AvailableKB,
		CachedKB:    s.BuffersKB + s.CachedKB,
		SwapTotalKB: s.SwapTotalKB,
		SwapFreeKB:  s.SwapFreeKB,
	}
	if s.TotalKB > 0 {
		u.Percent = float64(used) / float64(s.TotalKB) * 100
	}
	return u
}

// ProcState is a process or thread scheduling state.
type ProcState uint8

const (
	StateUnknown ProcState = iota
	StateRunning
	StateSleeping
	StateWaiting
	StateZombie
	StateStopped
)

func (s ProcState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateWaiting:
		return "waiting"
	case StateZombie:
		return "zombie"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its lowercase name so exported
// snapshots stay readable without the enum table.
func (s ProcState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON. Unrecognized
// names decode as StateUnknown.
func (s *ProcState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "running":
		*s = StateRunning
	case "sleeping":
		*s = StateSleeping
	case "waiting":
		*s = StateWaiting
	case "zombie":
		*s = StateZombie
	case "stopped":
		*s = StateStopped
	default:
		*s = StateUnknown
	}
	return nil
}

// ProcessRecord is one process as seen during a catalog pass.
// Owner is "unknown" when the owning uid cannot be resolved, and
// ResidentKB is zero for kernel threads and unreadable processes.
type ProcessRecord struct {
	PID        uint32    `json:"pid"`
	Name       string    `json:"name"`
	Owner      string    `json:"owner"`
	State      ProcState `json:"state"`
	ResidentKB uint64    `json:"resident_kb"`
	Threads    uint32    `json:"threads"`
	Command    string    `json:"command,omitempty"`
}

// ThreadRecord is one thread of a sampled process.
type ThreadRecord struct {
	TID   uint32    `json:"tid"`
	PID   uint32    `json:"pid"`
	Name  string    `json:"name"`
	Owner string    `json:"owner"`
	State ProcState `json:"state"`
}

// ProcessDetails is the on-demand deep view of a single process:
// the full status table as reported by the kernel plus the
// reassembled command line.
type ProcessDetails struct {
	PID         uint32            `json:"pid"`
	CommandLine string            `json:"command_line,omitempty"`
	Status      map[string]string `json:"status"`
}

// PageUsage breaks a process's mapped memory into coarse buckets, in KiB.
// TotalKB covers every mapping; the named buckets cover only the
// regions that could be attributed.
type PageUsage struct {
	TotalKB uint64 `json:"total_kb"`
	CodeKB  uint64 `json:"code_kb"`
	HeapKB  uint64 `json:"heap_kb"`
	StackKB uint64 `json:"stack_kb"`
}

// FDInfo is one open file descriptor and where it points. Info carries
// a short kernel fdinfo excerpt for descriptors that have no path.
type FDInfo struct {
	FD     string `json:"fd"`
	Target string `json:"target"`
	Info   string `json:"info,omitempty"`
}

// OpenResources groups a process's descriptors by kind.
type OpenResources struct {
	OpenFiles  []FDInfo `json:"open_files"`
	Sockets    []FDInfo `json:"sockets"`
	Semaphores []FDInfo `json:"semaphores"`
}

// PartitionUsage is capacity accounting for one mounted filesystem.
type PartitionUsage struct {
	Device     string  `json:"device"`
	Mountpoint string  `json:"mountpoint"`
	FSType     string  `json:"fstype"`
	TotalBytes uint64  `json:"total_bytes"`
	UsedBytes  uint64  `json:"used_bytes"`
	FreeBytes  uint64  `json:"free_bytes"`
	Percent    float64 `json:"percent"`
}

// LoadAvg is the classic 1/5/15 minute run-queue averages.
type LoadAvg struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// HostInfo is static host identity sampled once per cycle.
type HostInfo struct {
	Hostname      string `json:"hostname"`
	KernelVersion string `json:"kernel_version"`
	CPUCount      int    `json:"cpu_count"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

// Snapshot is one complete sampling cycle. Snapshots are immutable
// once published: consumers may read them freely, never mutate them.
type Snapshot struct {
	Cycle     uint64        `json:"cycle"`
	Timestamp time.Time     `json:"timestamp"`
	Interval  time.Duration `json:"interval_ns"`

	CPU     CPUUsage    `json:"cpu"`
	PerCore []CoreUsage `json:"per_core,omitempty"`
	Memory  MemoryUsage `json:"memory"`
	Load    LoadAvg     `json:"load"`
	Host    HostInfo    `json:"host"`

	ProcessCount         int `json:"process_count"`
	ReportedThreadCount  int `json:"reported_thread_count"`
	SampledThreadRecords int `json:"sampled_thread_records"`

	Processes            []ProcessRecord  `json:"processes,omitempty"`
	ThreadRecords        []ThreadRecord   `json:"thread_records,omitempty"`
	TopProcessesByMemory []ProcessRecord  `json:"top_processes_by_memory"`
	Partitions           []PartitionUsage `json:"partitions,omitempty"`
}

// Zero returns an empty snapshot stamped with the current time. The
// store serves it until the first real cycle completes.
func Zero() Snapshot {
	return Snapshot{Timestamp: time.Now()}
}
