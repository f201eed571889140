package sampler

import (
	"time"

	"github.com/rs/zerolog"

	"procscope/internal/model"
	"procscope/internal/proctable"
)

// CounterSource provides the raw system counters an engine folds into
// each snapshot. *procfs.Source is the production implementation.
type CounterSource interface {
	CPUSample() (model.CPUSample, error)
	PerCoreCPUSamples() ([]model.CPUSample, error)
	MemoryStats() (model.MemoryStats, error)
	Uptime() (float64, error)
	LoadAverage() (model.LoadAvg, error)
	HostInfo() model.HostInfo
	Partitions() []model.PartitionUsage
}

// ProcessLister walks the process table once per cycle and reads
// command lines for the handful of rows that surface in the by-memory
// selection. *proctable.Catalog is the production implementation.
type ProcessLister interface {
	Enumerate() ([]model.ProcessRecord, []model.ThreadRecord)
	CommandLine(pid uint32) string
}

// Engine assembles one snapshot per cycle. Every collector failure is
// logged and leaves its section at the zero value; a cycle always
// yields a snapshot.
type Engine struct {
	src   CounterSource
	procs ProcessLister
	log   zerolog.Logger

	topN     int
	interval time.Duration

	cycle   uint64
	cpu     CPUTracker
	perCore []CPUTracker
	host    model.HostInfo
}

// NewEngine wires an engine to its sources. Host identity is resolved
// once here; only uptime is refreshed per cycle. topN bounds the
// by-memory selection in each snapshot.
func NewEngine(src CounterSource, procs ProcessLister, topN int, interval time.Duration, log zerolog.Logger) *Engine {
	return &Engine{
		src:      src,
		procs:    procs,
		log:      log,
		topN:     topN,
		interval: interval,
		host:     src.HostInfo(),
	}
}

// BuildSnapshot runs one sampling cycle. Callers must treat the
// returned snapshot as immutable; it is handed to every reader as is.
func (e *Engine) BuildSnapshot() model.Snapshot {
	e.cycle++
	snap := model.Snapshot{
		Cycle:     e.cycle,
		Timestamp: time.Now(),
		Interval:  e.interval,
	}

	if smp, err := e.src.CPUSample(); err != nil {
		e.log.Error().Str("collector", "cpu").Err(err).Msg("collect failed")
	} else {
		snap.CPU = e.cpu.Update(smp)
	}

	if cores, err := e.src.PerCoreCPUSamples(); err != nil {
		e.log.Error().Str("collector", "percore").Err(err).Msg("collect failed")
	} else {
		snap.PerCore = e.updateCores(cores)
	}

	if stats, err := e.src.MemoryStats(); err != nil {
		e.log.Error().Str("collector", "memory").Err(err).Msg("collect failed")
	} else {
		snap.Memory = model.DeriveMemoryUsage(stats)
	}

	if avg, err := e.src.LoadAverage(); err != nil {
		e.log.Error().Str("collector", "load").Err(err).Msg("collect failed")
	} else {
		snap.Load = avg
	}

	snap.Host = e.host
	if up, err := e.src.Uptime(); err != nil {
		e.log.Debug().Str("collector", "uptime").Err(err).Msg("collect failed")
	} else {
		snap.Host.UptimeSeconds = uint64(up)
	}

	procs, threads := e.procs.Enumerate()
	snap.Processes = procs
	snap.ThreadRecords = threads
	snap.ProcessCount = len(procs)
	snap.SampledThreadRecords = len(threads)
	for _, p := range procs {
		snap.ReportedThreadCount += int(p.Threads)
	}
	top := proctable.TopByMemory(procs, e.topN)
	for i := range top {
		top[i].Command = e.procs.CommandLine(top[i].PID)
	}
	snap.TopProcessesByMemory = top

	snap.Partitions = e.src.Partitions()
	return snap
}

// updateCores feeds per-core trackers, growing the tracker set when
// cores appear. A core that goes offline keeps its tracker; its next
// sample simply spans a longer window.
func (e *Engine) updateCores(samples []model.CPUSample) []model.CoreUsage {
	if len(samples) > len(e.perCore) {
		e.perCore = append(e.perCore, make([]CPUTracker, len(samples)-len(e.perCore))...)
	}
	out := make([]model.CoreUsage, len(samples))
	for i, smp := range samples {
		u := e.perCore[i].Update(smp)
		out[i] = model.CoreUsage{Core: i, Percent: u.Percent}
	}
	return out
}
