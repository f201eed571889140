package sampler

import "procscope/internal/model"

// CPUTracker turns successive counter samples into busy percentages
// over the window between calls. One tracker per counter feed; not
// safe for concurrent use, the sampling goroutine is the only caller.
type CPUTracker struct {
	last   model.CPUSample
	primed bool
}

// Update folds in the next sample and returns usage for the elapsed
// window. The first call only establishes the baseline and reports
// zero. A non-advancing or rewound counter (deltaTotal <= 0) also
// reports zero, and the baseline still moves forward so a single bad
// read costs exactly one window.
//
// The percentage is not clamped: if idle moves backward relative to
// total the result can exceed 100, which is reported as read.
func (t *CPUTracker) Update(s model.CPUSample) model.CPUUsage {
	prev, primed := t.last, t.primed
	t.last, t.primed = s, true

	usage := model.CPUUsage{Total: s.Total, Idle: s.Idle}
	if !primed {
		return usage
	}
	deltaTotal := int64(s.Total) - int64(prev.Total)
	deltaIdle := int64(s.Idle) - int64(prev.Idle)
	if deltaTotal <= 0 {
		return usage
	}

	usage.Percent = float64(deltaTotal-deltaIdle) / float64(deltaTotal) * 100
	usage.DeltaTotal = uint64(deltaTotal)
	if deltaIdle > 0 {
		usage.DeltaIdle = uint64(deltaIdle)
	}
	return usage
}
