package procfs

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"

	"procscope/internal/model"
)

// LoadAverage returns the 1/5/15 minute load averages.
func (s *Source) LoadAverage() (model.LoadAvg, error) {
	avg, err := load.Avg()
	if err != nil {
		return model.LoadAvg{}, err
	}
	return model.LoadAvg{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}, nil
}

// HostInfo returns host identity and uptime. Best effort: fields whose
// lookup fails stay zero.
func (s *Source) HostInfo() model.HostInfo {
	var info model.HostInfo
	if hi, err := host.Info(); err == nil {
		info.Hostname = hi.Hostname
		info.KernelVersion = hi.KernelVersion
		info.UptimeSeconds = hi.Uptime
	} else {
		s.log.Debug().Err(err).Msg("host info unavailable")
	}
	if n, err := cpu.Counts(true); err == nil {
		info.CPUCount = n
	}
	return info
}
