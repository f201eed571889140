package procfs

import (
	"github.com/shirou/gopsutil/v3/disk"

	"procscope/internal/model"
)

// Partitions returns usage for every mounted physical filesystem.
// Mounts whose statfs fails (stale NFS, permission) are skipped.
func (s *Source) Partitions() []model.PartitionUsage {
	parts, err := disk.Partitions(false)
	if err != nil {
		s.log.Warn().Err(err).Msg("partition enumeration failed")
		return nil
	}
	out := make([]model.PartitionUsage, 0, len(parts))
	for _, p := range parts {
		u, err := disk.Usage(p.Mountpoint)
		if err != nil {
			s.log.Debug().Str("mountpoint", p.Mountpoint).Err(err).Msg("skipping mount")
			continue
		}
		out = append(out, model.PartitionUsage{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			FSType:     p.Fstype,
			TotalBytes: u.Total,
			UsedBytes:  u.Used,
			FreeBytes:  u.Free,
			Percent:    u.UsedPercent,
		})
	}
	return out
}

// PartitionDevices lists the device names behind the mounted physical
// filesystems, in mount table order.
func (s *Source) PartitionDevices() []string {
	parts, err := disk.Partitions(false)
	if err != nil {
		s.log.Warn().Err(err).Msg("partition enumeration failed")
		return nil
	}
	devices := make([]string, 0, len(parts))
	for _, p := range parts {
		devices = append(devices, p.Device)
	}
	return devices
}

// PartitionUsage returns usage for the partition mounted from device,
// matching either the device path or the mountpoint.
func (s *Source) PartitionUsage(device string) (model.PartitionUsage, bool) {
	for _, p := range s.Partitions() {
		if p.Device == device || p.Mountpoint == device {
			return p, true
		}
	}
	return model.PartitionUsage{}, false
}
