package procfs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"procscope/internal/model"
)

// MemoryStats reads the counters procscope cares about from meminfo.
// Keys that are absent or unparseable leave their field at zero; only
// an unreadable file is an error.
func (s *Source) MemoryStats() (model.MemoryStats, error) {
	f, err := os.Open(filepath.Join(s.root, "meminfo"))
	if err != nil {
		return model.MemoryStats{}, fmt.Errorf("read memory counters: %w", err)
	}
	defer f.Close()

	var stats model.MemoryStats
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, ok := parseMeminfoLine(sc.Text())
		if !ok {
			continue
		}
		switch key {
		case "MemTotal":
			stats.TotalKB = val
		case "MemFree":
			stats.FreeKB = val
		case "MemAvailable":
			stats.AvailableKB = val
		case "Buffers":
			stats.BuffersKB = val
		case "Cached":
			stats.CachedKB = val
		case "SwapTotal":
			stats.SwapTotalKB = val
		case "SwapFree":
			stats.SwapFreeKB = val
		}
	}
	if err := sc.Err(); err != nil {
		return model.MemoryStats{}, fmt.Errorf("read memory counters: %w", err)
	}
	return stats, nil
}

// parseMeminfoLine parses "Key: value kB". The unit suffix is
// ignored; meminfo values are always KiB.
func parseMeminfoLine(line string) (string, uint64, bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	fields := strings.Fields(parts[1])
	if len(fields) == 0 {
		return "", 0, false
	}
	v, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(parts[0]), v, true
}
