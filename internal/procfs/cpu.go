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

// CPUSample reads the aggregate cpu line from stat. Total is the sum
// of every time column so steal and guest time count as busy; Idle is
// the fourth column alone.
func (s *Source) CPUSample() (model.CPUSample, error) {
	f, err := os.Open(filepath.Join(s.root, "stat"))
	if err != nil {
		return model.CPUSample{}, fmt.Errorf("read cpu counters: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "cpu" {
			continue
		}
		return parseCPULine(fields)
	}
	if err := sc.Err(); err != nil {
		return model.CPUSample{}, fmt.Errorf("read cpu counters: %w", err)
	}
	return model.CPUSample{}, fmt.Errorf("stat has no aggregate cpu line: %w", ErrMalformed)
}

// PerCoreCPUSamples reads every cpuN line from stat, in file order.
// A core line that fails to parse is skipped rather than failing the
// whole read.
func (s *Source) PerCoreCPUSamples() ([]model.CPUSample, error) {
	f, err := os.Open(filepath.Join(s.root, "stat"))
	if err != nil {
		return nil, fmt.Errorf("read per-core counters: %w", err)
	}
	defer f.Close()

	var out []model.CPUSample
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || !isCoreLabel(fields[0]) {
			continue
		}
		smp, err := parseCPULine(fields)
		if err != nil {
			s.log.Debug().Str("label", fields[0]).Msg("skipping unparseable core line")
			continue
		}
		out = append(out, smp)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read per-core counters: %w", err)
	}
	return out, nil
}

// Uptime reads seconds since boot from the uptime file.
func (s *Source) Uptime() (float64, error) {
	b, err := os.ReadFile(filepath.Join(s.root, "uptime"))
	if err != nil {
		return 0, fmt.Errorf("read uptime: %w", err)
	}
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return 0, fmt.Errorf("uptime is empty: %w", ErrMalformed)
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("uptime %q: %w", fields[0], ErrMalformed)
	}
	return secs, nil
}

// parseCPULine turns "cpuN t0 t1 t2 t3 ..." into a sample. At least
// four time columns must be present so the idle column exists.
func parseCPULine(fields []string) (model.CPUSample, error) {
	if len(fields) < 5 {
		return model.CPUSample{}, fmt.Errorf("cpu line has %d fields: %w", len(fields), ErrMalformed)
	}
	var smp model.CPUSample
	for i, raw := range fields[1:] {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return model.CPUSample{}, fmt.Errorf("cpu field %q: %w", raw, ErrMalformed)
		}
		smp.Total += v
		if i == 3 {
			smp.Idle = v
		}
	}
	return smp, nil
}

// isCoreLabel reports whether label names a single core (cpu0, cpu1,
// ...) as opposed to the aggregate "cpu" line.
func isCoreLabel(label string) bool {
	if !strings.HasPrefix(label, "cpu") || label == "cpu" {
		return false
	}
	_, err := strconv.Atoi(label[3:])
	return err == nil
}
