package procfs

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procscope/internal/model"
)

const meminfoFixture = `MemTotal:       16000000 kB
MemFree:         8000000 kB
MemAvailable:   12000000 kB
Buffers:          200000 kB
Cached:          1800000 kB
SwapCached:            0 kB
Active:          3000000 kB
SwapTotal:       2000000 kB
SwapFree:        2000000 kB
Dirty:               100 kB
`

func TestMemoryStats(t *testing.T) {
	src := fixtureRoot(t, map[string]string{"meminfo": meminfoFixture})

	stats, err := src.MemoryStats()
	require.NoError(t, err)
	assert.Equal(t, model.MemoryStats{
		TotalKB:     16000000,
		FreeKB:      8000000,
		AvailableKB: 12000000,
		BuffersKB:   200000,
		CachedKB:    1800000,
		SwapTotalKB: 2000000,
		SwapFreeKB:  2000000,
	}, stats)
}

func TestMemoryStatsMissingKeysStayZero(t *testing.T) {
	src := fixtureRoot(t, map[string]string{"meminfo": "MemTotal: 1024 kB\n"})

	stats, err := src.MemoryStats()
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), stats.TotalKB)
	assert.Zero(t, stats.FreeKB)
	assert.Zero(t, stats.CachedKB)
}

func TestMemoryStatsSkipsMalformedLines(t *testing.T) {
	src := fixtureRoot(t, map[string]string{"meminfo": "garbage line\nMemFree: not-a-number kB\nMemTotal: 2048 kB\nMemFree:\n"})

	stats, err := src.MemoryStats()
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), stats.TotalKB)
	assert.Zero(t, stats.FreeKB)
}

func TestMemoryStatsUnreadable(t *testing.T) {
	src := New(t.TempDir(), zerolog.Nop())

	_, err := src.MemoryStats()
	require.Error(t, err)
}
