package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMemoryUsage(t *testing.T) {
	u := DeriveMemoryUsage(MemoryStats{
		TotalKB:     16000000,
		FreeKB:      8000000,
		BuffersKB:   200000,
		CachedKB:    1800000,
		AvailableKB: 9500000,
		SwapTotalKB: 4000000,
		SwapFreeKB:  4000000,
	})
	assert.Equal(t, uint64(6000000), u.UsedKB)
	assert.Equal(t, uint64(2000000), u.CachedKB)
	assert.InDelta(t, 37.5, u.Percent, 1e-9)
	assert.Equal(t, uint64(9500000), u.AvailableKB)
	assert.Equal(t, uint64(4000000), u.SwapTotalKB)
	assert.Equal(t, uint64(4000000), u.SwapFreeKB)
}

func TestDeriveMemoryUsageZeroTotal(t *testing.T) {
	u := DeriveMemoryUsage(MemoryStats{})
	assert.Zero(t, u.UsedKB)
	assert.Zero(t, u.Percent)
}

func TestDeriveMemoryUsageClampsUnderflow(t *testing.T) {
	// Counters read at slightly different moments can sum past total.
	u := DeriveMemoryUsage(MemoryStats{
		TotalKB:   1000,
		FreeKB:    600,
		BuffersKB: 300,
		CachedKB:  200,
	})
	assert.Zero(t, u.UsedKB)
	assert.Zero(t, u.Percent)
}

func TestProcStateJSONRoundTrip(t *testing.T) {
	states := []ProcState{
		StateRunning, StateSleeping, StateWaiting,
		StateZombie, StateStopped, StateUnknown,
	}
	for _, want := range states {
		b, err := json.Marshal(want)
		require.NoError(t, err)

		var got ProcState
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, want, got, "state %s", want)
	}
}

func TestProcStateUnmarshalUnrecognized(t *testing.T) {
	var s ProcState
	require.NoError(t, json.Unmarshal([]byte(`"paging"`), &s))
	assert.Equal(t, StateUnknown, s)
}

func TestZeroSnapshotIsStamped(t *testing.T) {
	s := Zero()
	assert.False(t, s.Timestamp.IsZero())
	assert.Zero(t, s.Cycle)
	assert.Empty(t, s.Processes)
}
