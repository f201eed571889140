package config

import (
	"bytes"
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 50, cfg.TopN)
	assert.Equal(t, "/proc", cfg.ProcRoot)
	assert.False(t, cfg.JSON)
	assert.False(t, cfg.JSONStream)
}

func TestFromFlags(t *testing.T) {
	var errBuf bytes.Buffer
	cfg, err := FromFlags("procscope",
		[]string{"-interval", "250ms", "-json-stream", "-debug", "-log-file", "/tmp/p.log", "-dir", "/var"},
		&errBuf)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.True(t, cfg.JSONStream)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/tmp/p.log", cfg.LogFile)
	assert.Equal(t, "/var", cfg.StartDir)
}

func TestFromFlagsBadFlag(t *testing.T) {
	var errBuf bytes.Buffer
	_, err := FromFlags("procscope", []string{"-no-such-flag"}, &errBuf)
	require.Error(t, err)
	assert.Contains(t, errBuf.String(), "flag")
}

func TestFromFlagsHelp(t *testing.T) {
	var errBuf bytes.Buffer
	_, err := FromFlags("procscope", []string{"-h"}, &errBuf)
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROCSCOPE_INTERVAL", "2s")
	t.Setenv("PROCSCOPE_DEBUG", "1")
	t.Setenv("PROCSCOPE_LOG", "/tmp/env.log")

	var errBuf bytes.Buffer
	cfg, err := FromFlags("procscope", nil, &errBuf)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/tmp/env.log", cfg.LogFile)
}

func TestEnvIntervalBareSeconds(t *testing.T) {
	t.Setenv("PROCSCOPE_INTERVAL", "5")

	var errBuf bytes.Buffer
	cfg, err := FromFlags("procscope", nil, &errBuf)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Interval)
}

func TestNonPositiveIntervalFallsBack(t *testing.T) {
	var errBuf bytes.Buffer
	cfg, err := FromFlags("procscope", []string{"-interval", "-3s"}, &errBuf)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Interval)
}
