package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/movingc/igc/internal/testing/require"
)

func TestDoMainStressRunSucceeds(t *testing.T) {
	var stdOut, stdErr bytes.Buffer
	code := doMain(&stdOut, &stdErr, []string{
		"-cells=50", "-cycles=3", "-nursery=16 KB", "-old=64 KB",
	})
	require.Equal(t, 0, code)
	require.Equal(t, 0, stdErr.Len())
	require.True(t, strings.Contains(stdOut.String(), "ok: 50 cells survived 3 cycles"))
	require.True(t, strings.Contains(stdOut.String(), "cycle  0:"))
}

func TestDoMainInvalidGenerationCapacityFails(t *testing.T) {
	var stdOut, stdErr bytes.Buffer
	code := doMain(&stdOut, &stdErr, []string{"-nursery=not-a-size"})
	require.Equal(t, 1, code)
	require.True(t, strings.Contains(stdErr.String(), "igcdemo:"))
}

func TestDoMainBadFlagFails(t *testing.T) {
	var stdOut, stdErr bytes.Buffer
	code := doMain(&stdOut, &stdErr, []string{"-not-a-flag"})
	require.Equal(t, 1, code)
}
