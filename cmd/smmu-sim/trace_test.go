package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrace(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "trace.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func TestParseTraceFile(t *testing.T) {
	path := writeTrace(t, ""+
		"stream,0,1,1,0\n"+
		"context,0,1,0x1000,12,48\n"+
		"translate,0x1000,0,1,0\n")

	trace, err := parseTraceFile(path)
	require.NoError(t, err)

	require.Len(t, trace.streams, 1)
	assert.Equal(t, uint64(0), trace.streams[0].id)
	assert.True(t, trace.streams[0].valid)
	assert.True(t, trace.streams[0].s1Enabled)
	assert.False(t, trace.streams[0].s2Enabled)

	require.Len(t, trace.contexts, 1)
	assert.Equal(t, uint64(0x1000), trace.contexts[0].tableBase)
	assert.Equal(t, 12, trace.contexts[0].granuleBits)

	require.Len(t, trace.translates, 1)
	assert.Equal(t, uint64(0x1000), trace.translates[0].va)
}

func TestParseTraceFileRejectsUnknownRowKind(t *testing.T) {
	path := writeTrace(t, "bogus,1,2,3\n")

	_, err := parseTraceFile(path)
	assert.Error(t, err)
}

func TestParseTraceFileRejectsMalformedRow(t *testing.T) {
	path := writeTrace(t, "stream,0,1\n")

	_, err := parseTraceFile(path)
	assert.Error(t, err)
}
