package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(99).String())
}

func TestCLILoggingWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Info("TestSub", "hello %s", "world")
	out := buf.String()
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "TestSub")
}

func TestTUIChannelDelivery(t *testing.T) {
	ch := InitForTUI(LevelDebug)
	defer CloseTUIChannel()

	wantErr := errors.New("boom")
	Error("TestSub", wantErr, "count %d", 3)

	var entry LogEntry
	select {
	case entry = <-ch:
	default:
		t.Fatal("expected an entry on the TUI channel")
	}

	assert.Equal(t, LevelError, entry.Level)
	assert.Equal(t, "TestSub", entry.Subsystem)
	assert.Equal(t, "count 3", entry.Message)
	require.Error(t, entry.Err)
	assert.Equal(t, wantErr, entry.Err)
}

func TestCloseTUIChannel(t *testing.T) {
	ch := InitForTUI(LevelDebug)
	CloseTUIChannel()

	_, open := <-ch
	assert.False(t, open)

	// Logging after close must not panic; it falls through to the logger.
	Info("TestSub", "after close")
}
