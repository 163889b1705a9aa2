package server

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"awimctl/internal/config"
	"awimctl/internal/status"
	"awimctl/internal/supervisor"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires a server around a stopped supervisor whose candidate
// binary does not exist, so enable attempts fail fast and deterministically.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := config.NewStore(t.TempDir())
	sup := supervisor.New(store, status.NewModel(), supervisor.Options{
		CandidatePaths: []string{filepath.Join(t.TempDir(), "missing", "awim")},
	})
	return New("localhost", 8912, store, sup)
}

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func snapshotOf(t *testing.T, result *mcp.CallToolResult) supervisor.Snapshot {
	t.Helper()
	require.False(t, result.IsError)
	var snap supervisor.Snapshot
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &snap))
	return snap
}

func TestHandleGetState(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleGetState(context.Background(), toolRequest(nil))
	require.NoError(t, err)

	snap := snapshotOf(t, result)
	assert.Equal(t, "127.0.0.1", snap.Address)
	assert.Equal(t, 1242, snap.Port)
	assert.Equal(t, "udp", snap.TransportMode)
	assert.False(t, snap.Running)
	assert.Equal(t, "Stopped", snap.Status)
}

func TestHandleValidateAddress(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantError bool
		wantValid bool
	}{
		{name: "valid", args: map[string]interface{}{"address": "10.0.0.5"}, wantValid: true},
		{name: "invalid", args: map[string]interface{}{"address": "steamdeck.local"}, wantValid: false},
		{name: "missing argument", args: map[string]interface{}{}, wantError: true},
		{name: "wrong type", args: map[string]interface{}{"address": 42.0}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleValidateAddress(context.Background(), toolRequest(tt.args))
			require.NoError(t, err)
			if tt.wantError {
				assert.True(t, result.IsError)
				return
			}

			var verdict map[string]bool
			require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &verdict))
			assert.Equal(t, tt.wantValid, verdict["valid"])
		})
	}
}

func TestHandleValidatePort(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantError bool
		wantValid bool
	}{
		{name: "valid", args: map[string]interface{}{"port": 4010.0}, wantValid: true},
		{name: "privileged", args: map[string]interface{}{"port": 80.0}, wantValid: false},
		{name: "fractional is rejected", args: map[string]interface{}{"port": 4010.5}, wantError: true},
		{name: "string is rejected", args: map[string]interface{}{"port": "4010"}, wantError: true},
		{name: "missing", args: map[string]interface{}{}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleValidatePort(context.Background(), toolRequest(tt.args))
			require.NoError(t, err)
			if tt.wantError {
				assert.True(t, result.IsError)
				return
			}

			var verdict map[string]bool
			require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &verdict))
			assert.Equal(t, tt.wantValid, verdict["valid"])
		})
	}
}

func TestHandleUpdateConfig(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleUpdateConfig(context.Background(), toolRequest(map[string]interface{}{
		"address": "192.168.1.20",
		"port":    5353.0,
	}))
	require.NoError(t, err)

	snap := snapshotOf(t, result)
	assert.Equal(t, "192.168.1.20", snap.Address)
	assert.Equal(t, 5353, snap.Port)

	// The store was actually updated, not just the reply.
	assert.Equal(t, "192.168.1.20", srv.store.Current().IP)
}

func TestHandleUpdateConfigRejectsInvalid(t *testing.T) {
	srv := newTestServer(t)
	before := srv.store.Current()

	result, err := srv.handleUpdateConfig(context.Background(), toolRequest(map[string]interface{}{
		"address": "not-an-ip",
		"port":    5353.0,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, before, srv.store.Current())
}

func TestHandleSetTransportMode(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleSetTransportMode(context.Background(), toolRequest(map[string]interface{}{
		"tcp": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "tcp", snapshotOf(t, result).TransportMode)

	result, err = srv.handleSetTransportMode(context.Background(), toolRequest(map[string]interface{}{
		"tcp": false,
	}))
	require.NoError(t, err)
	assert.Equal(t, "udp", snapshotOf(t, result).TransportMode)
}

func TestHandleSetEnabledStopIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleSetEnabled(context.Background(), toolRequest(map[string]interface{}{
		"enabled": false,
	}))
	require.NoError(t, err)

	snap := snapshotOf(t, result)
	assert.False(t, snap.Running)
	assert.Equal(t, "Stopped", snap.Status)
}

func TestHandleSetEnabledStartFailureIsToolError(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleSetEnabled(context.Background(), toolRequest(map[string]interface{}{
		"enabled": true,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "missing binary surfaces as a tool error, not a transport error")
}

func TestHandleSetEnabledWrongType(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleSetEnabled(context.Background(), toolRequest(map[string]interface{}{
		"enabled": "yes",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
