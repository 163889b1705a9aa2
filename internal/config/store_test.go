package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{name: "loopback IPv4", address: "127.0.0.1", want: true},
		{name: "private IPv4", address: "192.168.1.50", want: true},
		{name: "IPv6", address: "fe80::1", want: true},
		{name: "IPv6 loopback", address: "::1", want: true},
		{name: "empty", address: "", want: false},
		{name: "hostname", address: "myserver.local", want: false},
		{name: "octet out of range", address: "256.1.1.1", want: false},
		{name: "trailing garbage", address: "127.0.0.1 ", want: false},
		{name: "missing octet", address: "10.0.0", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateAddress(tt.address))
		})
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name string
		port int
		want bool
	}{
		{name: "lower bound", port: 1024, want: true},
		{name: "upper bound", port: 65535, want: true},
		{name: "default worker port", port: 1242, want: true},
		{name: "privileged", port: 80, want: false},
		{name: "just below lower bound", port: 1023, want: false},
		{name: "above upper bound", port: 65536, want: false},
		{name: "zero", port: 0, want: false},
		{name: "negative", port: -1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePort(tt.port))
		})
	}
}

func TestNewStoreNoFileUsesDefaults(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.Equal(t, DefaultSettings(), store.Current())
}

func TestStoreUpdatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store := NewStore(dir)
	updated, err := store.Update("192.168.1.77", 4010)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.77", updated.IP)
	assert.Equal(t, 4010, updated.Port)

	reopened := NewStore(dir)
	assert.Equal(t, updated, reopened.Current())
}

func TestStoreUpdateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		address string
		port    int
	}{
		{name: "bad address", address: "not-an-ip", port: 4010},
		{name: "privileged port", address: "10.0.0.5", port: 80},
		{name: "port too large", address: "10.0.0.5", port: 70000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(t.TempDir())
			before := store.Current()

			_, err := store.Update(tt.address, tt.port)
			require.Error(t, err)
			assert.Equal(t, before, store.Current(), "failed update must not change settings")
		})
	}
}

func TestSetTCPModePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store := NewStore(dir)
	updated := store.SetTCPMode(true)
	assert.True(t, updated.TCPMode)
	assert.Equal(t, TransportTCP, updated.Transport())

	reopened := NewStore(dir)
	assert.True(t, reopened.Current().TCPMode)
}

func TestLoadCorruptedFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte("{{{ not yaml"), 0o644))

	store := NewStore(dir)
	assert.Equal(t, DefaultSettings(), store.Current())
}

func TestLoadInvalidFieldsFallBackIndividually(t *testing.T) {
	dir := t.TempDir()
	content := "ip: not-an-ip\nport: 80\ntcpMode: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte(content), 0o644))

	store := NewStore(dir)
	current := store.Current()
	assert.Equal(t, DefaultSettings().IP, current.IP, "invalid address falls back")
	assert.Equal(t, DefaultSettings().Port, current.Port, "out-of-range port falls back")
	assert.True(t, current.TCPMode, "valid field survives alongside invalid ones")
}

func TestLoadPartialFileKeepsValidFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte("port: 9000\n"), 0o644))

	store := NewStore(dir)
	current := store.Current()
	assert.Equal(t, DefaultSettings().IP, current.IP)
	assert.Equal(t, 9000, current.Port)
	assert.False(t, current.TCPMode)
}

func TestTransport(t *testing.T) {
	assert.Equal(t, TransportUDP, WorkerSettings{}.Transport())
	assert.Equal(t, TransportTCP, WorkerSettings{TCPMode: true}.Transport())
}

func TestDefaultSettingsDirEnvOverride(t *testing.T) {
	t.Setenv("AWIMCTL_SETTINGS_DIR", "/tmp/awimctl-test-settings")

	dir, err := DefaultSettingsDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/awimctl-test-settings", dir)
}

func TestDefaultSettingsDirUsesHome(t *testing.T) {
	t.Setenv("AWIMCTL_SETTINGS_DIR", "")

	originalHomeDir := osUserHomeDir
	osUserHomeDir = func() (string, error) { return "/home/deck", nil }
	defer func() { osUserHomeDir = originalHomeDir }()

	dir, err := DefaultSettingsDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/deck", ".config", "awimctl"), dir)
}
