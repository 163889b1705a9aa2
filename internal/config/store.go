package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"awimctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

// ValidateAddress reports whether s is a syntactically valid IPv4 or IPv6
// literal.
func ValidateAddress(s string) bool {
	return net.ParseIP(s) != nil
}

// ValidatePort reports whether n is a usable unprivileged port.
func ValidatePort(n int) bool {
	return n >= 1024 && n <= 65535
}

// Store owns the worker settings record and its on-disk copy. Every
// successful mutation is persisted immediately; persistence failures are
// logged and swallowed, so a read-only filesystem degrades to in-memory
// settings rather than breaking the supervisor.
type Store struct {
	mu      sync.Mutex
	path    string
	current WorkerSettings
}

// NewStore creates a store backed by <dir>/settings.yaml and loads whatever
// is currently persisted there.
func NewStore(dir string) *Store {
	s := &Store{path: filepath.Join(dir, settingsFileName)}
	s.current = s.load()
	return s
}

// Current returns the active settings.
func (s *Store) Current() WorkerSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update validates and applies a new address/port pair, persisting on
// success.
func (s *Store) Update(address string, port int) (WorkerSettings, error) {
	if !ValidateAddress(address) {
		return WorkerSettings{}, fmt.Errorf("IP must be a valid IPv4 or IPv6 address, got %q", address)
	}
	if !ValidatePort(port) {
		return WorkerSettings{}, fmt.Errorf("port must be in range 1024-65535, got %d", port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.IP = address
	s.current.Port = port
	s.save()
	return s.current, nil
}

// SetTCPMode switches the worker transport and persists the change.
func (s *Store) SetTCPMode(enabled bool) WorkerSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.TCPMode = enabled
	s.save()
	return s.current
}

// load reads the settings file, falling back to the default for each field
// that is missing or invalid. Any read or parse failure yields the full
// defaults; loading never fails hard.
func (s *Store) load() WorkerSettings {
	defaults := DefaultSettings()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Config", "Failed to read settings from %s: %v", s.path, err)
		}
		return defaults
	}

	var loaded WorkerSettings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		logging.Warn("Config", "Failed to parse settings from %s: %v", s.path, err)
		return defaults
	}

	if ValidateAddress(loaded.IP) {
		defaults.IP = loaded.IP
	}
	if ValidatePort(loaded.Port) {
		defaults.Port = loaded.Port
	}
	defaults.TCPMode = loaded.TCPMode

	return defaults
}

// save writes the current settings. Best effort: a crash mid-write may lose
// the record, which load() recovers from via defaults.
func (s *Store) save() {
	data, err := yaml.Marshal(&s.current)
	if err != nil {
		logging.Warn("Config", "Failed to marshal settings: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		logging.Warn("Config", "Failed to create settings directory: %v", err)
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logging.Warn("Config", "Failed to write settings to %s: %v", tmp, err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		logging.Warn("Config", "Failed to replace settings file %s: %v", s.path, err)
	}
}
