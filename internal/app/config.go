package app

// Config holds the application configuration assembled from command flags.
type Config struct {
	// UI mode
	NoTUI bool

	// Debug settings
	Debug bool

	// MCP endpoint the host UI connects to
	Host string
	Port int

	// SettingsDir overrides the settings directory; empty means the
	// host-provisioned or per-user default.
	SettingsDir string

	// WorkerRoot overrides the directory the awim binary is resolved
	// against; empty means the directory of the awimctl executable.
	WorkerRoot string
}

// NewConfig creates a new application configuration.
func NewConfig(noTUI, debug bool, host string, port int, settingsDir, workerRoot string) *Config {
	return &Config{
		NoTUI:       noTUI,
		Debug:       debug,
		Host:        host,
		Port:        port,
		SettingsDir: settingsDir,
		WorkerRoot:  workerRoot,
	}
}
