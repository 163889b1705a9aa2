package config

// TransportMode selects the wire transport the worker uses to reach the
// server side of the bridge.
type TransportMode string

const (
	TransportUDP TransportMode = "udp"
	TransportTCP TransportMode = "tcp"
)

// WorkerSettings is the persisted configuration handed to the awim worker on
// launch. Unknown or invalid fields in the settings file fall back
// individually to their defaults; the record as a whole is never rejected.
type WorkerSettings struct {
	IP      string `yaml:"ip"`
	Port    int    `yaml:"port"`
	TCPMode bool   `yaml:"tcpMode"`
}

// Transport returns the transport mode implied by the TCPMode flag.
func (s WorkerSettings) Transport() TransportMode {
	if s.TCPMode {
		return TransportTCP
	}
	return TransportUDP
}
