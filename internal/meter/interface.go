package meter

// Controller drives a meter through its monitor and measurement modes.
// Implementations are not safe for concurrent use.
type Controller interface {
	EnableMonitor() error
	DisableMonitor() error
	StartMeasurement() error
	StopMeasurement() error

	Device() string
	MonitorEnabled() bool
	Closed() bool
}
