// Package state provides the library snapshot state of a session.
package state

// ScanPhase tracks the single-flight library scan.
type ScanPhase int

const (
	ScanIdle    ScanPhase = iota // No scan running
	ScanRunning                  // A scan is running
	ScanPending                  // A scan is running and another was requested
)

// String returns the string representation of the scan phase.
func (p ScanPhase) String() string {
	switch p {
	case ScanIdle:
		return "idle"
	case ScanRunning:
		return "running"
	case ScanPending:
		return "pending"
	default:
		return "unknown"
	}
}
