// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     version
// Description: Central version management for the auris services
// License:     MIT
// ============================================================================

package version

// Version constants for the auris services
const (
	// Suite version
	Suite = "1.0.0"

	// Service versions
	Listen = "1.0.0"
	Speak  = "1.0.0"
)

// ServiceVersion returns the version for a given service name
func ServiceVersion(name string) string {
	switch name {
	case "auris-listen":
		return Listen
	case "auris-speak":
		return Speak
	default:
		return Suite
	}
}
