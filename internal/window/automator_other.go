//go:build !linux && !darwin

package window

import "fmt"

// NewAutomator fails on platforms without an automation backend.
func NewAutomator() (Automator, error) {
	return nil, fmt.Errorf("window automation is not supported on this platform")
}

// RequiredTools lists the external binaries the backend shells out to.
func RequiredTools() []string { return nil }
