//go:build !windows

package printer

import "fmt"

// NewPlatformDevice exists so the wiring compiles everywhere; shell-print
// platforms never take the device-context path.
func NewPlatformDevice() (Device, error) {
	return nil, fmt.Errorf("device-context printing is not available on this platform")
}
