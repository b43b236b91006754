package config

import (
	"os"
	"strings"
)

// StrictDeviceBinding hardens login: when enabled, ANY device mismatch is
// treated as blocked, not just a mismatch on an admin-locked binding.
//
// Set via env:
// - STRICT_DEVICE_BINDING=true
func StrictDeviceBinding() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_DEVICE_BINDING")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// RejectMockLocations drops location samples whose payload carries the
// mock-location flag instead of only raising an alert.
//
// Set via env:
// - REJECT_MOCK_LOCATIONS=true
func RejectMockLocations() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REJECT_MOCK_LOCATIONS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
