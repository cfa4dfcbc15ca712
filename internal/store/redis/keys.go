package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixDevice prefixes the per-device last play hash
	KeyPrefixDevice = "castplay:device:"
	// KeyTrackPlays is the sorted set of successful plays per track
	KeyTrackPlays = "castplay:tracks:plays"
	// KeyTrackLastPlayed maps track -> last successful play timestamp
	KeyTrackLastPlayed = "castplay:tracks:last"
)

// LastPlayKey returns the hash key holding the last play of a device
func LastPlayKey(device string) string {
	return KeyPrefixDevice + device + ":last"
}

// ExtractDeviceName extracts the device name from a last play key
func ExtractDeviceName(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixDevice) || !strings.HasSuffix(key, ":last") {
		return "", fmt.Errorf("invalid last play key: %s", key)
	}
	name := strings.TrimSuffix(strings.TrimPrefix(key, KeyPrefixDevice), ":last")
	if name == "" {
		return "", fmt.Errorf("invalid last play key: %s", key)
	}
	return name, nil
}
