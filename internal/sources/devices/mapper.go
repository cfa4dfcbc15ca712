package devices

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/castplay/internal/cast"
	"github.com/MrSnakeDoc/castplay/internal/domain"
)

// Mapper converts raw device entries to domain.Device values
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapDevices validates entries and rejects duplicate names.
func (m *Mapper) MapDevices(props []DeviceProps) ([]domain.Device, error) {
	devices := make([]domain.Device, 0, len(props))
	seen := make(map[string]bool, len(props))

	for _, p := range props {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("device with address %q has no name", p.Address)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate device name %q", name)
		}

		addr, err := normalizeAddress(p.Address)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", name, err)
		}

		seen[name] = true
		devices = append(devices, domain.Device{Name: name, Address: addr})
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices configured")
	}

	return devices, nil
}

// normalizeAddress trims the address and checks it the way the cast dialer
// will read it, so bare IPv6 literals are accepted.
// Example: " 192.168.1.50 " -> "192.168.1.50"
func normalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if _, _, err := cast.SplitAddress(addr); err != nil {
		return "", err
	}
	return addr, nil
}
