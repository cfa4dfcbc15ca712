package devices

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads the static device map from a YAML file and/or an inline list.
type Loader struct {
	filePath string
	inline   string
}

// NewLoader creates a loader. Either argument may be empty.
func NewLoader(filePath, inline string) *Loader {
	return &Loader{
		filePath: filePath,
		inline:   inline,
	}
}

// Load returns the raw device entries, file entries first.
func (l *Loader) Load() ([]DeviceProps, error) {
	var props []DeviceProps

	if l.filePath != "" {
		data, err := os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read devices file: %w", err)
		}

		// ${VAR} references let addresses live in the environment
		data = []byte(os.ExpandEnv(string(data)))

		var file File
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse devices yaml: %w", err)
		}
		props = append(props, file.Devices...)
	}

	inline, err := ParseInline(l.inline)
	if err != nil {
		return nil, err
	}
	props = append(props, inline...)

	return props, nil
}

// ParseInline parses "name=host[:port]" pairs separated by commas.
// Example: "Kitchen=192.168.1.50, Living Room=192.168.1.51:8009"
func ParseInline(s string) ([]DeviceProps, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var props []DeviceProps
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, addr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid device entry %q, want name=address", pair)
		}
		props = append(props, DeviceProps{
			Name:    strings.TrimSpace(name),
			Address: strings.TrimSpace(addr),
		})
	}
	return props, nil
}
