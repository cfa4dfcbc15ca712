package domain

// DefaultCastPort is the cast-control port used when a device address carries none.
const DefaultCastPort = 8009

// Device is a named cast target loaded once at startup.
//
// A Device is uniquely identified by its Name.
type Device struct {
	// Name is the registry key clients use in play requests.
	// Example: "Living Room speaker"
	Name string `json:"name" yaml:"name"`

	// Address is the network host of the device, optionally with a port.
	// Example: 192.168.1.50 or 192.168.1.50:8009
	Address string `json:"address" yaml:"address"`
}
