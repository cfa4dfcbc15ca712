package devices

// File represents the top-level structure of devices.yaml
//
//	devices:
//	  - name: Living Room speaker
//	    address: 192.168.1.50
type File struct {
	Devices []DeviceProps `yaml:"devices"`
}

// DeviceProps contains a single device entry
type DeviceProps struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}
