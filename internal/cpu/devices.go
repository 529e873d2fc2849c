package cpu

import "github.com/avl-tools/tinyvm/internal/isa"

// Device is anything that can be mapped into a DeviceRegistry: a
// memory-mapped register that reads and writes one word. No MEM_* operand
// access reaches a Device; those always go to process RAM.
type Device interface {
	ReadDevice() isa.Word
	WriteDevice(isa.Word)
}

// DeviceRegistry is a small address-keyed map of memory-mapped devices. It
// is declared but unused: no effective-address resolution in this package
// consults it, and in/out instructions talk to the host directly rather
// than through a mapped device. It is exercised only by its own tests.
type DeviceRegistry struct {
	devices map[uint32]Device
}

// NewDeviceRegistry creates an empty registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{devices: make(map[uint32]Device)}
}

// Map attaches dev at addr, overwriting any device already mapped there.
func (r *DeviceRegistry) Map(addr uint32, dev Device) {
	r.devices[addr] = dev
}

// Get returns the device mapped at addr, if any.
func (r *DeviceRegistry) Get(addr uint32) (Device, bool) {
	dev, ok := r.devices[addr]
	return dev, ok
}
