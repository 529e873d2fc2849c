package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avl-tools/tinyvm/internal/cpu"
	"github.com/avl-tools/tinyvm/internal/isa"
)

type fakeDevice struct {
	value isa.Word
}

func (d *fakeDevice) ReadDevice() isa.Word   { return d.value }
func (d *fakeDevice) WriteDevice(w isa.Word) { d.value = w }

func TestDeviceRegistryMapAndGet(t *testing.T) {
	reg := cpu.NewDeviceRegistry()

	_, ok := reg.Get(0x1000)
	assert.False(t, ok)

	dev := &fakeDevice{value: 7}
	reg.Map(0x1000, dev)

	got, ok := reg.Get(0x1000)
	require := assert.New(t)
	require.True(ok)
	require.Equal(isa.Word(7), got.ReadDevice())
}

func TestDeviceRegistryMapOverwrites(t *testing.T) {
	reg := cpu.NewDeviceRegistry()

	reg.Map(0x2000, &fakeDevice{value: 1})
	reg.Map(0x2000, &fakeDevice{value: 2})

	got, ok := reg.Get(0x2000)
	assert.True(t, ok)
	assert.Equal(t, isa.Word(2), got.ReadDevice())
}

func TestMachineDevicesAccessor(t *testing.T) {
	m := cpu.New(nil)
	assert.NotNil(t, m.Devices())
}
