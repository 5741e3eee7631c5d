package usbstd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptorInterface(t *testing.T) {
	data := []byte{9, byte(DescriptorTypeInterface), 3, 1, 3, 0xFF, 0x00, 0x00, 0}
	d, err := ParseDescriptor(data)
	require.NoError(t, err)
	iface, ok := d.(*InterfaceDescriptor)
	require.True(t, ok)
	assert.EqualValues(t, 3, iface.BInterfaceNumber)
	assert.EqualValues(t, 1, iface.BAlternateSetting)
	assert.Equal(t, ClassCodeVendorSpecific, iface.BInterfaceClass)
}

func TestParseDescriptorEndpoint(t *testing.T) {
	data := []byte{7, byte(DescriptorTypeEndpoint), 0x81, 0x02, 0x00, 0x02, 0x00}
	d, err := ParseDescriptor(data)
	require.NoError(t, err)
	ep, ok := d.(*EndpointDescriptor)
	require.True(t, ok)
	assert.True(t, ep.IsIn())
	assert.True(t, ep.IsBulk())
	assert.EqualValues(t, 512, ep.WMaxPacketSize)
}

func TestReadDescriptorsWalksConcatenatedStream(t *testing.T) {
	var data []byte
	data = append(data, 9, byte(DescriptorTypeInterface), 3, 0, 0, 0xFF, 0, 0, 0)
	data = append(data, 9, byte(DescriptorTypeInterface), 3, 1, 3, 0xFF, 0, 0, 0)
	data = append(data, 7, byte(DescriptorTypeEndpoint), 0x01, 0x02, 64, 0, 0)
	data = append(data, 7, byte(DescriptorTypeEndpoint), 0x82, 0x02, 64, 0, 0)
	data = append(data, 7, byte(DescriptorTypeEndpoint), 0x83, 0x02, 64, 0, 0)

	var seen []DescriptorType
	err := ReadDescriptors(bytes.NewReader(data), func(d Descriptor) {
		seen = append(seen, d.Type())
	})
	require.NoError(t, err)
	assert.Equal(t, []DescriptorType{
		DescriptorTypeInterface, DescriptorTypeInterface,
		DescriptorTypeEndpoint, DescriptorTypeEndpoint, DescriptorTypeEndpoint,
	}, seen)
}

func TestUnknownDescriptorCapturesExactBody(t *testing.T) {
	var data []byte
	data = append(data, 6, 0x41, 0xaa, 0xbb, 0xcc, 0xdd) // unregistered type 0x41
	data = append(data, 9, byte(DescriptorTypeInterface), 3, 0, 0, 0xFF, 0, 0, 0)

	var unknownLen int
	var ifaceSeen bool
	err := ReadDescriptors(bytes.NewReader(data), func(d Descriptor) {
		switch v := d.(type) {
		case *UnknownDescriptor:
			unknownLen = len(v.Data)
		case *InterfaceDescriptor:
			ifaceSeen = true
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 4, unknownLen)
	assert.True(t, ifaceSeen)
}
