package viking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalspec/viking/internal/mocktransport"
)

func TestAttachParsesTopologyAndHonoursNegotiatedMTU(t *testing.T) {
	var descriptor []byte
	descriptor = append(descriptor, tlv(DescTypeHeader, []byte{0, 0, 1, 0, 0x80, 0x00, 0, 0, 0x40, 0x00, 0, 0, 0, 0, 0, 0})...)
	descriptor = append(descriptor, tlv(DescTypeResource, nil)...)
	descriptor = append(descriptor, tlv(DescTypeIdentifier, []byte("gpio0"))...)
	descriptor = append(descriptor, tlv(DescTypeMode, []byte{0x10, 0x01})...)

	tr := mocktransport.New()
	tr.QueueControl(descriptor, nil)

	iface, err := Attach(tr, 0, testEpReq, testEpRes, testEpEvt, nil)
	require.NoError(t, err)

	assert.Equal(t, 0x80, iface.maxCommandLen)
	assert.Equal(t, 0x40, iface.maxResponseLen)

	id, ok := iface.Topology().FindResource("gpio0")
	require.True(t, ok)
	assert.EqualValues(t, 1, id)

	require.Len(t, tr.ControlCalls, 1)
	call := tr.ControlCalls[0]
	assert.Equal(t, uint8(ReqDescribeResources), call.Request)
}

func TestResourceAcquireReleaseRoundTrip(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)
	iface.topology = &Topology{Resources: []ResourceDescriptor{{Name: "gpio0"}}}

	r1, err := iface.Resource("gpio0")
	require.NoError(t, err)
	assert.EqualValues(t, 1, r1.ID())

	_, err = iface.Resource("gpio0")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBusy))

	require.NoError(t, r1.Close())

	r2, err := iface.Resource("gpio0")
	require.NoError(t, err)
	assert.EqualValues(t, 1, r2.ID())
}

func TestResourceNotFound(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)
	iface.topology = &Topology{}

	_, err := iface.Resource("nope")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}
