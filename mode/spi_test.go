package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalspec/viking"
	"github.com/signalspec/viking/internal/mocktransport"
)

func TestSPITransfer(t *testing.T) {
	tr := mocktransport.New()
	iface := attachWithResources(t, tr, map[string]uint16{
		"spi0": viking.ProtoSPIController,
		"cs0":  viking.ProtoGpioPin,
	})

	busRes, err := iface.Resource("spi0")
	require.NoError(t, err)
	csRes, err := iface.Resource("cs0")
	require.NoError(t, err)

	tr.QueueControl(nil, nil) // SPI CONFIGURE_MODE
	bus, err := NewSPI(busRes, SPIFlagCPHA, SPIFlagLSBFirst)
	require.NoError(t, err)

	tr.QueueControl(nil, nil) // CS pin CONFIGURE_MODE
	cs, err := NewGpio(csRes)
	require.NoError(t, err)

	// NewSPIDevice drives CS high immediately.
	queueRoundTrip(tr, 1, 0)
	dev, err := NewSPIDevice(bus, cs)
	require.NoError(t, err)

	// CS low, transfer, CS high all run as one round trip (§4.7).
	queueRoundTrip(tr, 2, 0, 0x11, 0x22)
	got, err := dev.Transfer([]byte{0xaa, 0xbb})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x22}, got)
}

func TestSPIDeviceWriteThenDelayThenRead(t *testing.T) {
	tr := mocktransport.New()
	iface := attachWithResources(t, tr, map[string]uint16{
		"spi0": viking.ProtoSPIController,
		"cs0":  viking.ProtoGpioPin,
	})

	busRes, err := iface.Resource("spi0")
	require.NoError(t, err)
	csRes, err := iface.Resource("cs0")
	require.NoError(t, err)

	tr.QueueControl(nil, nil)
	bus, err := NewSPI(busRes, 0, 0)
	require.NoError(t, err)

	tr.QueueControl(nil, nil)
	cs, err := NewGpio(csRes)
	require.NoError(t, err)

	queueRoundTrip(tr, 1, 0)
	dev, err := NewSPIDevice(bus, cs)
	require.NoError(t, err)

	// CS low, write, delay, read, CS high — one transaction, one round
	// trip: the write is still a TRANSFER under the hood, so it reserves
	// (and discards) 3 response bytes; the delay's UnitResponse
	// contributes none; the read's 2 bytes are captured into dest.
	queueRoundTrip(tr, 2, 0, 0xff, 0xff, 0xff, 0x55, 0x66)
	tx := dev.Transaction()
	tx.Write([]byte{0x03, 0x00, 0x00})
	tx.DelayNs(5_000)
	dest := make([]byte, 2)
	tx.Read(dest)
	require.NoError(t, tx.Finish())
	assert.Equal(t, []byte{0x55, 0x66}, dest)
}
