package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalspec/viking"
	"github.com/signalspec/viking/internal/mocktransport"
)

func TestI2CTransaction(t *testing.T) {
	tr := mocktransport.New()
	iface := attachWithResources(t, tr, map[string]uint16{"i2c0": viking.ProtoI2CController})

	res, err := iface.Resource("i2c0")
	require.NoError(t, err)

	tr.QueueControl(nil, nil) // CONFIGURE_MODE
	bus, err := NewI2C(res, I2CFlagInternalPullups, I2CSpeedFast)
	require.NoError(t, err)

	// A write followed by a read flips direction once, so the whole
	// write-then-read transaction — Start/Write/Start/Read/Stop — is one
	// combined response region in a single round trip (§4.7, S3).
	queueRoundTrip(tr, 1, 0, 0x00, 0x00, 0xde, 0xad)

	tx := bus.Transaction(0x50)
	tx.Write([]byte{0x00, 0x10})
	data := make([]byte, 2)
	tx.Read(data)
	require.NoError(t, tx.Finish())
	assert.Equal(t, []byte{0xde, 0xad}, data)
}

func TestI2CTransactionEmptyOmitsStop(t *testing.T) {
	tr := mocktransport.New()
	iface := attachWithResources(t, tr, map[string]uint16{"i2c0": viking.ProtoI2CController})

	res, err := iface.Resource("i2c0")
	require.NoError(t, err)

	tr.QueueControl(nil, nil) // CONFIGURE_MODE
	bus, err := NewI2C(res, 0, I2CSpeedStandard)
	require.NoError(t, err)

	// No operations were ever pushed, so Finish flushes nothing at all —
	// not even a Stop — and no round trip is scripted.
	require.NoError(t, bus.Transaction(0x50).Finish())
}

func TestI2CSpeedHz(t *testing.T) {
	assert.EqualValues(t, 100_000, I2CSpeedStandard.Hz())
	assert.EqualValues(t, 400_000, I2CSpeedFast.Hz())
	assert.EqualValues(t, 1_000_000, I2CSpeedFastPlus.Hz())
	assert.EqualValues(t, 3_400_000, I2CSpeedHigh.Hz())
}
