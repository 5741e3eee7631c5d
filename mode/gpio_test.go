package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalspec/viking"
	"github.com/signalspec/viking/internal/mocktransport"
)

func TestGpioConfigureAndDrive(t *testing.T) {
	tr := mocktransport.New()
	iface := attachWithResources(t, tr, map[string]uint16{"gpio0": viking.ProtoGpioPin})

	res, err := iface.Resource("gpio0")
	require.NoError(t, err)

	tr.QueueControl(nil, nil) // CONFIGURE_MODE
	g, err := NewGpio(res)
	require.NoError(t, err)

	queueRoundTrip(tr, 1, 0)
	require.NoError(t, g.High())

	queueRoundTrip(tr, 2, 0)
	require.NoError(t, g.Low())

	queueRoundTrip(tr, 3, 0)
	require.NoError(t, g.Float())

	queueRoundTrip(tr, 4, 0, 1)
	v, err := g.Read()
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}
