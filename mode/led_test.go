package mode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signalspec/viking"
	"github.com/signalspec/viking/internal/mocktransport"
)

func TestLedOnOff(t *testing.T) {
	tr := mocktransport.New()
	iface := attachWithResources(t, tr, map[string]uint16{"led0": viking.ProtoLedBinary})

	res, err := iface.Resource("led0")
	require.NoError(t, err)

	tr.QueueControl(nil, nil)
	led, err := NewLed(res)
	require.NoError(t, err)

	queueRoundTrip(tr, 1, 0)
	require.NoError(t, led.On())

	queueRoundTrip(tr, 2, 0)
	require.NoError(t, led.Off())
}

func TestColorString(t *testing.T) {
	cases := map[Color]string{
		ColorRed:         "red",
		ColorUltraviolet: "ultraviolet",
		Color(99):        "unknown",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Errorf("Color(%d).String() = %q, want %q", c, got, want)
		}
	}
}
