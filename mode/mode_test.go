package mode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signalspec/viking"
	"github.com/signalspec/viking/internal/mocktransport"
)

const (
	epReq = 0x01
	epRes = 0x82
	epEvt = 0x83
)

func tlv(typ byte, body []byte) []byte {
	return append([]byte{byte(len(body) + 2), typ}, body...)
}

func u16le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

// attachWithResources builds a minimal descriptor declaring one resource
// per (name, protocol) pair and returns an attached Interface backed by a
// scripted Transport.
func attachWithResources(t *testing.T, tr *mocktransport.Transport, resources map[string]uint16) *viking.Interface {
	t.Helper()
	var data []byte
	for name, proto := range resources {
		data = append(data, tlv(0x42, nil)...)
		data = append(data, tlv(0x41, []byte(name))...)
		data = append(data, tlv(0x43, u16le(proto))...)
	}
	tr.QueueControl(data, nil)
	iface, err := viking.Attach(tr, 0, epReq, epRes, epEvt, nil)
	require.NoError(t, err)
	return iface
}

func queueRoundTrip(tr *mocktransport.Transport, seq byte, status byte, body ...byte) {
	tr.QueueBulk(epReq, nil, nil)
	tr.QueueBulk(epRes, append([]byte{seq, status}, body...), nil)
}
