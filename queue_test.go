package viking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalspec/viking/internal/mocktransport"
)

func TestQueueScatterIntoCallerBuffers(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)

	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, []byte{1, 0, 0x11, 0x22, 0x33}, nil)

	q := iface.NewQueue()
	dst1 := make([]byte, 1)
	dst2 := make([]byte, 2)
	q.PushRead(Command{ResourceID: 1, Op: I2CRead, Payload: U8Payload(1), Response: SliceResponse(1)}, dst1)
	q.PushRead(Command{ResourceID: 2, Op: I2CRead, Payload: U8Payload(2), Response: SliceResponse(2)}, dst2)

	require.NoError(t, q.Finish())
	assert.Equal(t, []byte{0x11}, dst1)
	assert.Equal(t, []byte{0x22, 0x33}, dst2)
}

func TestQueueFlushesWhenCommandWouldNotFit(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)
	iface.maxCommandLen = 3 // header(2) + one 1-byte command fills it exactly, forcing a flush on the next push

	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, []byte{1, 0}, nil)
	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, []byte{2, 0}, nil)

	q := iface.NewQueue()
	q.Push(Command{ResourceID: 1, Op: GpioFloat, Payload: UnitPayload{}, Response: UnitResponse{}})
	q.Push(Command{ResourceID: 2, Op: GpioFloat, Payload: UnitPayload{}, Response: UnitResponse{}})

	require.NoError(t, q.Finish())
	assert.Len(t, tr.BulkCalls, 4) // 2 requests x (out + in)
}

func TestQueueStickyErrorStopsFurtherWork(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)

	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, nil, errors.New("broken pipe"))

	q := iface.NewQueue()
	q.Push(Command{ResourceID: 1, Op: GpioFloat, Payload: UnitPayload{}, Response: UnitResponse{}})
	err := q.Finish()
	require.Error(t, err)

	// Further pushes and a second Finish are no-ops that return the same
	// sticky error rather than touching the transport again.
	q.Push(Command{ResourceID: 2, Op: GpioFloat, Payload: UnitPayload{}, Response: UnitResponse{}})
	err2 := q.Finish()
	assert.Equal(t, err, err2)
	assert.Len(t, tr.BulkCalls, 2)
}

func TestQueuePushReadInPlace(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)

	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, []byte{1, 0, 0x55, 0x66}, nil)

	q := iface.NewQueue()
	buf := make([]byte, 2)
	q.PushReadInPlace(buf, func(b []byte) Command {
		return Command{ResourceID: 1, Op: SPIRead, Payload: U8Payload(uint8(len(b))), Response: SliceResponse(len(b))}
	})
	require.NoError(t, q.Finish())
	assert.Equal(t, []byte{0x55, 0x66}, buf)
}
