package viking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalspec/viking/internal/mocktransport"
)

const (
	testEpReq = 0x01
	testEpRes = 0x82
	testEpEvt = 0x83
)

func newTestInterface(t *testing.T, tr *mocktransport.Transport) *Interface {
	t.Helper()
	return &Interface{
		transport:      tr,
		number:         0,
		epReq:          testEpReq,
		epRes:          testEpRes,
		epEvt:          testEpEvt,
		controlTimeout: controlTimeout,
		maxCommandLen:  DefaultMaxCommandLen,
		maxResponseLen: DefaultMaxResponseLen,
		logger:         DefaultLogger(),
		topology:       &Topology{},
	}
}

func TestBatchRunSingleCommand(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)

	// seq will be 1 (first nextSeq call); response is [seq, status, byte].
	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, []byte{1, 0, 0x42}, nil)

	b := iface.NewBatch()
	h := b.Push(Command{ResourceID: 3, Op: GpioRead, Payload: UnitPayload{}, Response: U8Response{}})
	rb, err := b.Run()
	require.NoError(t, err)

	v, err := rb.Get(h)
	require.NoError(t, err)
	assert.EqualValues(t, 0x42, v)

	require.Len(t, tr.BulkCalls, 2) // bulk OUT request + bulk IN response
	sent := tr.BulkCalls[0].Data
	// [seq, reserved, cmd_byte]
	assert.EqualValues(t, 1, sent[0])
	assert.EqualValues(t, 0, sent[1])
	assert.EqualValues(t, 3|(GpioRead<<6), sent[2])
}

func TestBatchRunMultipleCommandsPreserveOffsets(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)

	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, []byte{1, 0, 0xaa, 0xbb, 0xcc}, nil)

	b := iface.NewBatch()
	h1 := b.Push(Command{ResourceID: 1, Op: GpioRead, Payload: UnitPayload{}, Response: U8Response{}})
	h2 := b.Push(Command{ResourceID: 2, Op: I2CRead, Payload: U8Payload(2), Response: SliceResponse(2)})

	rb, err := b.Run()
	require.NoError(t, err)

	v1, err := rb.Get(h1)
	require.NoError(t, err)
	assert.EqualValues(t, 0xaa, v1)

	v2, err := rb.Get(h2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xbb, 0xcc}, v2)
}

func TestBatchRunSeqMismatch(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)

	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, []byte{99, 0}, nil)

	b := iface.NewBatch()
	b.Push(Command{ResourceID: 1, Op: GpioFloat, Payload: UnitPayload{}, Response: UnitResponse{}})
	_, err := b.Run()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindProtocolSeqMismatch))
}

func TestBatchRunDeviceStatusError(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)

	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, []byte{1, 7}, nil)

	b := iface.NewBatch()
	b.Push(Command{ResourceID: 1, Op: GpioFloat, Payload: UnitPayload{}, Response: UnitResponse{}})
	_, err := b.Run()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindProtocolDeviceStatus))
}

func TestBatchRunTruncatedResponse(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)

	tr.QueueBulk(testEpReq, nil, nil)
	tr.QueueBulk(testEpRes, []byte{1}, nil)

	b := iface.NewBatch()
	b.Push(Command{ResourceID: 1, Op: GpioFloat, Payload: UnitPayload{}, Response: UnitResponse{}})
	_, err := b.Run()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindProtocolTooShort))
}

func TestBatchPushExceedingMaxCommandLenPanics(t *testing.T) {
	tr := mocktransport.New()
	iface := newTestInterface(t, tr)
	iface.maxCommandLen = 3

	b := iface.NewBatch()
	assert.Panics(t, func() {
		b.Push(Command{ResourceID: 1, Op: GpioFloat, Payload: BytesPayload(make([]byte, 10)), Response: UnitResponse{}})
	})
}
