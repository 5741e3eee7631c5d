package mode

import "github.com/signalspec/viking"

// I2CModeFlags configures an I2C controller at CONFIGURE_MODE time:
// addressing width and pull-up control (§6, supplemented from
// original_source's i2c capability bitflags).
type I2CModeFlags uint8

const (
	I2CFlagTenBitAddr      I2CModeFlags = 1 << 0
	I2CFlagInternalPullups I2CModeFlags = 1 << 1
)

// I2CSpeed names one of the standard I2C bus speed grades.
type I2CSpeed uint8

const (
	I2CSpeedStandard I2CSpeed = iota // 100 kHz
	I2CSpeedFast                     // 400 kHz
	I2CSpeedFastPlus                 // 1 MHz
	I2CSpeedHigh                     // 3.4 MHz
)

// Hz returns the nominal clock rate for s.
func (s I2CSpeed) Hz() uint32 {
	switch s {
	case I2CSpeedFast:
		return 400_000
	case I2CSpeedFastPlus:
		return 1_000_000
	case I2CSpeedHigh:
		return 3_400_000
	default:
		return 100_000
	}
}

// I2C is an I2C controller resource: repeated-start transactions built
// from Start/Write/Read/Stop primitives, matching the four-opcode wire
// contract of protocol 0x0301.
type I2C struct {
	res *viking.Resource
}

// NewI2C configures res into the I2C controller mode with the given
// flags and speed packed into a two-byte configuration body
// [flags, speed].
func NewI2C(res *viking.Resource, flags I2CModeFlags, speed I2CSpeed) (*I2C, error) {
	body := []byte{uint8(flags), uint8(speed)}
	if _, err := res.ConfigureProtocol(viking.ProtoI2CController, body); err != nil {
		return nil, err
	}
	return &I2C{res: res}, nil
}

// NewI2CNamed configures res into the mode named name, verifying it is
// the I2C controller protocol before treating it as one (§7 mode-match
// error).
func NewI2CNamed(res *viking.Resource, name string, flags I2CModeFlags, speed I2CSpeed) (*I2C, error) {
	body := []byte{uint8(flags), uint8(speed)}
	if _, err := res.ConfigureNamed(name, viking.ProtoI2CController, body); err != nil {
		return nil, err
	}
	return &I2C{res: res}, nil
}

// i2cDirection tracks which way the bus is currently addressed within a
// Transaction, so a new Start is only emitted on the first operation or
// when the direction flips (§4.7).
type i2cDirection uint8

const (
	i2cDirNone i2cDirection = iota
	i2cDirWrite
	i2cDirRead
)

const maxI2CChunk = 255

// Transaction begins a new I2C bus transaction addressed to addr: the
// returned Transaction streams Start/Write/Read over a single Queue,
// emitting a new Start only when the transfer direction changes
// (including the first operation), chunking reads and writes to at most
// 255 bytes per wire command, and closing with exactly one Stop on
// Finish — the exchange runs as one round trip when it fits in a single
// batch instead of one round trip per primitive (§4.7, TESTABLE
// PROPERTIES scenario S3). When the Queue auto-flushes, the exchange
// spans several batches and the Interface mutex is released between
// them.
func (c *I2C) Transaction(addr uint8) *I2CTransaction {
	return &I2CTransaction{i2c: c, addr: addr, q: viking.NewQueue(c.res.Interface())}
}

// I2CTransaction is a single addressed I2C transaction built over one
// Queue. Write/Read may be called in any order and any number of times;
// Finish emits the closing Stop and flushes.
type I2CTransaction struct {
	i2c  *I2C
	addr uint8
	q    *viking.Queue
	dir  i2cDirection
}

func (t *I2CTransaction) startIfNeeded(dir i2cDirection) {
	if t.dir == dir {
		return
	}
	wire := t.addr << 1
	if dir == i2cDirRead {
		wire |= 1
	}
	t.q.Push(viking.Command{
		ResourceID: t.i2c.res.ID(),
		Op:         viking.I2CStart,
		Payload:    viking.U8Payload(wire),
		Response:   viking.U8Response{},
	})
	t.dir = dir
}

// Write appends a write of data, chunked to at most 255 bytes per wire
// command, issuing a new Start first if the transaction is idle or was
// last reading.
func (t *I2CTransaction) Write(data []byte) *I2CTransaction {
	for len(data) > 0 {
		n := len(data)
		if n > maxI2CChunk {
			n = maxI2CChunk
		}
		t.startIfNeeded(i2cDirWrite)
		t.q.Push(viking.Command{
			ResourceID: t.i2c.res.ID(),
			Op:         viking.I2CWrite,
			Payload:    viking.BytesPayload(data[:n]),
			Response:   viking.UnitResponse{},
		})
		data = data[n:]
	}
	return t
}

// Read appends a read of len(dest) bytes into dest, chunked to at most
// 255 bytes per wire command, issuing a new Start first if the
// transaction is idle or was last writing.
func (t *I2CTransaction) Read(dest []byte) *I2CTransaction {
	for len(dest) > 0 {
		n := len(dest)
		if n > maxI2CChunk {
			n = maxI2CChunk
		}
		t.startIfNeeded(i2cDirRead)
		t.q.PushRead(viking.Command{
			ResourceID: t.i2c.res.ID(),
			Op:         viking.I2CRead,
			Payload:    viking.U8Payload(uint8(n)),
			Response:   viking.SliceResponse(n),
		}, dest[:n])
		dest = dest[n:]
	}
	return t
}

// Finish closes the transaction with a single Stop — omitted if no
// operation was ever issued — and flushes the Queue, returning the first
// error encountered.
func (t *I2CTransaction) Finish() error {
	if t.dir != i2cDirNone {
		t.q.Push(viking.Command{
			ResourceID: t.i2c.res.ID(),
			Op:         viking.I2CStop,
			Payload:    viking.UnitPayload{},
			Response:   viking.UnitResponse{},
		})
	}
	return t.q.Finish()
}
