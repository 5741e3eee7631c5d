package mode

import "github.com/signalspec/viking"

// SPIDevice pairs an SPI controller with a GPIO chip-select pin,
// bracketing every transaction with a Low/High pulse the way a real SPI
// peripheral expects (§4.7's SPI-device-with-chip-select composite).
type SPIDevice struct {
	bus *SPI
	cs  *Gpio
}

// NewSPIDevice combines an already-configured SPI controller and a
// chip-select GPIO pin (any GPIO-shaped resource, e.g. one opened with
// NewGpio) into a single device handle. The chip-select pin is left High
// (deselected) between calls. It panics if bus and cs belong to different
// Interfaces — a caller contract violation, not a recoverable error.
func NewSPIDevice(bus *SPI, cs *Gpio) (*SPIDevice, error) {
	if bus.res.Interface() != cs.res.Interface() {
		panic("viking: SPI device chip-select and controller belong to different interfaces")
	}
	if err := cs.High(); err != nil {
		return nil, err
	}
	return &SPIDevice{bus: bus, cs: cs}, nil
}

// Transaction begins a new chip-select-bracketed exchange: the returned
// Transaction streams Write/Read/Transfer/DelayNs over a single Queue,
// driving CS low before the first sub-operation and high again on
// Finish, so the exchange runs as one round trip when it fits in a
// single batch instead of one round trip per step (§4.7). When the Queue
// auto-flushes, the exchange spans several batches and the Interface
// mutex is released between them.
func (d *SPIDevice) Transaction() *SPIDeviceTransaction {
	return &SPIDeviceTransaction{dev: d, q: viking.NewQueue(d.cs.res.Interface())}
}

// SPIDeviceTransaction is a single chip-select-bracketed transaction
// built over one Queue. Its sub-operations may be called in any order
// and any number of times; Finish drives CS high and flushes.
type SPIDeviceTransaction struct {
	dev   *SPIDevice
	q     *viking.Queue
	began bool
}

func (t *SPIDeviceTransaction) begin() {
	if t.began {
		return
	}
	t.q.Push(viking.Command{
		ResourceID: t.dev.cs.res.ID(),
		Op:         viking.GpioLow,
		Payload:    viking.UnitPayload{},
		Response:   viking.UnitResponse{},
	})
	t.began = true
}

// Write queues a write of data, chunked to at most 255 bytes per wire
// command.
func (t *SPIDeviceTransaction) Write(data []byte) *SPIDeviceTransaction {
	t.begin()
	for len(data) > 0 {
		n := min(len(data), maxSPIChunk)
		chunk := data[:n]
		t.q.Push(viking.Command{
			ResourceID: t.dev.bus.res.ID(),
			Op:         viking.SPITransfer,
			Payload:    viking.BytesPayload(chunk),
			Response:   viking.SliceResponse(n),
		})
		data = data[n:]
	}
	return t
}

// Read queues a read of len(dest) bytes into dest, sending zero bytes as
// TX, chunked to at most 255 bytes per wire command.
func (t *SPIDeviceTransaction) Read(dest []byte) *SPIDeviceTransaction {
	t.begin()
	remaining := dest
	for len(remaining) > 0 {
		n := min(len(remaining), maxSPIChunk)
		chunk := remaining[:n]
		clear(chunk)
		t.q.PushReadInPlace(chunk, func(buf []byte) viking.Command {
			return viking.Command{
				ResourceID: t.dev.bus.res.ID(),
				Op:         viking.SPITransfer,
				Payload:    viking.BytesPayload(buf),
				Response:   viking.SliceResponse(len(buf)),
			}
		})
		remaining = remaining[n:]
	}
	return t
}

// Transfer queues a full-duplex exchange over buf, chunked to at most
// 255 bytes per wire command: the bytes already in buf are clocked out
// and overwritten in place with the bytes clocked in.
func (t *SPIDeviceTransaction) Transfer(buf []byte) *SPIDeviceTransaction {
	t.begin()
	remaining := buf
	for len(remaining) > 0 {
		n := min(len(remaining), maxSPIChunk)
		chunk := remaining[:n]
		t.q.PushReadInPlace(chunk, func(buf []byte) viking.Command {
			return viking.Command{
				ResourceID: t.dev.bus.res.ID(),
				Op:         viking.SPITransfer,
				Payload:    viking.BytesPayload(buf),
				Response:   viking.SliceResponse(len(buf)),
			}
		})
		remaining = remaining[n:]
	}
	return t
}

// DelayNs queues a pause of at least ns nanoseconds, rounded up to the
// nearest microsecond, before the next queued sub-operation is
// processed.
func (t *SPIDeviceTransaction) DelayNs(ns uint64) *SPIDeviceTransaction {
	t.begin()
	microseconds := (ns + 999) / 1000
	t.q.Push(viking.BaseDelayCommand(uint32(microseconds)))
	return t
}

// Finish drives CS high — omitted if no sub-operation was ever queued —
// and flushes the Queue, returning the first error encountered.
func (t *SPIDeviceTransaction) Finish() error {
	if t.began {
		t.q.Push(viking.Command{
			ResourceID: t.dev.cs.res.ID(),
			Op:         viking.GpioHigh,
			Payload:    viking.UnitPayload{},
			Response:   viking.UnitResponse{},
		})
	}
	return t.q.Finish()
}

// Write performs a chip-select-bracketed write.
func (d *SPIDevice) Write(data []byte) error {
	return d.Transaction().Write(data).Finish()
}

// Read performs a chip-select-bracketed read of n bytes.
func (d *SPIDevice) Read(n int) ([]byte, error) {
	out := make([]byte, n)
	if err := d.Transaction().Read(out).Finish(); err != nil {
		return nil, err
	}
	return out, nil
}

// Transfer performs a chip-select-bracketed full-duplex exchange. The
// returned slice is independent of data.
func (d *SPIDevice) Transfer(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	if err := d.Transaction().Transfer(out).Finish(); err != nil {
		return nil, err
	}
	return out, nil
}
