package mode

import "github.com/signalspec/viking"

// SPIModeFlags configures clock polarity and phase (the standard SPI
// mode 0-3 numbering) for an SPI controller resource.
type SPIModeFlags uint8

const (
	SPIFlagCPOL SPIModeFlags = 1 << 0
	SPIFlagCPHA SPIModeFlags = 1 << 1
)

// SPIConfigFlags carries bit-order and chip-select-idle-state
// configuration, supplemented from original_source's SPI capability
// bitflags.
type SPIConfigFlags uint8

const (
	SPIFlagLSBFirst     SPIConfigFlags = 1 << 0
	SPIFlagCSActiveHigh SPIConfigFlags = 1 << 1
)

const maxSPIChunk = 255

// SPI is an SPI controller resource. Write, Read and Transfer are all
// realised as the single TRANSFER wire opcode (protocol 0x0200): a write
// discards the bytes clocked back in, a read clocks out zero bytes, and a
// plain transfer is full duplex (§4.7).
type SPI struct {
	res *viking.Resource
}

// NewSPI configures res into the SPI controller mode with a two-byte
// [modeFlags, configFlags] configuration body.
func NewSPI(res *viking.Resource, mode SPIModeFlags, cfg SPIConfigFlags) (*SPI, error) {
	body := []byte{uint8(mode), uint8(cfg)}
	if _, err := res.ConfigureProtocol(viking.ProtoSPIController, body); err != nil {
		return nil, err
	}
	return &SPI{res: res}, nil
}

// NewSPINamed configures res into the mode named name, verifying it is
// the SPI controller protocol before treating it as one (§7 mode-match
// error).
func NewSPINamed(res *viking.Resource, name string, mode SPIModeFlags, cfg SPIConfigFlags) (*SPI, error) {
	body := []byte{uint8(mode), uint8(cfg)}
	if _, err := res.ConfigureNamed(name, viking.ProtoSPIController, body); err != nil {
		return nil, err
	}
	return &SPI{res: res}, nil
}

func (s *SPI) transferChunk(tx []byte, rx []byte, q *viking.Queue) {
	q.PushReadInPlace(rx, func(buf []byte) viking.Command {
		return viking.Command{
			ResourceID: s.res.ID(),
			Op:         viking.SPITransfer,
			Payload:    viking.BytesPayload(tx),
			Response:   viking.SliceResponse(len(buf)),
		}
	})
}

// Write clocks out data, chunked to at most 255 bytes per wire command,
// discarding whatever comes back on the input line.
func (s *SPI) Write(data []byte) error {
	q := viking.NewQueue(s.res.Interface())
	for len(data) > 0 {
		n := min(len(data), maxSPIChunk)
		chunk := data[:n]
		q.Push(viking.Command{
			ResourceID: s.res.ID(),
			Op:         viking.SPITransfer,
			Payload:    viking.BytesPayload(chunk),
			Response:   viking.SliceResponse(n),
		})
		data = data[n:]
	}
	return q.Finish()
}

// Read clocks n bytes in, sending zero bytes as TX, chunked to at most
// 255 bytes per wire command.
func (s *SPI) Read(n int) ([]byte, error) {
	out := make([]byte, n)
	q := viking.NewQueue(s.res.Interface())
	remaining := out
	for len(remaining) > 0 {
		chunkLen := min(len(remaining), maxSPIChunk)
		s.transferChunk(make([]byte, chunkLen), remaining[:chunkLen], q)
		remaining = remaining[chunkLen:]
	}
	if err := q.Finish(); err != nil {
		return nil, err
	}
	return out, nil
}

// Transfer performs a full-duplex exchange: data is clocked out while an
// equal number of bytes are clocked in, chunked to at most 255 bytes per
// wire command. The returned slice is independent of data.
func (s *SPI) Transfer(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	if err := s.TransferInPlace(out); err != nil {
		return nil, err
	}
	return out, nil
}

// TransferInPlace performs a full-duplex exchange over buf: the bytes
// already in buf are clocked out, chunked to at most 255 bytes per wire
// command, and overwritten in place with the bytes clocked in.
func (s *SPI) TransferInPlace(buf []byte) error {
	q := viking.NewQueue(s.res.Interface())
	remaining := buf
	for len(remaining) > 0 {
		n := min(len(remaining), maxSPIChunk)
		chunk := remaining[:n]
		s.transferChunk(chunk, chunk, q)
		remaining = remaining[n:]
	}
	return q.Finish()
}
