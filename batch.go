package viking

import (
	"fmt"
)

// Batch builds a single wire-level request packet from pushed Commands
// and, once Run, carries the decoded response. This is the 40%-budget
// core of the package (§4.5): it owns all offset arithmetic and the
// single round trip against the Interface.
//
// A Batch is not reusable after Run; build a fresh one for the next round
// trip (Queue does this automatically).
type Batch struct {
	iface       *Interface
	request     []byte // grows from the 2-byte [seq, 0] header
	responseLen int
	handles     []ResponseHandle
}

// newBatch allocates a Batch with its 2-byte header reserved but not yet
// filled in (Run fills in the sequence byte under the lock).
func newBatch(iface *Interface) *Batch {
	return &Batch{
		iface:   iface,
		request: []byte{0, 0},
	}
}

// Push appends a Command to the batch. It panics if the command would
// exceed the interface's negotiated max_command_len or max_response_len
// (§4.5 step 1) — this is a caller contract violation, not a recoverable
// error.
func (b *Batch) Push(cmd Command) ResponseHandle {
	reqAdd := cmd.requestLen()
	respAdd := cmd.Response.Len()
	if len(b.request)+reqAdd > b.iface.maxCommandLen {
		panic(fmt.Sprintf("viking: batch request would grow to %d bytes, exceeding max_command_len %d", len(b.request)+reqAdd, b.iface.maxCommandLen))
	}
	if b.responseLen+respAdd > b.iface.maxResponseLen {
		panic(fmt.Sprintf("viking: batch response would grow to %d bytes, exceeding max_response_len %d", b.responseLen+respAdd, b.iface.maxResponseLen))
	}

	b.request = append(b.request, cmd.cmdByte())
	b.request = cmd.Payload.AppendTo(b.request)

	handle := ResponseHandle{response: cmd.Response, offset: b.responseLen}
	b.handles = append(b.handles, handle)
	b.responseLen += respAdd
	return handle
}

// fits reports whether cmd can be pushed onto b without exceeding either
// MTU, without mutating b. Used by Queue to decide whether to flush first.
func (b *Batch) fits(cmd Command) bool {
	reqAdd := cmd.requestLen()
	respAdd := cmd.Response.Len()
	return len(b.request)+reqAdd <= b.iface.maxCommandLen &&
		b.responseLen+respAdd <= b.iface.maxResponseLen
}

// empty reports whether any command has been pushed.
func (b *Batch) empty() bool { return len(b.handles) == 0 }

// ResponseBatch wraps the raw response buffer returned by a successful
// Batch.Run. The buffer still begins with the sequence-validated
// [seq, status] header at byte 0 of the device's reply; Get accounts for
// the header internally.
type ResponseBatch struct {
	raw []byte // full [seq, status, response_bytes...] buffer
}

// Get decodes the response addressed by handle. It returns an error if the
// response buffer is shorter than the handle's declared length — this
// should not happen for a well-behaved device and indicates response
// truncation.
func (rb *ResponseBatch) Get(handle ResponseHandle) (any, error) {
	start := 2 + handle.offset
	end := start + handle.response.Len()
	if end > len(rb.raw) {
		return nil, fmt.Errorf("viking: response truncated: need offset %d..%d, have %d bytes", start, end, len(rb.raw))
	}
	return handle.response.Decode(rb.raw[start:end])
}

// Run commits the batch: it acquires the interface's single-flight mutex,
// stamps and advances the sequence counter, submits the request over bulk
// OUT (plus a trailing zero-length packet if required), reads the bulk IN
// response, and validates it (§4.5 steps 1-6).
func (b *Batch) Run() (*ResponseBatch, error) {
	iface := b.iface
	iface.mu.Lock()
	defer iface.mu.Unlock()

	seq := iface.nextSeq()
	b.request[0] = seq
	b.request[1] = 0

	if _, err := iface.transport.Bulk(iface.epReq, b.request, iface.controlTimeout); err != nil {
		return nil, newUSBError("batch.run: bulk out", err)
	}
	if len(b.request)%iface.reqMaxPacket() == 0 {
		if _, err := iface.transport.Bulk(iface.epReq, nil, iface.controlTimeout); err != nil {
			return nil, newUSBError("batch.run: zero-length terminator", err)
		}
	}

	resp := make([]byte, 4096)
	n, err := iface.transport.Bulk(iface.epRes, resp, iface.controlTimeout)
	if err != nil {
		return nil, newUSBError("batch.run: bulk in", err)
	}
	resp = resp[:n]

	if len(resp) < 2 {
		return nil, newProtocolTooShort("batch.run", len(resp))
	}
	if resp[0] != seq {
		return nil, newProtocolSeqMismatch("batch.run", seq, resp[0])
	}
	if resp[1] != 0 {
		return nil, newProtocolDeviceStatus("batch.run", resp[1])
	}

	iface.logger.Debugf("batch: seq=%d request=%dB response=%dB", seq, len(b.request), len(resp))
	return &ResponseBatch{raw: resp}, nil
}
