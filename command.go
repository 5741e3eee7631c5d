package viking

import "fmt"

// Command is a single typed operation against a resource: a 6-bit resource
// id, a 2-bit opcode, a payload pattern and a response pattern. It
// serialises into exactly 1+Payload.Len() request bytes and reserves
// exactly Response.Len() response bytes (§3 invariant 1).
type Command struct {
	ResourceID uint8
	Op         uint8
	Payload    Payload
	Response   Response
}

// cmdByte returns the single command byte: resource_id | opcode<<6.
// Panics if ResourceID or Op are out of range — both are caller contract
// violations, not recoverable errors.
func (c Command) cmdByte() byte {
	if c.ResourceID > 63 {
		panic(fmt.Sprintf("viking: resource id %d out of range (0..63)", c.ResourceID))
	}
	if c.Op > 3 {
		panic(fmt.Sprintf("viking: opcode %d out of range (0..3)", c.Op))
	}
	return c.ResourceID | (c.Op << 6)
}

// requestLen is the number of bytes this command occupies in the request
// buffer: one command byte plus the payload.
func (c Command) requestLen() int {
	return 1 + c.Payload.Len()
}

// ResponseHandle is the ticket returned by pushing a Command onto a Batch:
// it carries the decode pattern and the command's byte offset within the
// response region (i.e. response[2:]).
type ResponseHandle struct {
	response Response
	offset   int
}

// BaseDelayCommand returns the base-resource (id 0) DELAY command that
// pauses the device for microseconds before the next command in the same
// batch is processed (§4.7 — used by SPIDevice transactions to space out
// sub-operations).
func BaseDelayCommand(microseconds uint32) Command {
	return Command{
		ResourceID: 0,
		Op:         OpBaseDelay,
		Payload:    VarIntPayload(microseconds),
		Response:   UnitResponse{},
	}
}
