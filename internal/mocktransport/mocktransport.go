// Package mocktransport provides a scripted viking.Transport test double:
// callers queue canned Control and Bulk responses and assert on the
// requests that were actually issued.
package mocktransport

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ControlCall records one observed Control invocation.
type ControlCall struct {
	ReqType uint8
	Request uint8
	Value   uint16
	Index   uint16
	Data    []byte
}

// BulkCall records one observed Bulk invocation.
type BulkCall struct {
	Endpoint uint8
	Data     []byte
}

// controlResult is a canned reply queued for the next Control call,
// whatever its arguments.
type controlResult struct {
	data []byte
	err  error
}

// bulkResult is a canned reply queued for the next Bulk call on a given
// endpoint.
type bulkResult struct {
	data []byte
	err  error
}

// Transport is a fully in-memory viking.Transport. Zero value is usable;
// queue responses with QueueControl/QueueBulk before the code under test
// calls into it. Calls beyond what was queued return an error rather than
// blocking, since nothing real is on the other end.
type Transport struct {
	mu sync.Mutex

	controlQueue []controlResult
	bulkQueue    map[uint8][]bulkResult

	ControlCalls []ControlCall
	BulkCalls    []BulkCall

	MaxPacket int // returned by MaxPacketSize for every endpoint; 0 means "unset" (caller defaults)

	closed bool
}

// New returns an empty Transport.
func New() *Transport {
	return &Transport{bulkQueue: make(map[uint8][]bulkResult)}
}

// QueueControl appends a canned Control reply, returned in FIFO order to
// the next Control call regardless of its arguments.
func (t *Transport) QueueControl(data []byte, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.controlQueue = append(t.controlQueue, controlResult{data: data, err: err})
}

// QueueBulk appends a canned Bulk reply for the given endpoint address,
// returned in FIFO order to the next Bulk call on that endpoint.
func (t *Transport) QueueBulk(endpoint uint8, data []byte, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bulkQueue == nil {
		t.bulkQueue = make(map[uint8][]bulkResult)
	}
	t.bulkQueue[endpoint] = append(t.bulkQueue[endpoint], bulkResult{data: data, err: err})
}

func (t *Transport) Control(reqType uint8, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ControlCalls = append(t.ControlCalls, ControlCall{ReqType: reqType, Request: request, Value: value, Index: index, Data: append([]byte(nil), data...)})

	if len(t.controlQueue) == 0 {
		return 0, errors.New("mocktransport: unexpected Control call, nothing queued")
	}
	r := t.controlQueue[0]
	t.controlQueue = t.controlQueue[1:]
	if r.err != nil {
		return 0, r.err
	}
	n := copy(data, r.data)
	return n, nil
}

func (t *Transport) Bulk(endpoint uint8, data []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.BulkCalls = append(t.BulkCalls, BulkCall{Endpoint: endpoint, Data: append([]byte(nil), data...)})

	q := t.bulkQueue[endpoint]
	if len(q) == 0 {
		return 0, fmt.Errorf("mocktransport: unexpected Bulk call on endpoint 0x%02x, nothing queued", endpoint)
	}
	r := q[0]
	t.bulkQueue[endpoint] = q[1:]
	if r.err != nil {
		return 0, r.err
	}
	if data == nil {
		return 0, nil
	}
	n := copy(data, r.data)
	return n, nil
}

func (t *Transport) MaxPacketSize(endpoint uint8) int {
	return t.MaxPacket
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Closed reports whether Close was called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
