package viking

// scatter remembers a pending copy from a decoded slice response into a
// caller-owned destination buffer, applied in push order once the batch
// that produced it succeeds.
type scatter struct {
	handle ResponseHandle
	dest   []byte
}

// Queue streams an unbounded sequence of Commands through multiple
// Batches without requiring the caller to track packet boundaries (§4.6).
// It is sticky: once an error occurs, every subsequent Push* becomes a
// no-op and the error is returned by Finish.
type Queue struct {
	iface    *Interface
	current  *Batch
	pending  []scatter
	err      error
}

// NewQueue creates a Queue bound to iface with a fresh, empty Batch.
func NewQueue(iface *Interface) *Queue {
	return &Queue{iface: iface, current: newBatch(iface)}
}

// Push appends cmd, flushing the current batch first if it would not fit.
// It is a no-op once the Queue has recorded a sticky error.
func (q *Queue) Push(cmd Command) {
	if q.err != nil {
		return
	}
	if !q.current.empty() && !q.current.fits(cmd) {
		q.flush()
		if q.err != nil {
			return
		}
	}
	q.current.Push(cmd)
}

// PushRead appends cmd — whose Response must be a SliceResponse — and
// remembers to copy len(dest) bytes from its decoded response into dest
// once the batch carrying it is flushed.
func (q *Queue) PushRead(cmd Command, dest []byte) {
	if q.err != nil {
		return
	}
	if !q.current.empty() && !q.current.fits(cmd) {
		q.flush()
		if q.err != nil {
			return
		}
	}
	handle := q.current.Push(cmd)
	q.pending = append(q.pending, scatter{handle: handle, dest: dest})
}

// PushReadInPlace is a convenience wrapper: makeCmd receives buf (as the
// command's payload, where applicable) and returns the Command to push;
// the decoded response then overwrites buf in place.
func (q *Queue) PushReadInPlace(buf []byte, makeCmd func(buf []byte) Command) {
	q.PushRead(makeCmd(buf), buf)
}

// flush runs the current batch and, on success, applies pending scatters
// in push order, then starts a fresh batch. On failure it records the
// sticky error and drops the pending scatter list.
func (q *Queue) flush() {
	if q.current.empty() {
		return
	}
	batch := q.current
	pending := q.pending
	q.current = newBatch(q.iface)
	q.pending = nil

	resp, err := batch.Run()
	if err != nil {
		q.err = err
		return
	}
	for _, s := range pending {
		v, err := resp.Get(s.handle)
		if err != nil {
			q.err = err
			return
		}
		src, ok := v.([]byte)
		if !ok {
			continue
		}
		copy(s.dest, src)
	}
}

// Finish flushes any remaining commands and returns the Queue's sticky
// error, if any.
func (q *Queue) Finish() error {
	if q.err != nil {
		return q.err
	}
	q.flush()
	return q.err
}
