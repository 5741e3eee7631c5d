package viking

import (
	"sync"
	"sync/atomic"
	"time"
)

const controlTimeout = 100 * time.Millisecond

// Interface is the host's handle on a claimed Viking USB vendor interface:
// the transport, the three bulk endpoints, the parsed descriptor tree, the
// single-flight mutex and sequence counter, and the resource bitset (§3).
// It is safe for concurrent use by multiple goroutines; all wire traffic
// is serialised through mu.
type Interface struct {
	transport Transport
	number    int // USB interface number, for control transfer indexing

	epReq uint8 // bulk OUT
	epRes uint8 // bulk IN
	epEvt uint8 // bulk IN, reserved (§9 Design Notes)

	topology *Topology

	controlTimeout time.Duration

	mu  sync.Mutex
	seq uint8

	resourcesUsed uint64 // bitset, bit i set means resource i+1 is held

	maxCommandLen  int
	maxResponseLen int

	logger *Logger
}

// Topology returns the parsed resource/mode tree discovered at attach
// time.
func (i *Interface) Topology() *Topology { return i.topology }

// nextSeq advances and returns the 8-bit wrapping sequence counter. Must
// be called with mu held.
func (i *Interface) nextSeq() uint8 {
	i.seq++
	return i.seq
}

// reqMaxPacket returns the OUT endpoint's negotiated max packet size, used
// to decide whether a request needs a zero-length terminator.
func (i *Interface) reqMaxPacket() int {
	if n := i.transport.MaxPacketSize(i.epReq); n > 0 {
		return n
	}
	return 64
}

// AttachOptions configures Attach beyond the bare VID/PID pair.
type AttachOptions struct {
	// Logger receives attach/batch tracing. Nil uses a default,
	// warn-level logger.
	Logger *Logger
}

// Attach builds an Interface over transport, which must already be open
// on a specific device with the Viking vendor interface claimed and its
// alt-setting selected: it records the three bulk endpoint addresses,
// reads DESCRIBE_RESOURCES and parses it (§4.3). interfaceNumber and the
// three endpoint addresses are supplied by the caller because enumerating
// and claiming a USB interface is a transport-specific concern (see the
// usbfs and transport/gousb packages for concrete discovery and claiming
// that produce these).
func Attach(transport Transport, interfaceNumber int, epReq, epRes, epEvt uint8, opts *AttachOptions) (*Interface, error) {
	logger := DefaultLogger()
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	}

	iface := &Interface{
		transport:      transport,
		number:         interfaceNumber,
		epReq:          epReq,
		epRes:          epRes,
		epEvt:          epEvt,
		controlTimeout: controlTimeout,
		maxCommandLen:  DefaultMaxCommandLen,
		maxResponseLen: DefaultMaxResponseLen,
		logger:         logger,
	}

	reqType := uint8(RequestDirectionIn | RequestTypeVendor | RequestRecipientInterface)
	buf := make([]byte, 4096)
	n, err := transport.Control(reqType, ReqDescribeResources, 0, uint16(interfaceNumber), buf, controlTimeout)
	if err != nil {
		return nil, newAttachError("attach: describe resources", err)
	}
	buf = buf[:n]

	topology, err := ParseTopology(buf)
	if err != nil {
		return nil, newAttachError("attach: parse descriptor", err)
	}
	iface.topology = topology

	if topology.Header != nil {
		// Honour the negotiated MTU rather than the 1023 default
		// (REDESIGN FLAGS).
		if topology.Header.MaxCmd > 0 {
			iface.maxCommandLen = int(topology.Header.MaxCmd)
		}
		if topology.Header.MaxRes > 0 {
			iface.maxResponseLen = int(topology.Header.MaxRes)
		}
	}

	logger.Infof("attach: interface %d, %d resources, max_cmd=%d max_res=%d",
		interfaceNumber, len(topology.Resources), iface.maxCommandLen, iface.maxResponseLen)
	return iface, nil
}

// Resource resolves name against the descriptor, atomically claims the
// resource bit, and returns a handle. It fails with ErrNotFound if no
// resource has that name, or ErrBusy if it is already held.
func (i *Interface) Resource(name string) (*Resource, error) {
	id, ok := i.topology.FindResource(name)
	if !ok {
		return nil, newNotFound("interface.resource", name)
	}
	return i.acquireResource(id, name)
}

// ResourceByID behaves like Resource but addresses the resource by its
// 1-based id directly.
func (i *Interface) ResourceByID(id uint8) (*Resource, error) {
	r := i.topology.resourceByID(id)
	if r == nil {
		return nil, newNotFound("interface.resourceByID", "")
	}
	return i.acquireResource(id, r.Name)
}

func (i *Interface) acquireResource(id uint8, name string) (*Resource, error) {
	bit := uint64(1) << (id - 1)
	for {
		old := atomic.LoadUint64(&i.resourcesUsed)
		if old&bit != 0 {
			return nil, newBusy("interface.resource", name)
		}
		if atomic.CompareAndSwapUint64(&i.resourcesUsed, old, old|bit) {
			break
		}
	}
	return &Resource{iface: i, id: id, name: name}, nil
}

// release clears the resource bit, making the resource available again.
func (i *Interface) release(id uint8) {
	bit := uint64(1) << (id - 1)
	for {
		old := atomic.LoadUint64(&i.resourcesUsed)
		if atomic.CompareAndSwapUint64(&i.resourcesUsed, old, old&^bit) {
			return
		}
	}
}

// NewBatch starts a fresh Batch against this interface.
func (i *Interface) NewBatch() *Batch { return newBatch(i) }

// NewQueue starts a fresh Queue against this interface.
func (i *Interface) NewQueue() *Queue { return NewQueue(i) }

// Close releases the underlying transport. The Interface must not be used
// afterward.
func (i *Interface) Close() error { return i.transport.Close() }
