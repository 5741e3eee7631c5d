package viking

import "time"

// Transport is the abstraction Interface drives to move bytes to and from
// a claimed USB vendor interface. The command pipeline (Batch, Queue,
// Interface) is written entirely against this interface; it never touches
// a concrete USB stack directly. Two concrete implementations ship
// alongside this package: usbfs (Linux raw ioctl, see the usbfs package)
// and transport/gousb (cross-platform, libusb-backed). Tests use
// internal/mocktransport.
type Transport interface {
	// Control issues a control transfer with the given wValue and wIndex,
	// exactly as passed. Callers pass the claimed interface number as
	// index and encode any resource/mode pair into value
	// ((resource<<8)|mode). reqType is the full bmRequestType byte
	// including direction/type/recipient bits.
	Control(reqType uint8, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error)

	// Bulk performs a single bulk transfer on the given endpoint address
	// (including its direction bit). It blocks until timeout or
	// completion.
	Bulk(endpoint uint8, data []byte, timeout time.Duration) (int, error)

	// MaxPacketSize returns the negotiated max packet size of the given
	// endpoint, used to decide whether a zero-length packet must follow a
	// bulk-OUT transfer.
	MaxPacketSize(endpoint uint8) int

	Close() error
}
