package viking

import (
	"fmt"
	"os"
	"strconv"
)

// TransportKind selects which concrete Transport implementation a caller's
// AttachFirst should use: the Linux-only usbfs package, or the
// libusb-backed transport/gousb package.
type TransportKind string

const (
	TransportUSBFS TransportKind = "usbfs"
	TransportGoUSB TransportKind = "gousb"
)

// Config holds the handful of scalars needed to find and attach a Viking
// device: VID/PID, which transport to use, and the log level. Four
// env-var-driven scalars do not warrant a third-party config/flag
// library; cmd/vikingctl layers the standard flag package over this for
// CLI overrides.
type Config struct {
	VendorID     uint16
	ProductID    uint16
	Transport    TransportKind
	LogLevel     LogLevel
}

// DefaultConfig returns the original_source example device's VID/PID
// (0x59e3:0x2222) with the Linux usbfs transport and warn-level logging.
func DefaultConfig() Config {
	return Config{
		VendorID:  0x59e3,
		ProductID: 0x2222,
		Transport: TransportUSBFS,
		LogLevel:  LevelWarn,
	}
}

// FromEnv overlays VIKING_VID, VIKING_PID, VIKING_TRANSPORT and
// VIKING_LOG_LEVEL onto DefaultConfig(), in that order, returning an error
// if any set variable fails to parse.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("VIKING_VID"); v != "" {
		n, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			return cfg, fmt.Errorf("viking: VIKING_VID: %w", err)
		}
		cfg.VendorID = uint16(n)
	}
	if v := os.Getenv("VIKING_PID"); v != "" {
		n, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			return cfg, fmt.Errorf("viking: VIKING_PID: %w", err)
		}
		cfg.ProductID = uint16(n)
	}
	if v := os.Getenv("VIKING_TRANSPORT"); v != "" {
		switch TransportKind(v) {
		case TransportUSBFS, TransportGoUSB:
			cfg.Transport = TransportKind(v)
		default:
			return cfg, fmt.Errorf("viking: VIKING_TRANSPORT: unknown transport %q", v)
		}
	}
	if v := os.Getenv("VIKING_LOG_LEVEL"); v != "" {
		lvl, err := ParseLogLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = lvl
	}
	return cfg, nil
}
