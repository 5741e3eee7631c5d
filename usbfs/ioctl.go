//go:build linux

package usbfs

// Struct layouts and ioctl numbers for /dev/bus/usb/BBB/DDD nodes, from
// linux/usbdevice_fs.h. ioctl request codes are computed with goioctl
// rather than hardcoded.

import (
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

const maxDriverName = 255

var (
	ctlControl          = ioctl.IOWR('U', 0, unsafe.Sizeof(ctrlTransfer{}))
	ctlBulk             = ioctl.IOWR('U', 2, unsafe.Sizeof(bulkTransfer{}))
	ctlSetInterface     = ioctl.IOR('U', 4, unsafe.Sizeof(setInterface{}))
	ctlGetDriver        = ioctl.IOW('U', 8, unsafe.Sizeof(getDriver{}))
	ctlClaimInterface   = ioctl.IOR('U', 15, unsafe.Sizeof(uint32(0)))
	ctlReleaseInterface = ioctl.IOR('U', 16, unsafe.Sizeof(uint32(0)))
	ctlReset            = ioctl.IO('U', 20)
	ctlDisconnect       = ioctl.IO('U', 22)
	ctlConnect          = ioctl.IO('U', 23)
)

type ctrlTransfer struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
	Timeout     uint32
	Data        uintptr
}

type bulkTransfer struct {
	Endpoint uint32
	Length   uint32
	Timeout  uint32
	Data     uintptr
}

type setInterface struct {
	Interface  uint32
	AltSetting uint32
}

type getDriver struct {
	Interface uint32
	Driver    [maxDriverName + 1]byte
}

func slicePtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
