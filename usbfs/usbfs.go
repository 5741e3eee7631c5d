//go:build linux

// Package usbfs implements viking.Transport directly on top of Linux's
// /dev/bus/usb/BBB/DDD character devices via raw ioctls, with no libusb
// dependency. transport/gousb offers a cross-platform alternative built
// on google/gousb for non-Linux hosts.
package usbfs

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const devPath = "/dev/bus/usb"

func ioctlCall(fd int, req uintptr, arg uintptr) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return int(r), errno
	}
	return int(r), nil
}

func openDevice(busNumber, deviceNumber int) (int, error) {
	path := fmt.Sprintf("%s/%03d/%03d", devPath, busNumber, deviceNumber)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return -1, fmt.Errorf("usbfs: open %s: %w", path, err)
	}
	return fd, nil
}

func claimInterface(fd, iface int) error {
	n := uint32(iface)
	_, err := ioctlCall(fd, ctlClaimInterface, uintptr(unsafe.Pointer(&n)))
	return err
}

func releaseInterface(fd, iface int) error {
	n := uint32(iface)
	_, err := ioctlCall(fd, ctlReleaseInterface, uintptr(unsafe.Pointer(&n)))
	return err
}

func setInterfaceAlt(fd int, iface, alt uint32) error {
	data := setInterface{Interface: iface, AltSetting: alt}
	_, err := ioctlCall(fd, ctlSetInterface, uintptr(unsafe.Pointer(&data)))
	return err
}

func controlTransfer(fd int, reqType, request uint8, value, index uint16, timeout time.Duration, data []byte) (int, error) {
	xfer := &ctrlTransfer{
		RequestType: reqType,
		Request:     request,
		Value:       value,
		Index:       index,
		Length:      uint16(len(data)),
		Timeout:     uint32(timeout.Milliseconds()),
		Data:        slicePtr(data),
	}
	return ioctlCall(fd, ctlControl, uintptr(unsafe.Pointer(xfer)))
}

func bulkTransferIoctl(fd int, endpoint uint8, timeout time.Duration, data []byte) (int, error) {
	xfer := &bulkTransfer{
		Endpoint: uint32(endpoint),
		Length:   uint32(len(data)),
		Timeout:  uint32(timeout.Milliseconds()),
		Data:     slicePtr(data),
	}
	return ioctlCall(fd, ctlBulk, uintptr(unsafe.Pointer(xfer)))
}

func resetDevice(fd int) error {
	_, err := ioctlCall(fd, ctlReset, 0)
	return err
}

func closeDevice(fd int) error {
	return unix.Close(fd)
}
