//go:build linux

package usbfs

import (
	"fmt"
	"time"

	"github.com/signalspec/viking"
)

// Transport is a viking.Transport backed by one open usbfs device node.
// Endpoint addresses passed to Bulk already carry their direction bit,
// matching the usbdevfs ioctl ABI.
type Transport struct {
	fd        int
	iface     int
	maxPacket map[uint8]int
}

var _ viking.Transport = (*Transport)(nil)

// Open opens the device node for busNumber/deviceNumber, claims
// interfaceNumber and switches it to altSetting, returning a Transport
// ready for Attach. maxPacket maps each endpoint address this driver
// will use to its negotiated wMaxPacketSize, as discovered from the
// configuration descriptor (see Discover).
func Open(busNumber, deviceNumber, interfaceNumber, altSetting int, maxPacket map[uint8]int) (*Transport, error) {
	fd, err := openDevice(busNumber, deviceNumber)
	if err != nil {
		return nil, err
	}
	if err := claimInterface(fd, interfaceNumber); err != nil {
		closeDevice(fd)
		return nil, fmt.Errorf("usbfs: claim interface %d: %w", interfaceNumber, err)
	}
	if err := setInterfaceAlt(fd, uint32(interfaceNumber), uint32(altSetting)); err != nil {
		releaseInterface(fd, interfaceNumber)
		closeDevice(fd)
		return nil, fmt.Errorf("usbfs: set interface %d alt %d: %w", interfaceNumber, altSetting, err)
	}
	return &Transport{fd: fd, iface: interfaceNumber, maxPacket: maxPacket}, nil
}

func (t *Transport) Control(reqType uint8, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	n, err := controlTransfer(t.fd, reqType, request, value, index, timeout, data)
	if err != nil {
		return n, fmt.Errorf("usbfs: control transfer: %w", err)
	}
	return n, nil
}

func (t *Transport) Bulk(endpoint uint8, data []byte, timeout time.Duration) (int, error) {
	n, err := bulkTransferIoctl(t.fd, endpoint, timeout, data)
	if err != nil {
		return n, fmt.Errorf("usbfs: bulk transfer on endpoint 0x%02x: %w", endpoint, err)
	}
	return n, nil
}

func (t *Transport) MaxPacketSize(endpoint uint8) int {
	return t.maxPacket[endpoint]
}

func (t *Transport) Close() error {
	releaseInterface(t.fd, t.iface)
	return closeDevice(t.fd)
}
