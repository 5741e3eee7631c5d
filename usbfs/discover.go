//go:build linux

package usbfs

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/signalspec/viking"
	"github.com/signalspec/viking/usbstd"
)

const sysfsDeviceDir = "/sys/bus/usb/devices"

func readSysfsInt(devName, attr string) (int, error) {
	data, err := os.ReadFile(fmt.Sprintf("%s/%s/%s", sysfsDeviceDir, devName, attr))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func readSysfsDescriptors(devName string) ([]byte, error) {
	return os.ReadFile(fmt.Sprintf("%s/%s/descriptors", sysfsDeviceDir, devName))
}

// VikingInterface describes a discovered candidate vendor interface: its
// location (bus/device/interface numbers), the alt-setting that exposes
// the bulk endpoints, and those endpoints' addresses and packet sizes.
type VikingInterface struct {
	BusNumber       int
	DeviceNumber    int
	InterfaceNumber int
	AltSetting      int
	EpReq, EpRes, EpEvt uint8
	MaxPacket       map[uint8]int
}

// Discover scans /sys/bus/usb/devices for a device matching vid/pid and
// locates its Viking vendor interface: class 0xFF, alternate setting 1,
// with at least two bulk endpoints (request/response; the event endpoint
// is optional, see SPEC_FULL.md §9). It returns every matching interface
// found, across however many devices/configurations advertise one.
func Discover(vid, pid uint16) ([]VikingInterface, error) {
	entries, err := os.ReadDir(sysfsDeviceDir)
	if err != nil {
		return nil, fmt.Errorf("usbfs: read %s: %w", sysfsDeviceDir, err)
	}

	var found []VikingInterface
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "usb") || strings.Contains(name, ":") {
			continue
		}
		raw, err := readSysfsDescriptors(name)
		if err != nil {
			continue
		}

		var dev *usbstd.DeviceDescriptor
		var curIface *usbstd.InterfaceDescriptor
		var eps []usbstd.EndpointDescriptor
		var ifaces []struct {
			iface usbstd.InterfaceDescriptor
			eps   []usbstd.EndpointDescriptor
		}
		flush := func() {
			if curIface != nil {
				ifaces = append(ifaces, struct {
					iface usbstd.InterfaceDescriptor
					eps   []usbstd.EndpointDescriptor
				}{*curIface, eps})
			}
		}

		err = usbstd.ReadDescriptors(bytes.NewReader(raw), func(d usbstd.Descriptor) {
			switch v := d.(type) {
			case *usbstd.DeviceDescriptor:
				dev = v
			case *usbstd.InterfaceDescriptor:
				flush()
				iface := *v
				curIface = &iface
				eps = nil
			case *usbstd.EndpointDescriptor:
				eps = append(eps, *v)
			}
		})
		if err != nil || dev == nil {
			continue
		}
		flush()

		if dev.IDVendor != vid || dev.IDProduct != pid {
			continue
		}
		busNum, errB := readSysfsInt(name, "busnum")
		devNum, errD := readSysfsInt(name, "devnum")
		if errB != nil || errD != nil {
			continue
		}

		for _, ifc := range ifaces {
			if ifc.iface.BInterfaceClass != usbstd.ClassCodeVendorSpecific || ifc.iface.BAlternateSetting != viking.AltSettingActive {
				continue
			}
			vi := VikingInterface{
				BusNumber:       busNum,
				DeviceNumber:    devNum,
				InterfaceNumber: int(ifc.iface.BInterfaceNumber),
				AltSetting:      int(ifc.iface.BAlternateSetting),
				MaxPacket:       map[uint8]int{},
			}
			for _, ep := range ifc.eps {
				if !ep.IsBulk() {
					continue
				}
				vi.MaxPacket[ep.BEndpointAddress] = int(ep.WMaxPacketSize)
				if ep.IsIn() {
					if vi.EpRes == 0 {
						vi.EpRes = ep.BEndpointAddress
					} else {
						vi.EpEvt = ep.BEndpointAddress
					}
				} else {
					vi.EpReq = ep.BEndpointAddress
				}
			}
			if vi.EpReq != 0 && vi.EpRes != 0 {
				found = append(found, vi)
			}
		}
	}
	return found, nil
}

// AttachFirst discovers interfaces matching vid/pid and attaches to the
// first one found, returning the live viking.Interface.
func AttachFirst(vid, pid uint16, opts *viking.AttachOptions) (*viking.Interface, error) {
	candidates, err := Discover(vid, pid)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("usbfs: no device %04x:%04x with a Viking vendor interface found", vid, pid)
	}
	c := candidates[0]
	transport, err := Open(c.BusNumber, c.DeviceNumber, c.InterfaceNumber, c.AltSetting, c.MaxPacket)
	if err != nil {
		return nil, err
	}
	iface, err := viking.Attach(transport, c.InterfaceNumber, c.EpReq, c.EpRes, c.EpEvt, opts)
	if err != nil {
		transport.Close()
		return nil, err
	}
	return iface, nil
}
