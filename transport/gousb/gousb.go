// Package gousb implements viking.Transport on top of google/gousb
// (libusb), for hosts where the Linux-only usbfs package isn't an
// option. It mirrors usbfs's attach flow: find the device by VID/PID,
// claim the vendor interface's alt-setting-1, and bind the three bulk
// endpoints.
package gousb

import (
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/signalspec/viking"
)

// Transport owns a gousb.Context/Device/Config/Interface chain and the
// two or three bulk endpoints Interface drives. Control transfers go
// through the device directly; gousb has no notion of a transport-level
// max packet size for control, so MaxPacketSize only reports bulk
// endpoints.
type Transport struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface

	epOut      *gousb.OutEndpoint
	epIn       *gousb.InEndpoint
	epEvt      *gousb.InEndpoint
	epReqAddr  uint8
	epResAddr  uint8
	epEvtAddr  uint8
	ifaceIndex int
}

var _ viking.Transport = (*Transport)(nil)

// Open finds the first device matching vid/pid, claims interfaceNumber
// at altSetting, and binds epReq/epRes/epEvt (epEvt may be 0 to skip the
// event endpoint).
func Open(vid, pid uint16, interfaceNumber, altSetting int, epReq, epRes, epEvt uint8) (*Transport, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("gousb: open device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("gousb: device %04x:%04x not found", vid, pid)
	}

	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		cfgNum = 1
	}
	cfg, err := dev.Config(cfgNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("gousb: set config %d: %w", cfgNum, err)
	}

	intf, err := cfg.Interface(interfaceNumber, altSetting)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("gousb: claim interface %d alt %d: %w", interfaceNumber, altSetting, err)
	}

	epOut, err := intf.OutEndpoint(int(epReq & 0x0f))
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("gousb: open request endpoint 0x%02x: %w", epReq, err)
	}
	epIn, err := intf.InEndpoint(int(epRes & 0x0f))
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("gousb: open response endpoint 0x%02x: %w", epRes, err)
	}

	t := &Transport{
		ctx:        ctx,
		device:     dev,
		config:     cfg,
		intf:       intf,
		epOut:      epOut,
		epIn:       epIn,
		epReqAddr:  epReq,
		epResAddr:  epRes,
		ifaceIndex: interfaceNumber,
	}

	if epEvt != 0 {
		evt, err := intf.InEndpoint(int(epEvt & 0x0f))
		if err == nil {
			t.epEvt = evt
			t.epEvtAddr = epEvt
		}
	}
	return t, nil
}

func (t *Transport) Control(reqType uint8, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	t.device.ControlTimeout = timeout
	n, err := t.device.Control(reqType, request, value, index, data)
	if err != nil {
		return n, fmt.Errorf("gousb: control transfer: %w", err)
	}
	return n, nil
}

func (t *Transport) Bulk(endpoint uint8, data []byte, timeout time.Duration) (int, error) {
	switch {
	case endpoint == t.epReqAddr:
		t.epOut.Timeout = timeout
		n, err := t.epOut.Write(data)
		if err != nil {
			return n, fmt.Errorf("gousb: bulk write 0x%02x: %w", endpoint, err)
		}
		return n, nil
	case endpoint == t.epResAddr:
		t.epIn.Timeout = timeout
		n, err := t.epIn.Read(data)
		if err != nil {
			return n, fmt.Errorf("gousb: bulk read 0x%02x: %w", endpoint, err)
		}
		return n, nil
	case t.epEvt != nil && endpoint == t.epEvtAddr:
		t.epEvt.Timeout = timeout
		n, err := t.epEvt.Read(data)
		if err != nil {
			return n, fmt.Errorf("gousb: bulk read 0x%02x: %w", endpoint, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("gousb: unbound endpoint 0x%02x", endpoint)
	}
}

func (t *Transport) MaxPacketSize(endpoint uint8) int {
	switch {
	case endpoint == t.epReqAddr:
		return t.epOut.Desc.MaxPacketSize
	case endpoint == t.epResAddr:
		return t.epIn.Desc.MaxPacketSize
	case t.epEvt != nil && endpoint == t.epEvtAddr:
		return t.epEvt.Desc.MaxPacketSize
	default:
		return 0
	}
}

func (t *Transport) Close() error {
	t.intf.Close()
	t.config.Close()
	t.device.Close()
	t.ctx.Close()
	return nil
}

// AttachFirst opens the device at vid/pid and attaches the Viking
// vendor interface found at Viking's fixed alt-setting, discovering the
// interface number and endpoint addresses from the active
// configuration descriptor.
func AttachFirst(vid, pid uint16, opts *viking.AttachOptions) (*viking.Interface, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil || dev == nil {
		return nil, fmt.Errorf("gousb: device %04x:%04x not found: %w", vid, pid, err)
	}
	defer dev.Close()

	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		cfgNum = 1
	}

	var ifaceNumber = -1
	var epReq, epRes, epEvt uint8
	cfgDesc, ok := dev.Desc.Configs[cfgNum]
	if !ok {
		return nil, fmt.Errorf("gousb: active config %d not described", cfgNum)
	}
	for _, ifc := range cfgDesc.Interfaces {
		for _, setting := range ifc.AltSettings {
			if setting.Alternate != viking.AltSettingActive || uint8(setting.Class) != viking.InterfaceClass {
				continue
			}
			ifaceNumber = ifc.Number
			for addr, ep := range setting.Endpoints {
				if ep.TransferType != gousb.TransferTypeBulk {
					continue
				}
				a := uint8(addr)
				if ep.Direction == gousb.EndpointDirectionOut {
					epReq = a
				} else if epRes == 0 {
					epRes = a
				} else {
					epEvt = a
				}
			}
		}
	}
	if ifaceNumber < 0 || epReq == 0 || epRes == 0 {
		return nil, fmt.Errorf("gousb: no Viking vendor interface found on %04x:%04x", vid, pid)
	}

	transport, err := Open(vid, pid, ifaceNumber, viking.AltSettingActive, epReq, epRes, epEvt)
	if err != nil {
		return nil, err
	}
	iface, err := viking.Attach(transport, ifaceNumber, epReq, epRes, epEvt, opts)
	if err != nil {
		transport.Close()
		return nil, err
	}
	return iface, nil
}
