// Package usbstd parses the standard USB descriptor set (device,
// configuration, interface, endpoint, string) that usbfs walks to find a
// device's Viking vendor interface and its alt-setting-1 bulk endpoints
// (transport/gousb uses gousb's own descriptor types instead). It is deliberately narrower than a
// general USB stack: BOS/capability descriptors, interface-association
// descriptors and SuperSpeed endpoint companions are out of scope —
// nothing in this driver's domain (full-speed/high-speed vendor bulk
// transfers) consumes them.
package usbstd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

type (
	// DescriptorType is the bDescriptorType byte at the front of every
	// standard descriptor record.
	DescriptorType uint8

	// Descriptor is implemented by every concrete descriptor struct; Type
	// reports back the record's own DescriptorType, useful in a type
	// switch over ReadDescriptors callback values.
	Descriptor interface {
		Type() DescriptorType
	}

	// DescriptorHeader is the two-byte [length, type] prefix common to
	// every descriptor.
	DescriptorHeader struct {
		Length         uint8
		DescriptorType DescriptorType
	}

	// UnknownDescriptor holds the raw bytes of a descriptor type this
	// package has no registered struct for.
	UnknownDescriptor struct {
		DescriptorHeader
		Data []byte
	}
)

const (
	DescriptorTypeDevice = DescriptorType(iota + 1)
	DescriptorTypeConfig
	DescriptorTypeString
	DescriptorTypeInterface
	DescriptorTypeEndpoint
)

// ClassCode is a USB-IF assigned device or interface class code.
type ClassCode uint8

// ClassCodeVendorSpecific (0xFF) is the class Viking devices and
// interfaces advertise (§6).
const ClassCodeVendorSpecific = ClassCode(0xFF)

var descriptorMap = map[DescriptorType]reflect.Type{
	DescriptorTypeDevice:    reflect.TypeOf(DeviceDescriptor{}),
	DescriptorTypeConfig:    reflect.TypeOf(ConfigurationDescriptor{}),
	DescriptorTypeInterface: reflect.TypeOf(InterfaceDescriptor{}),
	DescriptorTypeEndpoint:  reflect.TypeOf(EndpointDescriptor{}),
	DescriptorTypeString:    reflect.TypeOf(StringDescriptor{}),
}

func (h DescriptorHeader) Type() DescriptorType { return h.DescriptorType }

func (t DescriptorType) String() string {
	if typ, exist := descriptorMap[t]; exist {
		return typ.String()
	}
	return fmt.Sprintf("Unknown(0x%.2X)", uint8(t))
}

// RegisterDescriptorType lets a caller teach the reflection-based parser
// about an additional descriptor struct, the same extension point the
// teacher package exposes.
func RegisterDescriptorType(typ DescriptorType, desc Descriptor) {
	descriptorMap[typ] = reflect.TypeOf(desc)
}

// DeviceDescriptor is the device's single top-level descriptor (USB 2.0
// §9.6.1), trimmed to the fields enumeration and VID/PID matching need.
type DeviceDescriptor struct {
	DescriptorHeader
	BcdUSB             uint16
	BDeviceClass       ClassCode
	BDeviceSubClass    uint8
	BDeviceProtocol    uint8
	BMaxPacketSize0    uint8
	IDVendor           uint16
	IDProduct          uint16
	BcdDevice          uint16
	IManufacturer      uint8
	IProduct           uint8
	ISerialNumber      uint8
	BNumConfigurations uint8
}

// ConfigurationDescriptor precedes the interface/endpoint descriptors
// for one device configuration (USB 2.0 §9.6.3).
type ConfigurationDescriptor struct {
	DescriptorHeader
	WTotalLength        uint16
	BNumInterfaces      uint8
	BConfigurationValue uint8
	IConfiguration      uint8
	BmAttributes        uint8
	BMaxPower           uint8
}

// InterfaceDescriptor describes one alternate setting of one interface
// (USB 2.0 §9.6.5). Viking devices expose their vendor interface at
// BInterfaceClass=0xFF with two alternate settings: 0 (no endpoints) and
// 1 (the three bulk endpoints, §6).
type InterfaceDescriptor struct {
	DescriptorHeader
	BInterfaceNumber   uint8
	BAlternateSetting  uint8
	BNumEndpoints      uint8
	BInterfaceClass    ClassCode
	BInterfaceSubClass uint8
	BInterfaceProtocol uint8
	IInterface         uint8
}

// EndpointDescriptor describes one endpoint's address, transfer type
// and packet size (USB 2.0 §9.6.6).
type EndpointDescriptor struct {
	DescriptorHeader
	BEndpointAddress uint8
	BmAttributes     uint8
	WMaxPacketSize   uint16
	BInterval        uint8
}

// IsIn reports whether the endpoint's direction bit marks it IN.
func (e EndpointDescriptor) IsIn() bool { return e.BEndpointAddress&0x80 != 0 }

// IsBulk reports whether the endpoint's transfer-type bits (1:0) select
// bulk transfers.
func (e EndpointDescriptor) IsBulk() bool { return e.BmAttributes&0x03 == 0x02 }

// StringDescriptor carries either a LANGID table (string index 0) or a
// UTF-16LE string, depending on context (USB 2.0 §9.6.7).
type StringDescriptor struct {
	DescriptorHeader
	Data []byte
}

func readDescriptorHeader(r io.Reader) (*DescriptorHeader, error) {
	h := &DescriptorHeader{}
	err := binary.Read(r, binary.LittleEndian, h)
	return h, err
}

func newDescriptor(hdr DescriptorHeader) (any, reflect.Value) {
	if typ, exist := descriptorMap[hdr.DescriptorType]; exist {
		v := reflect.New(typ)
		v.Elem().Field(0).Set(reflect.ValueOf(hdr))
		return v.Interface(), v
	}
	v := reflect.New(reflect.TypeOf(UnknownDescriptor{}))
	v.Elem().Field(0).Set(reflect.ValueOf(hdr))
	return v.Interface(), v
}

func readDescriptor(hdr *DescriptorHeader, r io.Reader) (Descriptor, error) {
	desc, ptr := newDescriptor(*hdr)
	elem := ptr.Elem()

	body := io.LimitReader(r, int64(hdr.Length)-2)
	for i := 1; i < elem.NumField(); i++ {
		field := elem.Field(i)
		dest := field.Addr().Interface()
		if field.Kind() == reflect.Slice && field.Type() == reflect.TypeOf([]uint8(nil)) {
			rest, err := io.ReadAll(body)
			field.Set(reflect.ValueOf(rest))
			if err != nil {
				return nil, err
			}
			continue
		}
		if err := binary.Read(body, binary.LittleEndian, dest); err != nil {
			break
		}
	}
	// Skip any declared body bytes the struct has no field for, so the
	// next record starts at its own header.
	if _, err := io.Copy(io.Discard, body); err != nil {
		return nil, err
	}
	return desc.(Descriptor), nil
}

// ReadDescriptors walks a concatenated descriptor stream (as returned by
// a GET_DESCRIPTOR(Configuration) request with wLength covering the
// whole configuration) and invokes cb once per record.
func ReadDescriptors(r io.Reader, cb func(d Descriptor)) error {
	for {
		hdr, err := readDescriptorHeader(r)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		desc, err := readDescriptor(hdr, r)
		if err != nil {
			return err
		}
		cb(desc)
	}
}

// ParseDescriptor decodes a single descriptor record from data (its
// length prefix must match len(data)).
func ParseDescriptor(data []byte) (Descriptor, error) {
	r := bytes.NewReader(data)
	hdr, err := readDescriptorHeader(r)
	if err != nil {
		return nil, err
	}
	return readDescriptor(hdr, r)
}
