package viking

import (
	"fmt"
	"unicode/utf8"
)

// Mode is a selectable personality of a Resource, identified by a 16-bit
// protocol number plus opaque mode-specific descriptor bytes.
type Mode struct {
	Name            string
	Protocol        uint16
	DescriptorBytes []byte
}

// ResourceDescriptor is a numbered slot on the device (a pin, a bus)
// discovered at attach time. IDs are 1-based; id 0 is reserved for base
// commands and never appears here. This is the descriptor-tree entity;
// Resource (resource.go) is the runtime handle a caller acquires against
// one of these by name.
type ResourceDescriptor struct {
	Name  string
	Modes []Mode
}

// Header is the fixed-layout Viking header carried in descriptor record
// type 0x40. TotalLen/MaxCmd/MaxRes/MaxEvt are little-endian on the wire.
type Header struct {
	TotalLen uint16
	Version  uint8
	Reserved uint8
	MaxCmd   uint32
	MaxRes   uint32
	MaxEvt   uint32
}

// Topology is the parsed resource/mode tree returned by DESCRIBE_RESOURCES.
// Its shape never mutates after ParseTopology returns.
type Topology struct {
	Header    *Header // nil if the descriptor carried no 0x40 record
	Resources []ResourceDescriptor
}

// FindResource returns the 1-based id of the resource with the given exact
// name, or ok=false.
func (t *Topology) FindResource(name string) (id uint8, ok bool) {
	for i, r := range t.Resources {
		if r.Name == name {
			return uint8(i + 1), true
		}
	}
	return 0, false
}

// resourceByID returns a pointer to the resource with the given 1-based
// id, or nil if out of range.
func (t *Topology) resourceByID(id uint8) *ResourceDescriptor {
	if id == 0 || int(id) > len(t.Resources) {
		return nil
	}
	return &t.Resources[id-1]
}

// FindMode returns the 1-based mode id within resourceID whose protocol
// number matches, or ok=false.
func (t *Topology) FindMode(resourceID uint8, protocol uint16) (id uint8, ok bool) {
	r := t.resourceByID(resourceID)
	if r == nil {
		return 0, false
	}
	for i, m := range r.Modes {
		if m.Protocol == protocol {
			return uint8(i + 1), true
		}
	}
	return 0, false
}

// FindModeNamed returns the 1-based mode id within resourceID with the
// given exact name, or ok=false.
func (t *Topology) FindModeNamed(resourceID uint8, name string) (id uint8, ok bool) {
	r := t.resourceByID(resourceID)
	if r == nil {
		return 0, false
	}
	for i, m := range r.Modes {
		if m.Name == name {
			return uint8(i + 1), true
		}
	}
	return 0, false
}

// ModeByID returns the Mode value for the given resource/mode id pair, or
// ok=false if either id is out of range.
func (t *Topology) ModeByID(resourceID, modeID uint8) (Mode, bool) {
	r := t.resourceByID(resourceID)
	if r == nil || modeID == 0 || int(modeID) > len(r.Modes) {
		return Mode{}, false
	}
	return r.Modes[modeID-1], true
}

const (
	maxResources     = 63
	maxModesPerResource = 254
)

// ParseTopology parses the flat TLV byte stream returned by
// DESCRIBE_RESOURCES (§3) into a Topology. It performs a single stateful
// left-to-right walk, tracking the most recently opened Resource and Mode
// so that a trailing Identifier record can name whichever was opened last.
func ParseTopology(data []byte) (*Topology, error) {
	t := &Topology{}
	var curResource *ResourceDescriptor // points into t.Resources
	var curMode *Mode         // points into curResource.Modes
	haveResource := false

	for pos := 0; pos < len(data); {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("viking: descriptor record header overruns input at offset %d", pos)
		}
		length := int(data[pos])
		typ := data[pos+1]
		if length < 2 {
			return nil, fmt.Errorf("viking: descriptor record at offset %d has invalid length %d", pos, length)
		}
		end := pos + length
		if end > len(data) {
			return nil, fmt.Errorf("viking: descriptor record at offset %d overruns input (len %d, remaining %d)", pos, length, len(data)-pos)
		}
		body := data[pos+2 : end]

		switch typ {
		case DescTypeHeader:
			h, err := parseHeader(body)
			if err != nil {
				return nil, err
			}
			t.Header = h

		case DescTypeIdentifier:
			if !utf8.Valid(body) {
				return nil, fmt.Errorf("viking: identifier record at offset %d is not valid UTF-8", pos)
			}
			name := string(body)
			if curMode != nil {
				curMode.Name = name
			} else if curResource != nil {
				curResource.Name = name
			}
			// An identifier with neither a resource nor a mode open has
			// nothing to name; that is not an error (the walk is
			// tolerant of records with no addressee).

		case DescTypeResource:
			if len(t.Resources) >= maxResources {
				return nil, fmt.Errorf("viking: descriptor declares more than %d resources", maxResources)
			}
			t.Resources = append(t.Resources, ResourceDescriptor{})
			curResource = &t.Resources[len(t.Resources)-1]
			curMode = nil
			haveResource = true

		case DescTypeMode:
			if !haveResource {
				return nil, fmt.Errorf("viking: mode record at offset %d precedes any resource record", pos)
			}
			if len(body) < 2 {
				return nil, fmt.Errorf("viking: mode record at offset %d missing protocol number", pos)
			}
			if len(curResource.Modes) >= maxModesPerResource {
				return nil, fmt.Errorf("viking: resource %q declares more than %d modes", curResource.Name, maxModesPerResource)
			}
			protocol := uint16(body[0]) | uint16(body[1])<<8
			descBytes := append([]byte(nil), body[2:]...)
			curResource.Modes = append(curResource.Modes, Mode{Protocol: protocol, DescriptorBytes: descBytes})
			curMode = &curResource.Modes[len(curResource.Modes)-1]

		default:
			// Unknown record types are skipped (§3).
		}

		pos = end
	}
	return t, nil
}

func parseHeader(body []byte) (*Header, error) {
	if len(body) < 16 {
		return nil, fmt.Errorf("viking: header record too short: %d bytes", len(body))
	}
	return &Header{
		TotalLen: uint16(body[0]) | uint16(body[1])<<8,
		Version:  body[2],
		Reserved: body[3],
		MaxCmd:   uint32(body[4]) | uint32(body[5])<<8 | uint32(body[6])<<16 | uint32(body[7])<<24,
		MaxRes:   uint32(body[8]) | uint32(body[9])<<8 | uint32(body[10])<<16 | uint32(body[11])<<24,
		MaxEvt:   uint32(body[12]) | uint32(body[13])<<8 | uint32(body[14])<<16 | uint32(body[15])<<24,
	}, nil
}
