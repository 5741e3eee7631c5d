package mode

import "github.com/signalspec/viking"

// Color names the eleven fixed LED colors a binary LED resource may be
// silkscreened for. It carries no wire representation of its own — it
// is metadata read from the resource name, not a command argument.
type Color uint8

const (
	ColorRed Color = iota + 1
	ColorOrange
	ColorYellow
	ColorGreen
	ColorCyan
	ColorBlue
	ColorPurple
	ColorMagenta
	ColorPink
	ColorWhite
	ColorUltraviolet
)

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorOrange:
		return "orange"
	case ColorYellow:
		return "yellow"
	case ColorGreen:
		return "green"
	case ColorCyan:
		return "cyan"
	case ColorBlue:
		return "blue"
	case ColorPurple:
		return "purple"
	case ColorMagenta:
		return "magenta"
	case ColorPink:
		return "pink"
	case ColorWhite:
		return "white"
	case ColorUltraviolet:
		return "ultraviolet"
	default:
		return "unknown"
	}
}

// Led is a two-state (on/off) LED resource.
type Led struct {
	res *viking.Resource
}

// NewLed configures res into the LED binary mode (protocol 0x0130).
func NewLed(res *viking.Resource) (*Led, error) {
	if _, err := res.ConfigureProtocol(viking.ProtoLedBinary, nil); err != nil {
		return nil, err
	}
	return &Led{res: res}, nil
}

// NewLedNamed configures res into the mode named name, verifying it is
// the LED binary protocol before treating it as one (§7 mode-match
// error).
func NewLedNamed(res *viking.Resource, name string) (*Led, error) {
	if _, err := res.ConfigureNamed(name, viking.ProtoLedBinary, nil); err != nil {
		return nil, err
	}
	return &Led{res: res}, nil
}

// On turns the LED on.
func (l *Led) On() error { return l.doSet(viking.LedOn) }

// Off turns the LED off.
func (l *Led) Off() error { return l.doSet(viking.LedOff) }

func (l *Led) doSet(op uint8) error {
	batch := l.res.Interface().NewBatch()
	h := batch.Push(viking.Command{ResourceID: l.res.ID(), Op: op, Payload: viking.UnitPayload{}, Response: viking.UnitResponse{}})
	rb, err := batch.Run()
	if err != nil {
		return err
	}
	_, err = rb.Get(h)
	return err
}
