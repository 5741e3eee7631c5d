// Package mode provides typed façades over a configured viking.Resource
// for each built-in protocol: GPIO, LED, I2C and SPI controllers, plus
// the SPI-device-with-chip-select composite (§4.7).
package mode

import "github.com/signalspec/viking"

// Gpio is a single digital pin in one of four states: floating, driven
// low, driven high, or read back. It also serves the SCL/SDA/SCK/SDO/SDI
// pin sub-modes, which share the same four-opcode contract as the GPIO
// pin mode.
type Gpio struct {
	res *viking.Resource
}

// NewGpio configures res into the GPIO pin mode (protocol 0x0110) and
// returns a typed wrapper.
func NewGpio(res *viking.Resource) (*Gpio, error) {
	return newGpioOnProtocol(res, viking.ProtoGpioPin)
}

// NewGpioNamed configures res into the mode named name, verifying it is
// the GPIO pin protocol before treating it as one (§7 mode-match error).
func NewGpioNamed(res *viking.Resource, name string) (*Gpio, error) {
	return newGpioNamedOnProtocol(res, name, viking.ProtoGpioPin)
}

// OpenPinSubMode configures res into one of the bus-controller pin
// sub-modes (SCL/SDA/SCK/SDO/SDI, §4.7) so it can be driven directly like
// a plain GPIO pin instead of through the owning controller mode.
func OpenPinSubMode(res *viking.Resource, protocol uint16) (*Gpio, error) {
	return newGpioOnProtocol(res, protocol)
}

// OpenPinSubModeNamed is OpenPinSubMode by the pin's descriptor name
// instead of its protocol number, still verifying the named mode is
// protocol-shaped correctly before returning a Gpio over it.
func OpenPinSubModeNamed(res *viking.Resource, name string, protocol uint16) (*Gpio, error) {
	return newGpioNamedOnProtocol(res, name, protocol)
}

func newGpioOnProtocol(res *viking.Resource, protocol uint16) (*Gpio, error) {
	if _, err := res.ConfigureProtocol(protocol, nil); err != nil {
		return nil, err
	}
	return &Gpio{res: res}, nil
}

func newGpioNamedOnProtocol(res *viking.Resource, name string, protocol uint16) (*Gpio, error) {
	if _, err := res.ConfigureNamed(name, protocol, nil); err != nil {
		return nil, err
	}
	return &Gpio{res: res}, nil
}

func (g *Gpio) run(op uint8, resp viking.Response) (any, error) {
	batch := g.res.Interface().NewBatch()
	h := batch.Push(viking.Command{ResourceID: g.res.ID(), Op: op, Payload: viking.UnitPayload{}, Response: resp})
	rb, err := batch.Run()
	if err != nil {
		return nil, err
	}
	return rb.Get(h)
}

// Float releases the pin to a high-impedance state.
func (g *Gpio) Float() error {
	_, err := g.run(viking.GpioFloat, viking.UnitResponse{})
	return err
}

// Low drives the pin low.
func (g *Gpio) Low() error {
	_, err := g.run(viking.GpioLow, viking.UnitResponse{})
	return err
}

// High drives the pin high.
func (g *Gpio) High() error {
	_, err := g.run(viking.GpioHigh, viking.UnitResponse{})
	return err
}

// Read returns the pin's current level (0 or 1).
func (g *Gpio) Read() (uint8, error) {
	v, err := g.run(viking.GpioRead, viking.U8Response{})
	if err != nil {
		return 0, err
	}
	return v.(uint8), nil
}
