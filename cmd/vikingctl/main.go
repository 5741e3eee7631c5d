// Command vikingctl is a small inspection and control tool for Viking
// USB peripherals: list a device's resources and modes, drive a GPIO
// pin, or send one raw command and print the reply.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/signalspec/viking"
	"github.com/signalspec/viking/mode"
	"github.com/signalspec/viking/transport/gousb"
	"github.com/signalspec/viking/usbfs"
)

func main() {
	cfg, err := viking.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	vid := flag.Uint("vid", uint(cfg.VendorID), "USB vendor id")
	pid := flag.Uint("pid", uint(cfg.ProductID), "USB product id")
	transport := flag.String("transport", string(cfg.Transport), "usbfs|gousb")
	logLevel := flag.String("log-level", strings.ToLower(cfg.LogLevel.String()), "debug|info|warn|error")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if lvl, err := viking.ParseLogLevel(*logLevel); err == nil {
		viking.SetDefaultLogger(viking.NewLogger(lvl, os.Stderr))
	}

	var iface *viking.Interface
	switch viking.TransportKind(*transport) {
	case viking.TransportGoUSB:
		iface, err = gousb.AttachFirst(uint16(*vid), uint16(*pid), nil)
	default:
		iface, err = usbfs.AttachFirst(uint16(*vid), uint16(*pid), nil)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "vikingctl:", err)
		os.Exit(1)
	}
	defer iface.Close()

	switch args[0] {
	case "info":
		runInfo(iface)
	case "gpio":
		runGpio(iface, args[1:])
	case "raw":
		runRaw(iface, args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vikingctl [-vid=V] [-pid=P] <command> [args]

commands:
  info                               list resources and their modes
  gpio <resource> <float|read|low|high>   drive or read a GPIO pin
  raw <resource> <opcode> [hex payload]   send one raw command`)
}

func runInfo(iface *viking.Interface) {
	top := iface.Topology()
	for id, r := range top.Resources {
		fmt.Printf("%d: %s\n", id+1, r.Name)
		for _, m := range r.Modes {
			fmt.Printf("    protocol=0x%04x %q\n", m.Protocol, m.Name)
		}
	}
}

func runGpio(iface *viking.Interface, args []string) {
	if len(args) != 2 {
		usage()
		os.Exit(2)
	}
	res, err := iface.Resource(args[0])
	if err != nil {
		fail(err)
	}
	defer res.Close()

	g, err := mode.NewGpio(res)
	if err != nil {
		fail(err)
	}

	switch args[1] {
	case "float":
		fail(g.Float())
	case "low":
		fail(g.Low())
	case "high":
		fail(g.High())
	case "read":
		v, err := g.Read()
		fail(err)
		fmt.Println(v)
	default:
		usage()
		os.Exit(2)
	}
}

func runRaw(iface *viking.Interface, args []string) {
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	res, err := iface.Resource(args[0])
	if err != nil {
		fail(err)
	}
	defer res.Close()

	var opcode uint
	if _, err := fmt.Sscanf(args[1], "%d", &opcode); err != nil {
		fail(fmt.Errorf("vikingctl: bad opcode %q: %w", args[1], err))
	}
	var payload []byte
	if len(args) > 2 {
		payload, err = hex.DecodeString(args[2])
		if err != nil {
			fail(fmt.Errorf("vikingctl: bad hex payload: %w", err))
		}
	}

	batch := iface.NewBatch()
	const maxRawResponse = 64
	handle := batch.Push(viking.Command{
		ResourceID: res.ID(),
		Op:         uint8(opcode),
		Payload:    viking.BytesPayload(payload),
		Response:   viking.SliceResponse(maxRawResponse),
	})
	rb, err := batch.Run()
	fail(err)
	v, err := rb.Get(handle)
	fail(err)
	fmt.Println(hex.EncodeToString(v.([]byte)))
}

func fail(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "vikingctl:", err)
	os.Exit(1)
}
