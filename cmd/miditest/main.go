package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-tracker/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	defer gomidi.CloseDriver()

	switch os.Args[1] {
	case "list":
		listPorts()
	case "note":
		playNote(os.Args[2:])
	case "thru":
		thru(os.Args[2:])
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                      - List all MIDI ports")
	fmt.Println("  note PORT [NOTE] [CHAN]   - Play a note through the dispatcher")
	fmt.Println("  thru IN OUT               - Route a keyboard to an output")
	fmt.Println("  poll                      - Poll for device changes")
}

func listPorts() {
	fmt.Println("(waiting up to 3 seconds...)")
	ports, err := midi.ListPorts(midi.PortScanTimeout)
	if err != nil {
		fmt.Printf("\n%v\n", err)
		return
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range ports.InNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range ports.OutNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func argInt(args []string, i, def int) int {
	if i >= len(args) {
		return def
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return def
	}
	return v
}

func playNote(args []string) {
	if len(args) < 1 {
		usage()
		return
	}
	note := uint8(max(0, min(127, argInt(args, 1, 60))))
	channel := uint8(max(0, min(15, argInt(args, 2, 0))))

	d := midi.NewDispatcher(midi.NewPortSink(args[0]), nil)
	defer d.Close()

	fmt.Printf("Playing %d on channel %d of %q\n", note, channel+1, args[0])
	d.PlayAndStop("", channel, note, 100, 500*time.Millisecond)
	time.Sleep(600 * time.Millisecond)
	d.Flush()
}

func thru(args []string) {
	if len(args) < 2 {
		usage()
		return
	}
	ports, err := midi.ListPorts(midi.PortScanTimeout)
	if err != nil {
		fmt.Println(err)
		return
	}
	in, err := ports.FindIn(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	kb, err := midi.NewKeyboardController(in.String(), in)
	if err != nil {
		fmt.Println(err)
		return
	}
	d := midi.NewDispatcher(midi.NewPortSink(args[1]), nil)
	defer d.Close()

	fmt.Printf("Routing %q to %q. Ctrl+C to exit.\n", in.String(), args[1])
	midi.Thru(kb, d, midi.ThruConfig{})
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect devices to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		ports, err := midi.ListPorts(midi.PortScanTimeout)
		if err != nil {
			fmt.Println(err)
			time.Sleep(2 * time.Second)
			continue
		}
		inNames, outNames := ports.InNames(), ports.OutNames()

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)
			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
