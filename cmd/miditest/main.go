package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"rifflynx/config"
	"rifflynx/midi"
	"rifflynx/notes"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listPorts(ctx, cfg)
	case "monitor":
		monitor(ctx, cfg)
	case "leds":
		testLEDs(ctx, cfg)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list     - List MIDI inputs and how RiffLynx would use them")
	fmt.Println("  monitor  - Print notes and pad presses as they arrive")
	fmt.Println("  leds     - Show a C major chord on a Launchpad grid")
}

func listPorts(ctx context.Context, cfg *config.Config) {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ports, err := midi.ScanPorts(ctx, cfg.MIDI.ExcludedPorts)
	if err != nil {
		fmt.Printf("\n%v\n", err)
		fmt.Println("On macOS a hung CoreMIDI can be fixed with: sudo killall coreaudiod midiserver")
		return
	}
	for i, p := range ports {
		fmt.Printf("  %d: %-40s %s\n", i, p.Name, p.Type)
	}
}

// monitor prints every event from every connected device until interrupted
func monitor(ctx context.Context, cfg *config.Config) {
	fmt.Println("Play something. Connect/disconnect devices to test hot-plug. Ctrl+C to exit.")

	dm := midi.NewDeviceManager(cfg.MIDI.PollInterval(), cfg.MIDI.ExcludedPorts)
	go dm.Run(ctx)

	grid := midi.Grid{Base: launchpadBase(cfg)}
	for ev := range dm.Events() {
		stamp := time.Now().Format("15:04:05")
		if ev.Type == midi.DeviceDisconnected {
			fmt.Printf("[%s] - %s\n", stamp, ev.ID)
			continue
		}
		fmt.Printf("[%s] + %s (%s)\n", stamp, ev.ID, ev.Controller.Type())

		c := ev.Controller
		go func() {
			for n := range c.NoteEvents() {
				printNote(c.ID(), n)
			}
		}()
		go func() {
			for p := range c.PadEvents() {
				if n, ok := grid.PadNote(p); ok {
					printNote(fmt.Sprintf("%s pad %d,%d", c.ID(), p.Row, p.Col), n)
				}
			}
		}()
	}
}

func printNote(source string, n midi.NoteEvent) {
	name, ok := notes.Name(int(n.Note))
	if !ok {
		name = fmt.Sprintf("#%d", n.Note)
	}
	dir := "off"
	if n.On {
		dir = "on "
	}
	fmt.Printf("  %s %-4s vel=%3d ch=%d  %s\n", dir, name, n.Velocity, n.Channel, source)
}

// testLEDs paints held C4 E4 G4 on the first Launchpad found
func testLEDs(ctx context.Context, cfg *config.Config) {
	fmt.Println("Looking for a Launchpad...")

	dm := midi.NewDeviceManager(cfg.MIDI.PollInterval(), cfg.MIDI.ExcludedPorts)
	go dm.Run(ctx)

	mirror := midi.NewMirror(midi.Grid{Base: launchpadBase(cfg)}, midi.MirrorColors{
		Held:   [3]uint8{255, 80, 0},
		Visual: [3]uint8{0, 200, 255},
		Root:   [3]uint8{40, 0, 80},
	})
	go mirror.Run(ctx)

	for ev := range dm.Events() {
		if ev.Type != midi.DeviceConnected || ev.Controller.Type() != midi.ControllerLaunchpad {
			continue
		}
		fmt.Printf("Using %s\n", ev.ID)
		mirror.SetController(ev.Controller)
		mirror.Update([]int{60, 64, 67}, nil)
		fmt.Println("Held: C4 E4 G4. Ctrl+C to exit.")
	}
}

func launchpadBase(cfg *config.Config) int {
	for _, c := range cfg.Controllers {
		if c.BaseNote > 0 {
			return c.BaseNote
		}
	}
	return 48
}
