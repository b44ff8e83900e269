package midi

import (
	"context"
	"sync"
	"time"

	"rifflynx/debug"
)

// LED refresh rate
const ledFPS = 30

// MirrorColors are the RGB colors the grid mirror paints with
type MirrorColors struct {
	Held   [3]uint8 // notes the player is holding
	Visual [3]uint8 // notes the assistant is showing
	Root   [3]uint8 // every C, as a landmark
}

// Mirror shows held and visualized notes on a Launchpad grid. Updates are
// cheap; the LED loop sends only changed pads at a fixed frame rate.
type Mirror struct {
	grid   Grid
	colors MirrorColors

	mu         sync.Mutex
	controller Controller
	held       []int
	visual     []int
	dirty      bool
	prevLEDs   map[[2]int]LEDUpdate
}

func NewMirror(grid Grid, colors MirrorColors) *Mirror {
	return &Mirror{
		grid:     grid,
		colors:   colors,
		prevLEDs: make(map[[2]int]LEDUpdate),
	}
}

// Grid returns the layout the mirror paints
func (m *Mirror) Grid() Grid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grid
}

// SetGrid changes the layout, repainting everything
func (m *Mirror) SetGrid(g Grid) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grid = g
	m.dirty = true
}

// SetController attaches (or with nil detaches) the grid to paint on
func (m *Mirror) SetController(c Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	debug.Log("ctrl", "mirror controller set, resetting diff state")
	m.controller = c
	m.prevLEDs = make(map[[2]int]LEDUpdate)
	m.dirty = true
}

// Update replaces the held and visualized note numbers
func (m *Mirror) Update(held, visual []int) {
	m.mu.Lock()
	m.held = append(m.held[:0], held...)
	m.visual = append(m.visual[:0], visual...)
	m.dirty = true
	m.mu.Unlock()
}

// render computes the full desired grid. Visualized beats held beats root;
// visualized notes pulse, and flash when the player is holding them too.
func (m *Mirror) render() map[[2]int]LEDUpdate {
	leds := make(map[[2]int]LEDUpdate)
	paint := func(note int, color [3]uint8, channel uint8) {
		for _, cell := range m.grid.Cells(note) {
			leds[cell] = LEDUpdate{Row: cell[0], Col: cell[1], Color: color, Channel: channel}
		}
	}

	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			if m.grid.NoteAt(row, col)%12 == 0 {
				leds[[2]int{row, col}] = LEDUpdate{Row: row, Col: col, Color: m.colors.Root}
			}
		}
	}
	for _, n := range m.held {
		paint(n, m.colors.Held, ChannelStatic)
	}
	held := make(map[int]bool, len(m.held))
	for _, n := range m.held {
		held[n] = true
	}
	for _, n := range m.visual {
		channel := ChannelPulse
		if held[n] {
			channel = ChannelFlash
		}
		paint(n, m.colors.Visual, channel)
	}
	return leds
}

// Run flushes LED changes at a fixed rate until ctx is done
func (m *Mirror) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.flush()
		}
	}
}

// flush sends only changed LEDs to the controller (diffing + batching)
func (m *Mirror) flush() {
	m.mu.Lock()
	if !m.dirty || m.controller == nil {
		m.mu.Unlock()
		return
	}
	m.dirty = false

	newLEDs := m.render()
	var updates []LEDUpdate
	for key, led := range newLEDs {
		if prev, ok := m.prevLEDs[key]; !ok || prev != led {
			updates = append(updates, led)
		}
	}
	// clear LEDs that are no longer lit
	for key := range m.prevLEDs {
		if _, ok := newLEDs[key]; !ok {
			updates = append(updates, LEDUpdate{Row: key[0], Col: key[1]})
		}
	}
	m.prevLEDs = newLEDs
	controller := m.controller
	m.mu.Unlock()

	if len(updates) > 0 {
		debug.Log("led", "flush: batch=%d lit=%d", len(updates), len(newLEDs))
		if err := controller.SetLEDBatch(updates); err != nil {
			debug.Log("led", "flush failed: %v", err)
		}
	}
}

// Snapshot returns the pad colours the grid should currently show, indexed
// [row][col] with row 0 at the bottom
func (m *Mirror) Snapshot() [GridSize][GridSize][3]uint8 {
	m.mu.Lock()
	leds := m.render()
	m.mu.Unlock()

	var out [GridSize][GridSize][3]uint8
	for _, led := range leds {
		out[led.Row][led.Col] = led.Color
	}
	return out
}

// Attached reports whether a controller is being painted
func (m *Mirror) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controller != nil
}
