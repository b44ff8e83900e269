package midi

// GridSize is the playable pad area of a Launchpad
const GridSize = 8

// Grid is an isomorphic note layout: each column to the right is a semitone
// up, each row up is a fourth (5 semitones). Base is the MIDI note at the
// bottom-left pad.
type Grid struct {
	Base int
}

// NoteAt returns the MIDI note on pad row,col
func (g Grid) NoteAt(row, col int) int {
	return g.Base + col + 5*row
}

// Cells returns every pad position playing note. The same pitch appears on
// several pads in this layout.
func (g Grid) Cells(note int) [][2]int {
	var cells [][2]int
	for row := 0; row < GridSize; row++ {
		col := note - g.Base - 5*row
		if col >= 0 && col < GridSize {
			cells = append(cells, [2]int{row, col})
		}
	}
	return cells
}

// PadNote converts a pad press or release into a note event. Pads outside
// the 8x8 area do not map.
func (g Grid) PadNote(ev PadEvent) (NoteEvent, bool) {
	if ev.Row < 0 || ev.Row >= GridSize || ev.Col < 0 || ev.Col >= GridSize {
		return NoteEvent{}, false
	}
	note := g.NoteAt(ev.Row, ev.Col)
	if note < 0 || note > 127 {
		return NoteEvent{}, false
	}
	return NoteEvent{Note: uint8(note), Velocity: ev.Velocity, On: !ev.Released && ev.Velocity > 0}, true
}
