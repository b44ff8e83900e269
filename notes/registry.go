package notes

import (
	"fmt"
	"strings"
)

// Piano range covered by the registry (A0..C8)
const (
	LowestNumber  = 21
	HighestNumber = 108
)

// KeyColor distinguishes white and black keys for rendering
type KeyColor int

const (
	White KeyColor = iota
	Black
)

// Sharp spelling is canonical. Flats coming from outside are rewritten to these.
var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flatToSharp = map[string]string{
	"Db": "C#", "Eb": "D#", "Gb": "F#", "Ab": "G#", "Bb": "A#",
	"Cb": "B", "Fb": "E", "E#": "F", "B#": "C",
}

var (
	byNumber map[int]string
	byName   map[string]int
)

func init() {
	byNumber = make(map[int]string, HighestNumber-LowestNumber+1)
	byName = make(map[string]int, HighestNumber-LowestNumber+1)
	for n := LowestNumber; n <= HighestNumber; n++ {
		name := fmt.Sprintf("%s%d", pitchClasses[n%12], n/12-1)
		byNumber[n] = name
		byName[name] = n
	}
}

// Name returns the canonical name for a MIDI note number ("C#4" for 61).
// Numbers outside the piano range are unresolved.
func Name(number int) (string, bool) {
	name, ok := byNumber[number]
	return name, ok
}

// Number returns the MIDI note number for a canonical name
func Number(name string) (int, bool) {
	n, ok := byName[name]
	return n, ok
}

// Color returns the key color of a MIDI note number
func Color(number int) KeyColor {
	switch number % 12 {
	case 1, 3, 6, 8, 10:
		return Black
	}
	return White
}

// PitchClass strips octave digits: "C#4" -> "C#"
func PitchClass(name string) string {
	return strings.TrimRight(name, "-0123456789")
}

// Canonical rewrites a note name to the registry spelling. It accepts flats,
// lower-case letters and unicode accidentals ("bb3", "B♭3" -> "A#3").
// Octave wrap is handled for Cb/B#. Names outside the piano range fail.
func Canonical(name string) (string, bool) {
	s := strings.TrimSpace(name)
	s = strings.NewReplacer("♯", "#", "♭", "b").Replace(s)
	if s == "" {
		return "", false
	}

	letter := strings.ToUpper(s[:1])
	rest := s[1:]
	accidental := ""
	if len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		accidental = rest[:1]
		rest = rest[1:]
	}

	var octave int
	if _, err := fmt.Sscanf(rest, "%d", &octave); err != nil || fmt.Sprint(octave) != rest {
		return "", false
	}

	pc := letter + accidental
	if sharp, ok := flatToSharp[pc]; ok {
		switch pc {
		case "Cb":
			octave--
		case "B#":
			octave++
		}
		pc = sharp
	}

	canonical := fmt.Sprintf("%s%d", pc, octave)
	if _, ok := byName[canonical]; !ok {
		return "", false
	}
	return canonical, true
}

// CanonicalSteps canonicalizes every name of a note sequence. Unknown names
// are returned in dropped; steps left empty are removed.
func CanonicalSteps(raw [][]string) (steps [][]string, dropped []string) {
	for _, step := range raw {
		var names []string
		for _, n := range step {
			name, ok := Canonical(n)
			if !ok {
				dropped = append(dropped, n)
				continue
			}
			names = append(names, name)
		}
		if len(names) > 0 {
			steps = append(steps, names)
		}
	}
	return steps, dropped
}
