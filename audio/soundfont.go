package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"

	"rifflynx/debug"
)

// render block in frames; bounds scheduling jitter to ~12ms at 44.1kHz
const block = 512

// synthesizer is the subset of meltysynth.Synthesizer the engine drives
type synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	NoteOn(channel, key, vel int32)
	NoteOff(channel, key int32)
	Render(left, right []float32)
}

type synthVoice struct {
	synth synthesizer
}

func (v synthVoice) NoteOn(key int, velocity float64) {
	vel := int32(math.Round(velocity * 127))
	if vel < 1 {
		vel = 1
	}
	if vel > 127 {
		vel = 127
	}
	v.synth.NoteOn(0, int32(key), vel)
}

func (v synthVoice) NoteOff(key int) {
	v.synth.NoteOff(0, int32(key))
}

// SoundFontEngine renders a SoundFont with meltysynth and streams it through
// oto. Its clock is the number of frames rendered so far, so scheduled
// events land on exact sample positions.
type SoundFontEngine struct {
	base
	synth  synthesizer
	rate   int
	frames atomic.Int64

	left, right []float32
	player      *oto.Player
}

// NewSoundFontEngine loads an .sf2 from r. Nothing is audible until Start.
func NewSoundFontEngine(r io.Reader, sampleRate, program int) (*SoundFontEngine, error) {
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, fmt.Errorf("load soundfont: %w", err)
	}
	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	synth, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}
	synth.ProcessMidiMessage(0, 0xC0, int32(program), 0)
	return newSoundFontEngine(synth, sampleRate), nil
}

func newSoundFontEngine(synth synthesizer, sampleRate int) *SoundFontEngine {
	e := &SoundFontEngine{
		synth: synth,
		rate:  sampleRate,
		left:  make([]float32, block),
		right: make([]float32, block),
	}
	e.base = newBase(e.seconds, synthVoice{synth: synth})
	return e
}

func (e *SoundFontEngine) seconds() float64 {
	return float64(e.frames.Load()) / float64(e.rate)
}

// Start opens the audio device and begins streaming
func (e *SoundFontEngine) Start() error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   e.rate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	e.player = ctx.NewPlayer(e)
	e.player.Play()
	debug.Log("audio", "soundfont engine started at %d Hz", e.rate)
	return nil
}

// Run keeps the engine alive until ctx ends, then pauses output
func (e *SoundFontEngine) Run(ctx context.Context) error {
	<-ctx.Done()
	e.ReleaseAll()
	if e.player != nil {
		e.player.Pause()
	}
	return nil
}

// Read renders interleaved float32 stereo frames. oto calls it from its own
// goroutine; the audio clock advances only here.
func (e *SoundFontEngine) Read(p []byte) (int, error) {
	const frameBytes = 8
	frames := len(p) / frameBytes
	written := 0

	for frames > 0 {
		n := min(frames, block)
		e.advance(e.seconds())

		e.mu.Lock()
		e.synth.Render(e.left[:n], e.right[:n])
		e.mu.Unlock()

		for i := 0; i < n; i++ {
			off := written + i*frameBytes
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(e.left[i]))
			binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(e.right[i]))
		}
		written += n * frameBytes
		frames -= n
		e.frames.Add(int64(n))
	}
	return written, nil
}
