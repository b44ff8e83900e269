package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"rifflynx/assistant"
	"rifflynx/audio"
	"rifflynx/chat"
	"rifflynx/config"
	"rifflynx/debug"
	"rifflynx/midi"
	"rifflynx/notes"
	"rifflynx/remote"
	"rifflynx/session"
	"rifflynx/speech"
	"rifflynx/theme"
	"rifflynx/tui"
)

// engine is a sound engine with its own driving loop
type engine interface {
	audio.Engine
	Run(ctx context.Context) error
}

func run(ctx context.Context, cfg *config.Config, f flags) error {
	if f.debug {
		if err := debug.Enable(); err != nil {
			return err
		}
		defer debug.Disable()
	}

	flush, err := debug.InitSentry(cfg.SentryDSN, "production", version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer flush()

	palette, err := theme.LoadGPL(f.palette)
	if err != nil {
		return fmt.Errorf("load palette: %w", err)
	}
	th := theme.New(palette)

	clock := clockwork.NewRealClock()
	eng := openEngine(cfg, clock)

	var provider assistant.Provider
	factory := assistant.NewProviderFactory(cfg.Assistant.OpenAIAPIKey, cfg.Assistant.GeminiAPIKey)
	if p, err := factory.GetProvider(ctx, cfg.Assistant.Model, cfg.Assistant.Provider); err != nil {
		debug.Warn("assistant", "no provider", debug.Fields{"error": err.Error()})
	} else {
		provider = p
	}

	sess := session.New(session.FromConfig(cfg), eng, provider, clock)

	dm := midi.NewDeviceManager(cfg.MIDI.PollInterval(), cfg.MIDI.ExcludedPorts)
	mirror := midi.NewMirror(midi.Grid{Base: baseNote(cfg, "")}, midi.MirrorColors{
		Held:   rgb(th.RGB(theme.RoleActive)),
		Visual: rgb(th.RGB(theme.RoleSuccess)),
		Root:   rgb(th.RGB(theme.RoleSurface)),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sess.Run(ctx) })
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return dm.Run(ctx) })
	g.Go(func() error { return routeDevices(ctx, cfg, dm, sess, mirror) })
	g.Go(func() error { return mirror.Run(ctx) })
	g.Go(func() error { return syncMirror(ctx, sess, mirror) })

	var sup *speech.Supervisor
	if rec := recognizer(cfg, f); rec != nil {
		sup = speech.NewSupervisor(rec, speech.Options{
			RestartDelay: cfg.Speech.RestartDelay(),
			RestartBurst: cfg.Speech.RestartBurst,
			Clock:        clock,
			OnStatus: func(st speech.Status, err error) {
				sess.SetVoiceStatus(voiceStatus(st, err))
			},
		})
		g.Go(func() error { return sup.Run(ctx) })
		g.Go(func() error { return forwardTranscripts(ctx, sup, sess) })
	}

	if cfg.Remote.Listen != "" {
		srv := remote.NewServer(sess, cfg.Remote.Listen)
		if sup != nil {
			srv.WithVoice(sup)
		}
		g.Go(func() error { return srv.Run(ctx) })
	}

	if f.noTUI {
		g.Go(func() error { return printReplies(ctx, sess) })
	} else {
		model := tui.NewModel(sess, th, mirror)
		if sup != nil {
			model.Voice = sup
		}
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		g.Go(func() error {
			defer cancel()
			_, err := program.Run()
			if ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

// openEngine prefers the SoundFont synth and falls back to a silent clock
func openEngine(cfg *config.Config, clock clockwork.Clock) engine {
	if !cfg.Audio.Enabled || cfg.Audio.SoundFont == "" {
		return audio.NewSilentEngine(clock)
	}
	sf, err := os.Open(cfg.Audio.SoundFont)
	if err != nil {
		debug.Warn("audio", "soundfont unavailable, running silent", debug.Fields{"error": err.Error()})
		return audio.NewSilentEngine(clock)
	}
	defer sf.Close()

	e, err := audio.NewSoundFontEngine(sf, cfg.Audio.SampleRate, cfg.Audio.Program)
	if err == nil {
		err = e.Start()
	}
	if err != nil {
		debug.Error("audio", err, debug.Fields{"soundfont": cfg.Audio.SoundFont})
		return audio.NewSilentEngine(clock)
	}
	return e
}

func recognizer(cfg *config.Config, f flags) speech.Recognizer {
	switch {
	case len(cfg.Speech.Command) > 0:
		return &speech.CommandRecognizer{Command: cfg.Speech.Command}
	case f.noTUI:
		return speech.NewLineRecognizer(os.Stdin)
	}
	return nil
}

func voiceStatus(st speech.Status, err error) string {
	if err != nil {
		return fmt.Sprintf("voice %s: %v", st, err)
	}
	return "voice " + st.String()
}

func forwardTranscripts(ctx context.Context, sup *speech.Supervisor, sess *session.Session) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case text := <-sup.Transcripts():
			sess.Transcript(text)
		}
	}
}

// routeDevices feeds every connected controller into the session and keeps
// the status line and the grid mirror current. Ports configured with
// autoConnect off are left alone.
func routeDevices(ctx context.Context, cfg *config.Config, dm *midi.DeviceManager, sess *session.Session, mirror *midi.Mirror) error {
	var launchpadID string
	attach := func(c midi.Controller) {
		launchpadID = c.ID()
		mirror.SetGrid(midi.Grid{Base: baseNote(cfg, c.ID())})
		mirror.SetController(c)
	}

	for {
		var ev midi.DeviceEvent
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-dm.Events():
			if !ok {
				return nil
			}
			ev = e
		}

		switch ev.Type {
		case midi.DeviceConnected:
			c := ev.Controller
			if cc := cfg.FindController(c.ID()); cc != nil && !cc.AutoConnect {
				debug.Log("midi", "ignoring %s: autoConnect is off", c.ID())
				break
			}
			go forwardNotes(c.NoteEvents(), sess)
			if c.Type() == midi.ControllerLaunchpad {
				grid := midi.Grid{Base: baseNote(cfg, c.ID())}
				go forwardPads(c.PadEvents(), grid, sess)
				if launchpadID == "" {
					attach(c)
				}
			}
		case midi.DeviceDisconnected:
			if ev.ID == launchpadID {
				launchpadID = ""
				mirror.SetController(nil)
				if lp := dm.GetLaunchpad(); lp != nil {
					attach(lp)
				}
			}
		}
		sess.SetDeviceStatus(midi.FormatStatus(dm.Names()))
	}
}

// noteSink takes note input, normally the session
type noteSink interface {
	NoteOn(number int, velocity uint8)
	NoteOff(number int)
}

// heldKeys forwards one device's notes and remembers which are down, so a
// device unplugged mid-chord does not leave them held
type heldKeys struct {
	sink noteSink
	down map[int]bool
}

func newHeldKeys(sink noteSink) *heldKeys {
	return &heldKeys{sink: sink, down: make(map[int]bool)}
}

func (h *heldKeys) apply(n midi.NoteEvent) {
	number := int(n.Note)
	if n.On {
		h.down[number] = true
		h.sink.NoteOn(number, n.Velocity)
		return
	}
	delete(h.down, number)
	h.sink.NoteOff(number)
}

func (h *heldKeys) releaseAll() {
	for _, number := range slices.Sorted(maps.Keys(h.down)) {
		h.sink.NoteOff(number)
	}
	clear(h.down)
}

// forwardNotes runs until the controller closes its channel on disconnect
func forwardNotes(events <-chan midi.NoteEvent, sink noteSink) {
	keys := newHeldKeys(sink)
	defer keys.releaseAll()
	for n := range events {
		keys.apply(n)
	}
}

func forwardPads(events <-chan midi.PadEvent, grid midi.Grid, sink noteSink) {
	keys := newHeldKeys(sink)
	defer keys.releaseAll()
	for p := range events {
		if n, ok := grid.PadNote(p); ok {
			keys.apply(n)
		}
	}
}

// syncMirror copies held and visualized notes onto the grid mirror
func syncMirror(ctx context.Context, sess *session.Session, mirror *midi.Mirror) error {
	ticker := time.NewTicker(time.Second / 30)
	defer ticker.Stop()

	var held, visual []string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		snap := sess.Snapshot()
		if slices.Equal(held, snap.Held) && slices.Equal(visual, snap.Visualized) {
			continue
		}
		held, visual = snap.Held, snap.Visualized
		mirror.Update(numbers(held), numbers(visual))
	}
}

func numbers(names []string) []int {
	out := make([]int, 0, len(names))
	for _, name := range names {
		if n, ok := notes.Number(name); ok {
			out = append(out, n)
		}
	}
	return out
}

// printReplies is the headless front end: new chat messages go to stdout
func printReplies(ctx context.Context, sess *session.Session) error {
	printed := 0
	lastState := ""
	for {
		snap := sess.Snapshot()
		for _, msg := range snap.Messages[printed:] {
			who := "lynx"
			if msg.Sender == chat.User {
				who = "you"
			}
			fmt.Printf("%s: %s\n", who, describe(msg))
		}
		printed = len(snap.Messages)
		if st := snap.State.String(); st != lastState {
			fmt.Printf("[%s]\n", st)
			lastState = st
		}

		select {
		case <-ctx.Done():
			return nil
		case <-sess.Updates():
		}
	}
}

func describe(msg chat.Message) string {
	var out string
	for _, p := range msg.Parts {
		if out != "" {
			out += " "
		}
		switch p.Kind {
		case chat.Text:
			out += p.Content
		case chat.Notes:
			for i, step := range p.Steps {
				if i > 0 {
					out += " "
				}
				out += notes.FormatGroup(step)
			}
		}
	}
	return out
}

// baseNote is the bottom-left pad note for a Launchpad port: its own
// config entry, else the first auto-connecting Launchpad entry, else C3
func baseNote(cfg *config.Config, portName string) int {
	if cc := cfg.FindController(portName); cc != nil && cc.BaseNote > 0 {
		return cc.BaseNote
	}
	for _, cc := range cfg.AutoConnectControllers() {
		if cc.Type != config.ControllerKeyboard && cc.BaseNote > 0 {
			return cc.BaseNote
		}
	}
	return 48
}

func rgb(c theme.RGB) [3]uint8 { return [3]uint8(c) }
