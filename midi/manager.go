package midi

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"rifflynx/debug"
)

// NoDevicesStatus is shown when no input is connected
const NoDevicesStatus = "No MIDI devices. Please connect one."

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager handles hot-plug detection of MIDI controllers. A MIDI
// driver must be registered (blank import of a gomidi driver) by main.
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	excluded    []string
}

// NewDeviceManager creates a device manager. Ports whose name contains any
// of excluded (case-insensitive) are never opened.
func NewDeviceManager(pollRate time.Duration, excluded []string) *DeviceManager {
	if pollRate <= 0 {
		pollRate = time.Second
	}
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    pollRate,
		excluded:    excluded,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Names lists connected controller names, sorted
func (dm *DeviceManager) Names() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	names := make([]string, 0, len(dm.controllers))
	for id := range dm.controllers {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// GetLaunchpad returns the first connected Launchpad (or nil)
func (dm *DeviceManager) GetLaunchpad() Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for _, c := range dm.controllers {
		if c.Type() == ControllerLaunchpad {
			return c
		}
	}
	return nil
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return nil
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

func (dm *DeviceManager) emit(ctx context.Context, ev DeviceEvent) {
	select {
	case dm.events <- ev:
	case <-ctx.Done():
	}
}

type portsResult struct {
	inPorts  []drivers.In
	outPorts []drivers.Out
}

var errScanTimeout = errors.New("port scan timed out")

// listPorts asks the driver for ports with a timeout (CoreMIDI can hang)
func listPorts(ctx context.Context) (portsResult, error) {
	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r, nil
	case <-time.After(3 * time.Second):
		return portsResult{}, errScanTimeout
	case <-ctx.Done():
		return portsResult{}, ctx.Err()
	}
}

// PortInfo is an input port and how the device manager would use it
type PortInfo struct {
	Name string
	Type ControllerType
}

// ScanPorts lists the current input ports with their classification
func ScanPorts(ctx context.Context, excluded []string) ([]PortInfo, error) {
	result, err := listPorts(ctx)
	if err != nil {
		return nil, err
	}
	ports := make([]PortInfo, 0, len(result.inPorts))
	for _, in := range result.inPorts {
		ports = append(ports, PortInfo{Name: in.String(), Type: classifyPort(in.String(), excluded)})
	}
	return ports, nil
}

func (dm *DeviceManager) scan(ctx context.Context) {
	result, err := listPorts(ctx)
	if err != nil {
		if errors.Is(err, errScanTimeout) {
			debug.Log("midi", "port scan timed out, skipping")
		}
		return
	}

	seenIDs := make(map[string]bool)
	for _, inPort := range result.inPorts {
		id := inPort.String()
		kind := classifyPort(id, dm.excluded)
		if kind == ControllerUnknown {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(kind, id, inPort, result.outPorts)
		if err != nil {
			debug.Warn("midi", "could not open device", debug.Fields{"port": id, "error": err.Error()})
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		debug.Log("midi", "connected %s (%s)", id, kind)
		dm.emit(ctx, DeviceEvent{Type: DeviceConnected, Controller: c, ID: id})
	}

	// Check for disconnects
	dm.mu.Lock()
	var gone []string
	for id, c := range dm.controllers {
		if !seenIDs[id] {
			c.Close()
			delete(dm.controllers, id)
			gone = append(gone, id)
		}
	}
	dm.mu.Unlock()

	for _, id := range gone {
		debug.Log("midi", "disconnected %s", id)
		dm.emit(ctx, DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
}

func (dm *DeviceManager) open(kind ControllerType, id string, in drivers.In, outs []drivers.Out) (Controller, error) {
	if kind == ControllerKeyboard {
		return NewKeyboardController(id, in)
	}
	var out drivers.Out
	for _, op := range outs {
		if strings.EqualFold(op.String(), id) {
			out = op
			break
		}
	}
	return NewLaunchpadController(id, in, out)
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// classifyPort decides how an input port is used. Excluded ports and
// Launchpad DAW/auxiliary ports are ignored; any other input is a keyboard.
func classifyPort(name string, excluded []string) ControllerType {
	lower := strings.ToLower(name)
	for _, pattern := range excluded {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			return ControllerUnknown
		}
	}
	if strings.Contains(lower, "launchpad") {
		if isLaunchpad(lower) {
			return ControllerLaunchpad
		}
		return ControllerUnknown
	}
	return ControllerKeyboard
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

// FormatStatus renders the device status line for the given input names
func FormatStatus(names []string) string {
	if len(names) == 0 {
		return NoDevicesStatus
	}
	return "Connected: " + strings.Join(names, ", ")
}
