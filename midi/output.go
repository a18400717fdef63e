// Package midi bridges the engine's step triggers to a MIDI out port. It is
// a pure consumer of the trigger channel; the step clock never blocks on it.
//
// No driver is registered here. Binaries that want real output import one,
// e.g.
//
//	import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
package midi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/luddite478/fortuned-sub008/engine"
)

// Sample slots map to the General MIDI percussion range starting at the
// bass drum.
const baseNote = 36

// Output sends the notes of each step trigger to one MIDI out port.
type Output struct {
	port    drivers.Out
	send    func(gomidi.Message) error
	log     *slog.Logger
	channel uint8

	active []uint8
}

// OpenOutput opens the first out port whose name contains the given
// substring (case-insensitive). An empty name opens the first port.
func OpenOutput(name string, log *slog.Logger) (*Output, error) {
	if log == nil {
		log = slog.Default()
	}
	var port drivers.Out
	for _, p := range gomidi.GetOutPorts() {
		if name == "" || strings.Contains(strings.ToLower(p.String()), strings.ToLower(name)) {
			port = p
			break
		}
	}
	if port == nil {
		return nil, fmt.Errorf("no MIDI out port matching %q", name)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open MIDI out %q: %w", port.String(), err)
	}
	return &Output{port: port, send: send, log: log}, nil
}

// Port returns the name of the opened port.
func (o *Output) Port() string {
	return o.port.String()
}

// PortNames lists the available out port names.
func PortNames() []string {
	ports := gomidi.GetOutPorts()
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.String())
	}
	return names
}

// Run consumes triggers until the context is cancelled or the channel
// closes. Each trigger first releases the previous step's notes, then sends
// one NoteOn per resolved note.
func (o *Output) Run(ctx context.Context, triggers <-chan engine.StepTrigger) {
	defer o.releaseAll()
	for {
		select {
		case <-ctx.Done():
			return
		case trig, ok := <-triggers:
			if !ok {
				return
			}
			o.Play(trig)
		}
	}
}

// Play sends one trigger's notes.
func (o *Output) Play(trig engine.StepTrigger) {
	o.releaseAll()
	for i := 0; i < trig.Count; i++ {
		note := trig.Notes[i]
		key := uint8(baseNote + note.Slot)
		vel := velocity(note.Volume)
		if err := o.send(gomidi.NoteOn(o.channel, key, vel)); err != nil {
			o.log.Warn("MIDI send failed", "key", key, "err", err)
			continue
		}
		o.active = append(o.active, key)
	}
}

func (o *Output) releaseAll() {
	for _, key := range o.active {
		if err := o.send(gomidi.NoteOff(o.channel, key)); err != nil {
			o.log.Warn("MIDI release failed", "key", key, "err", err)
		}
	}
	o.active = o.active[:0]
}

// Close releases any held notes and closes the port.
func (o *Output) Close() error {
	o.releaseAll()
	return o.port.Close()
}

func velocity(volume float32) uint8 {
	v := int(volume * 127)
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return uint8(v)
}
