// Package media holds the microphone and camera capture handle a session or
// meeting uses, one handle per process at a time.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const clientName = "rehearse"

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Usable reports whether the device can capture right now.
func (d Device) Usable() bool {
	return d.Available && !d.Muted
}

// Selection is the resolved capture source plus an optional fallback note.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

func newPulseClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(clientName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: connect pulse server: %v", ErrUnsupported, err)
	}
	return client, nil
}

// ListDevices returns Pulse input sources with default/availability metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          info.SourceName,
			Description: info.Device,
			State:       sourceState(info.State),
			Available:   portAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == defaultSource.ID(),
		})
	}
	return devices, nil
}

// SelectDevice resolves the configured input and fallback against live devices.
func SelectDevice(ctx context.Context, input, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return choose(devices, input, fallback)
}

// choose picks the preferred device, falling back when it is muted or
// unavailable. "default" or an empty preference means the Pulse default.
func choose(devices []Device, input, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	primary, err := lookup(devices, input)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input: %w", err)
	}
	if primary.Usable() {
		return Selection{Device: primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}

	alt, err := lookup(devices, fallback)
	if err != nil {
		return Selection{}, fmt.Errorf("input %q is %s and audio.fallback failed: %w", primary.ID, reason, err)
	}
	if !alt.Available {
		return Selection{}, fmt.Errorf("audio fallback device %q is not available", alt.ID)
	}
	if alt.Muted {
		return Selection{}, fmt.Errorf("audio fallback device %q is muted", alt.ID)
	}

	return Selection{
		Device:   alt,
		Warning:  fmt.Sprintf("audio input %q is %s; using %q", primary.ID, reason, alt.ID),
		Fallback: alt.ID != primary.ID,
	}, nil
}

func lookup(devices []Device, term string) (Device, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || term == "default" {
		for _, d := range devices {
			if d.Default {
				return d, nil
			}
		}
		return Device{}, errors.New("default audio source is unavailable")
	}
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.ID), term) || strings.Contains(strings.ToLower(d.Description), term) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%q did not match any device", term)
}

func sourceState(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// portAvailable treats a source without ports, or whose active port reports
// unknown (0) or yes (2), as available.
func portAvailable(info *pulseproto.GetSourceInfoReply) bool {
	for _, port := range info.Ports {
		if port.Name == info.ActivePortName {
			return port.Available == 0 || port.Available == 2
		}
	}
	return true
}
