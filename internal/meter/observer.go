package meter

import (
	"time"

	"codeberg.org/mutker/smartpowerctl/internal/errors"
	"codeberg.org/mutker/smartpowerctl/internal/logger"
)

type EventKind string

const (
	EventCommand EventKind = "command"
	EventClose   EventKind = "close"
)

// Event describes one command write or the release of the device.
// Command is zero for close events.
type Event struct {
	Time    time.Time
	Device  string
	Kind    EventKind
	Command Command
	Err     error
}

// Observer receives meter diagnostics. Observe must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// Observers fans an event out to each observer in order
type Observers []Observer

func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

type logObserver struct {
	log logger.Logger
}

// NewLogObserver logs successful writes at debug level and failures at error level
func NewLogObserver(log logger.Logger) Observer {
	return &logObserver{log: log}
}

func (o *logObserver) Observe(e Event) {
	if e.Err == nil {
		event := o.log.Debug().Str("device", e.Device).Str("kind", string(e.Kind))
		if e.Kind == EventCommand {
			event = event.Str("command", e.Command.String())
		}
		event.Msg("Meter event")
		return
	}

	var appErr errors.Error
	if errors.As(e.Err, &appErr) {
		o.log.ErrorWithCode(appErr).
			Str("device", e.Device).
			Str("kind", string(e.Kind)).
			Msg("Meter operation failed")
		return
	}

	o.log.Error().Err(e.Err).
		Str("device", e.Device).
		Str("kind", string(e.Kind)).
		Msg("Meter operation failed")
}
