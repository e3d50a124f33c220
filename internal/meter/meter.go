// Package meter controls a SmartPower2 class power meter by writing
// single-byte command codes to the serial device it listens on.
package meter

import (
	"fmt"
	"io"
	"os"
	"time"

	"codeberg.org/mutker/smartpowerctl/internal/errors"
)

const (
	// DefaultDevice is the first USB serial port
	DefaultDevice = "/dev/ttyUSB0"

	defaultFilePerm = 0o644
)

// Opener opens the device sink for writing
type Opener func(path string) (io.WriteCloser, error)

type Option func(*Meter)

// WithObserver sets the observer notified of every write and of the close
func WithObserver(o Observer) Option {
	return func(m *Meter) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithOpener replaces the function used to open the device
func WithOpener(open Opener) Option {
	return func(m *Meter) {
		if open != nil {
			m.open = open
		}
	}
}

// Meter owns one device session. The handle is opened by Open and
// closed by DisableMonitor, after which the meter is retired.
type Meter struct {
	device   string
	sink     io.WriteCloser
	enabled  bool
	closed   bool
	observer Observer
	open     Opener
	now      func() time.Time
}

var _ Controller = (*Meter)(nil)

// Open opens device for writing and returns a meter in the disabled state
func Open(device string, opts ...Option) (*Meter, error) {
	errFactory := errors.New()

	m := &Meter{
		device:   device,
		observer: nopObserver{},
		open:     openDevice,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if device == "" {
		return nil, errFactory.WithData(ErrOpenFailed, "empty device path")
	}

	sink, err := m.open(device)
	if err != nil {
		return nil, errFactory.Wrap(ErrOpenFailed, err).
			WithMessage(fmt.Sprintf("failed to open meter device %s", device))
	}
	m.sink = sink

	return m, nil
}

// OpenDefault opens DefaultDevice
func OpenDefault(opts ...Option) (*Meter, error) {
	return Open(DefaultDevice, opts...)
}

func (m *Meter) Device() string {
	return m.device
}

func (m *Meter) MonitorEnabled() bool {
	return m.enabled
}

// Closed reports whether the meter has been retired by DisableMonitor
func (m *Meter) Closed() bool {
	return m.closed
}

// EnableMonitor turns the monitor on. It writes the command even if the
// monitor is already enabled.
func (m *Meter) EnableMonitor() error {
	m.enabled = true
	return m.send(CommandEnable)
}

// DisableMonitor turns the monitor off and releases the device. The
// device is closed whatever the outcome of the write; a close failure is
// reported to the observer only.
func (m *Meter) DisableMonitor() error {
	m.enabled = false
	defer m.release()

	return m.send(CommandDisable)
}

// StartMeasurement starts reporting real power values, enabling the
// monitor first if needed. Only the start write decides the result.
func (m *Meter) StartMeasurement() error {
	if !m.enabled {
		// failure reaches the observer
		_ = m.EnableMonitor()
	}

	return m.send(CommandStart)
}

// StopMeasurement makes the device report zero until the next start
func (m *Meter) StopMeasurement() error {
	return m.send(CommandStop)
}

func (m *Meter) send(cmd Command) error {
	err := m.write(cmd)
	m.observer.Observe(Event{
		Time:    m.now(),
		Device:  m.device,
		Kind:    EventCommand,
		Command: cmd,
		Err:     err,
	})

	return err
}

func (m *Meter) write(cmd Command) error {
	errFactory := errors.New()
	msg := fmt.Sprintf("failed to send %s command", cmd)

	if m.closed {
		return errFactory.Wrap(ErrWriteFailed, os.ErrClosed).WithMessage(msg)
	}

	n, err := m.sink.Write([]byte{byte(cmd)})
	if err == nil && n != 1 {
		err = io.ErrShortWrite
	}
	if err != nil {
		return errFactory.Wrap(ErrWriteFailed, err).WithMessage(msg)
	}

	return nil
}

func (m *Meter) release() {
	if m.closed {
		return
	}
	m.closed = true

	var closeErr error
	if err := m.sink.Close(); err != nil {
		closeErr = errors.New().Wrap(ErrCloseFailed, err).
			WithMessage(fmt.Sprintf("failed to close meter device %s", m.device))
	}

	m.observer.Observe(Event{
		Time:   m.now(),
		Device: m.device,
		Kind:   EventClose,
		Err:    closeErr,
	})
}
