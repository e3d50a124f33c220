package meter_test

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"codeberg.org/mutker/smartpowerctl/internal/errors"
	"codeberg.org/mutker/smartpowerctl/internal/meter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	written  []byte
	failOn   map[byte]error
	closeErr error
	closes   int
}

func (s *fakeSink) Write(p []byte) (int, error) {
	if err, ok := s.failOn[p[0]]; ok {
		return 0, err
	}
	s.written = append(s.written, p...)
	return len(p), nil
}

func (s *fakeSink) Close() error {
	s.closes++
	return s.closeErr
}

type recorder struct {
	events []meter.Event
}

func (r *recorder) Observe(e meter.Event) {
	r.events = append(r.events, e)
}

func openFake(t *testing.T, sink *fakeSink, opts ...meter.Option) *meter.Meter {
	t.Helper()

	opener := func(string) (io.WriteCloser, error) { return sink, nil }
	m, err := meter.Open("/dev/fake", append([]meter.Option{meter.WithOpener(opener)}, opts...)...)
	require.NoError(t, err)

	return m
}

func openFile(t *testing.T) (*meter.Meter, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ttyUSB0")
	m, err := meter.Open(path)
	require.NoError(t, err)

	return m, path
}

func readDevice(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestOpenMissingDevice(t *testing.T) {
	m, err := meter.Open(filepath.Join(t.TempDir(), "missing", "ttyUSB0"))

	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, errors.HasCode(err, meter.ErrOpenFailed))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenDirectory(t *testing.T) {
	m, err := meter.Open(t.TempDir())

	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, errors.HasCode(err, meter.ErrOpenFailed))
	assert.ErrorIs(t, err, syscall.EISDIR)
}

func TestOpenEmptyPath(t *testing.T) {
	m, err := meter.Open("")

	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, errors.HasCode(err, meter.ErrOpenFailed))
}

func TestOpenDefault(t *testing.T) {
	var opened string
	opener := func(path string) (io.WriteCloser, error) {
		opened = path
		return &fakeSink{}, nil
	}

	m, err := meter.OpenDefault(meter.WithOpener(opener))
	require.NoError(t, err)

	assert.Equal(t, meter.DefaultDevice, opened)
	assert.Equal(t, "/dev/ttyUSB0", m.Device())
	assert.False(t, m.MonitorEnabled())
	assert.False(t, m.Closed())
}

func TestOpenTruncatesDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyUSB0")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	m, err := meter.Open(path)
	require.NoError(t, err)
	require.NoError(t, m.StopMeasurement())

	assert.Equal(t, "B", readDevice(t, path))
}

func TestStartMeasurementWhileDisabled(t *testing.T) {
	m, path := openFile(t)

	require.NoError(t, m.StartMeasurement())

	assert.Equal(t, "CA", readDevice(t, path))
	assert.True(t, m.MonitorEnabled())
}

func TestStartMeasurementWhileEnabled(t *testing.T) {
	m, path := openFile(t)

	require.NoError(t, m.EnableMonitor())
	require.NoError(t, m.StartMeasurement())

	assert.Equal(t, "CA", readDevice(t, path))
}

func TestEnableThenStop(t *testing.T) {
	m, path := openFile(t)

	require.NoError(t, m.EnableMonitor())
	require.NoError(t, m.StopMeasurement())

	assert.Equal(t, "CB", readDevice(t, path))
	assert.True(t, m.MonitorEnabled())
	assert.False(t, m.Closed())
}

func TestEnableTwice(t *testing.T) {
	m, path := openFile(t)

	require.NoError(t, m.EnableMonitor())
	assert.True(t, m.MonitorEnabled())
	require.NoError(t, m.EnableMonitor())
	assert.True(t, m.MonitorEnabled())

	assert.Equal(t, "CC", readDevice(t, path))
}

func TestStopWhileDisabled(t *testing.T) {
	m, path := openFile(t)

	require.NoError(t, m.StopMeasurement())

	assert.Equal(t, "B", readDevice(t, path))
	assert.False(t, m.MonitorEnabled())
}

func TestDisableMonitor(t *testing.T) {
	m, path := openFile(t)

	require.NoError(t, m.DisableMonitor())

	assert.Equal(t, "D", readDevice(t, path))
	assert.True(t, m.Closed())
	assert.False(t, m.MonitorEnabled())
}

func TestFullSession(t *testing.T) {
	m, path := openFile(t)

	require.NoError(t, m.EnableMonitor())
	require.NoError(t, m.StartMeasurement())
	require.NoError(t, m.StopMeasurement())
	require.NoError(t, m.StartMeasurement())
	require.NoError(t, m.DisableMonitor())

	assert.Equal(t, "CABAD", readDevice(t, path))
}

func TestWriteAfterDisable(t *testing.T) {
	m, path := openFile(t)
	require.NoError(t, m.DisableMonitor())

	err := m.EnableMonitor()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, meter.ErrWriteFailed))
	assert.ErrorIs(t, err, os.ErrClosed)

	assert.Error(t, m.StopMeasurement())
	assert.Equal(t, "D", readDevice(t, path))
}

func TestRetiredStartFailsBothWrites(t *testing.T) {
	sink := &fakeSink{}
	rec := &recorder{}
	m := openFake(t, sink, meter.WithObserver(rec))
	require.NoError(t, m.DisableMonitor())
	rec.events = nil

	err := m.StartMeasurement()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, meter.ErrWriteFailed))

	require.Len(t, rec.events, 2)
	assert.Equal(t, meter.CommandEnable, rec.events[0].Command)
	assert.Equal(t, meter.CommandStart, rec.events[1].Command)
	for _, e := range rec.events {
		assert.ErrorIs(t, e.Err, os.ErrClosed)
	}
	assert.Equal(t, "D", string(sink.written))
}

func TestDisableTwice(t *testing.T) {
	sink := &fakeSink{}
	m := openFake(t, sink)

	require.NoError(t, m.DisableMonitor())
	err := m.DisableMonitor()

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, meter.ErrWriteFailed))
	assert.Equal(t, 1, sink.closes)
	assert.Equal(t, "D", string(sink.written))
}

func TestDisableClosesOnWriteFailure(t *testing.T) {
	ioErr := stderrors.New("device unplugged")
	sink := &fakeSink{failOn: map[byte]error{'D': ioErr}}
	m := openFake(t, sink)

	err := m.DisableMonitor()

	require.Error(t, err)
	assert.ErrorIs(t, err, ioErr)
	assert.Equal(t, 1, sink.closes)
	assert.True(t, m.Closed())
	assert.False(t, m.MonitorEnabled())
}

func TestCloseFailureDoesNotChangeResult(t *testing.T) {
	closeErr := stderrors.New("close failed")
	sink := &fakeSink{closeErr: closeErr}
	rec := &recorder{}
	m := openFake(t, sink, meter.WithObserver(rec))

	require.NoError(t, m.DisableMonitor())

	require.Len(t, rec.events, 2)
	closeEvent := rec.events[1]
	assert.Equal(t, meter.EventClose, closeEvent.Kind)
	assert.True(t, errors.HasCode(closeEvent.Err, meter.ErrCloseFailed))
	assert.ErrorIs(t, closeEvent.Err, closeErr)
	assert.True(t, m.Closed())
}

func TestStartIgnoresAutoEnableFailure(t *testing.T) {
	sink := &fakeSink{failOn: map[byte]error{'C': stderrors.New("busy")}}
	rec := &recorder{}
	m := openFake(t, sink, meter.WithObserver(rec))

	require.NoError(t, m.StartMeasurement())

	assert.Equal(t, "A", string(sink.written))
	assert.True(t, m.MonitorEnabled())
	require.Len(t, rec.events, 2)
	assert.Equal(t, meter.CommandEnable, rec.events[0].Command)
	assert.Error(t, rec.events[0].Err)
	assert.NoError(t, rec.events[1].Err)
}

func TestStartNeverPrecedesEnable(t *testing.T) {
	sink := &fakeSink{}
	var m *meter.Meter
	var enabledAtStart []bool
	obs := meter.ObserverFunc(func(e meter.Event) {
		if e.Command == meter.CommandStart {
			enabledAtStart = append(enabledAtStart, m.MonitorEnabled())
		}
	})
	m = openFake(t, sink, meter.WithObserver(obs))

	require.NoError(t, m.StartMeasurement())
	require.NoError(t, m.StopMeasurement())
	require.NoError(t, m.StartMeasurement())

	assert.Equal(t, []bool{true, true}, enabledAtStart)
	assert.Equal(t, "CABA", string(sink.written))
}

func TestObserverEvents(t *testing.T) {
	sink := &fakeSink{}
	first, second := &recorder{}, &recorder{}
	m := openFake(t, sink, meter.WithObserver(meter.Observers{first, nil, second}))

	require.NoError(t, m.EnableMonitor())
	require.NoError(t, m.DisableMonitor())

	for _, rec := range []*recorder{first, second} {
		require.Len(t, rec.events, 3)
		assert.Equal(t, meter.EventCommand, rec.events[0].Kind)
		assert.Equal(t, meter.CommandEnable, rec.events[0].Command)
		assert.Equal(t, meter.CommandDisable, rec.events[1].Command)
		assert.Equal(t, meter.EventClose, rec.events[2].Kind)
		assert.Equal(t, "/dev/fake", rec.events[2].Device)
		assert.NoError(t, rec.events[2].Err)
		assert.False(t, rec.events[0].Time.IsZero())
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "start", meter.CommandStart.String())
	assert.Equal(t, "stop", meter.CommandStop.String())
	assert.Equal(t, "enable", meter.CommandEnable.String())
	assert.Equal(t, "disable", meter.CommandDisable.String())
	assert.Equal(t, `Command('Z')`, meter.Command('Z').String())
}
