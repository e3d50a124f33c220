// Package journal keeps an optional SQLite record of meter commands.
package journal

import (
	"context"

	"codeberg.org/mutker/smartpowerctl/internal/errors"
	"codeberg.org/mutker/smartpowerctl/internal/logger"
	"codeberg.org/mutker/smartpowerctl/internal/meter"
)

type service struct {
	repo Repository
}

// No-op implementation
type noopRecorder struct{}

func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Journal disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &service{
		repo: repo,
	}, nil
}

func (s *service) Record(ctx context.Context, entry *Entry) error {
	errFactory := errors.New()

	if entry == nil {
		return errFactory.New(ErrInvalidEntry)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		return s.repo.Store(ctx, entry)
	}
}

func (s *service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, "limit must be positive")
	}

	return s.repo.Recent(ctx, limit)
}

func (s *service) Close() error {
	return s.repo.Close()
}

func (*noopRecorder) Record(_ context.Context, _ *Entry) error {
	return nil
}

func (*noopRecorder) Recent(_ context.Context, _ int) ([]Entry, error) {
	return nil, nil
}

func (*noopRecorder) Close() error {
	return nil
}

// EntryFromEvent converts a meter event into a journal entry
func EntryFromEvent(e meter.Event) Entry {
	entry := Entry{
		Timestamp: e.Time,
		Device:    e.Device,
		Kind:      string(e.Kind),
		Success:   e.Err == nil,
	}
	if e.Kind == meter.EventCommand {
		entry.Command = string(rune(e.Command))
	}
	if e.Err != nil {
		entry.Error = e.Err.Error()
	}

	return entry
}

type observer struct {
	rec Recorder
	log logger.Logger
}

// Observer records every meter event in rec. Storage failures are logged
// and never reach the meter.
func Observer(rec Recorder, log logger.Logger) meter.Observer {
	return &observer{rec: rec, log: log}
}

func (o *observer) Observe(e meter.Event) {
	entry := EntryFromEvent(e)
	if err := o.rec.Record(context.Background(), &entry); err != nil {
		o.log.Warn().Err(err).Str("kind", entry.Kind).Msg("Failed to record meter event")
	}
}
