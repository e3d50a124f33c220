package journal

import (
	"context"
	"time"
)

// Recorder stores and lists meter events
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Repository defines the storage backing a Recorder
type Repository interface {
	Store(ctx context.Context, entry *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Entry is one recorded meter event
type Entry struct {
	Timestamp time.Time
	Device    string
	Kind      string
	Command   string
	Success   bool
	Error     string
}
