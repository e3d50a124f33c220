package meter

import (
	"context"
	"time"
)

// Sample runs one measurement window: enable, start, wait for d or until
// ctx is done, stop, disable. Every step runs even when an earlier one
// fails, and the first failure is returned. The controller is retired
// afterwards.
func Sample(ctx context.Context, c Controller, d time.Duration) (err error) {
	keep := func(stepErr error) {
		if err == nil {
			err = stepErr
		}
	}
	defer func() {
		keep(c.DisableMonitor())
	}()

	keep(c.EnableMonitor())
	keep(c.StartMeasurement())

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	keep(c.StopMeasurement())

	return err
}
