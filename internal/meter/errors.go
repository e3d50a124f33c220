package meter

import "codeberg.org/mutker/smartpowerctl/internal/errors"

const (
	ErrOpenFailed  = errors.ErrorCode("meter_open_failed")
	ErrWriteFailed = errors.ErrorCode("meter_write_failed")
	ErrCloseFailed = errors.ErrorCode("meter_close_failed")
)
