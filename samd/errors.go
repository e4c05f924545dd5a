package samd

import (
	"errors"
)

var (
	ErrNoFreeGenerator = errors.New("no free clock generator")
	ErrBadGenerator    = errors.New("clock generator index out of range")
	ErrBadChannel      = errors.New("peripheral channel index out of range")
	ErrBadTimer        = errors.New("timer index out of range")
	ErrBadEICChannel   = errors.New("EIC channel out of range")
	ErrClockLoop       = errors.New("clock tree contains a reference loop")
)

// CalibrationError is returned by SetCalibration. Code is the value callers
// of the register-level interface expect: -1 for a value outside the
// hardware range, -2 for a clock without a writable calibration.
type CalibrationError struct {
	Code int
	msg  string
}

func (e *CalibrationError) Error() string {
	return e.msg
}

var (
	ErrOutOfRange  = &CalibrationError{Code: -1, msg: "calibration value out of range"}
	ErrUnsupported = &CalibrationError{Code: -2, msg: "calibration not supported for this clock"}
)

// ErrorCode maps an error from SetCalibration to its numeric code: 0 for nil,
// -1 or -2 for calibration errors, and -2 for anything else.
func ErrorCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *CalibrationError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrUnsupported.Code
}
