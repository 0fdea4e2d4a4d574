package sink

import "errors"

// Sentinel kinds for sink errors.
var (
	ErrWriteOutput = errors.New("write output failed")
)
