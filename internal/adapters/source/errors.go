package source

import (
	"errors"
)

// Sentinel kinds for input decoding errors.
var (
	ErrOpenInput    = errors.New("open input failed")
	ErrDecodeInput  = errors.New("decode input failed")
	ErrDecodeRecord = errors.New("decode record failed")
)
