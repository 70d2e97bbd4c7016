package advisor

import "errors"

// ErrInvalidKnobs is returned when a Knobs value fails Validate: any knob
// that is not positive, or MinEnumerateCount greater than NumIndexes.
var ErrInvalidKnobs = errors.New("advisor: invalid knobs")

// ErrEmptyWorkload names the empty-workload case of the error taxonomy. An
// empty workload does NOT abort an invocation (spec §7 treats it as a
// legitimate empty result): BestIndexes returns an empty Configuration and
// a nil error, and no function in this package returns ErrEmptyWorkload.
var ErrEmptyWorkload = errors.New("advisor: empty workload")
