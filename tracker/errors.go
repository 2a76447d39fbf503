package tracker

import "errors"

// Errors returned by Tracker.Step. Each leaves the tracker's state exactly
// as it was before the call; the caller is expected to skip the frame and
// continue with the next one.
var (
	// ErrNonMonotonicTime is returned when a frame's timestamp does not
	// strictly follow the previous one.
	ErrNonMonotonicTime = errors.New("tracker: frame timestamp did not advance")
)
