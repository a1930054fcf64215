package nav

import "errors"

// ErrEmptyPath is returned when simplification is attempted on a trail with
// no crumbs. It aborts the route completion flow; there is nothing to guide
// along.
var ErrEmptyPath = errors.New("nav: empty crumb trail")

// ErrNoPose reports that a tick found no current pose. Tick handlers recover
// by skipping the tick; the error exists for pose providers to return.
var ErrNoPose = errors.New("nav: no pose available")

// ErrInsufficientMatchPoints reports that the path matcher was given fewer
// than two comparable points. The matcher recovers by returning the identity
// transform; the sentinel is only logged.
var ErrInsufficientMatchPoints = errors.New("nav: insufficient match points")
