package timetrack

import "errors"

// ErrUnbalancedStack reports an Exit with no matching prior Enter. It marks a
// broken enter/exit pairing at the integration site, not a runtime condition
// to recover from. Exit fails with it before touching the stacks, so tracker
// state is exactly what it was before the call.
var ErrUnbalancedStack = errors.New("timetrack: exit without matching enter")
