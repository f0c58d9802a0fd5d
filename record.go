package timetrack

import "time"

// Record is the timing result of one completed call, built by Exit and
// handed to the tracker's Logger. The tracker keeps no reference to it.
//
// SelfNS is the call's own share of TotalNS: everything not accounted for by
// directly nested instrumented calls. For a leaf call the two are equal.
type Record struct {
	Function string                 `json:"function"`
	Package  string                 `json:"package,omitempty"`
	Args     []interface{}          `json:"args,omitempty"`
	Fields   map[string]interface{} `json:"fields,omitempty"`
	Depth    int                    `json:"depth"`
	StartNS  uint64                 `json:"start_ns"`
	EndNS    uint64                 `json:"end_ns"`
	TotalNS  uint64                 `json:"total_ns"`
	SelfNS   uint64                 `json:"self_ns"`
}

// Total returns the wall-clock duration of the call, nested calls included.
func (r Record) Total() time.Duration {
	return time.Duration(r.TotalNS)
}

// Self returns the duration spent in the call's own body.
func (r Record) Self() time.Duration {
	return time.Duration(r.SelfNS)
}

// FullName returns the function name qualified by its package when known.
func (r Record) FullName() string {
	if r.Package == "" {
		return r.Function
	}
	return r.Package + "." + r.Function
}
