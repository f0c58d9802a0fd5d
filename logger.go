package timetrack

// Logger consumes one Record per completed instrumented call. The tracker
// calls Log synchronously on the exiting goroutine and does not inspect or
// guard what implementations do with the record.
type Logger interface {
	Log(Record)
}

// LoggerFunc adapts a plain function to the Logger interface.
type LoggerFunc func(Record)

// Log calls f(r).
func (f LoggerFunc) Log(r Record) {
	f(r)
}

// Discard is a Logger that drops every record.
var Discard Logger = LoggerFunc(func(Record) {})

// Collector is a Logger that retains records in emission order. A nested
// call exits before its caller, so records arrive innermost first.
type Collector struct {
	records []Record
}

// Log appends r to the collected records.
func (c *Collector) Log(r Record) {
	c.records = append(c.records, r)
}

// Records returns the collected records in emission order.
func (c *Collector) Records() []Record {
	return c.records
}

// Len returns the number of collected records.
func (c *Collector) Len() int {
	return len(c.records)
}

// Reset drops the collected records.
func (c *Collector) Reset() {
	c.records = nil
}
