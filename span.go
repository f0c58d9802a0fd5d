package timetrack

// Span is one in-flight instrumented call opened with Tracker.Start.
type Span struct {
	tracker *Tracker
	name    string
	args    []interface{}
	fields  map[string]interface{}
}

// Start begins an instrumented call scope. Pair it with End on every exit
// path, typically with defer:
//
//	defer tr.Start("load", path).End()
//
// On a disabled tracker Start returns nil, and End on a nil span is a no-op,
// so call sites need no enabled checks of their own.
func (t *Tracker) Start(name string, args ...interface{}) *Span {
	if !t.enabled {
		return nil
	}
	t.Enter()
	return &Span{tracker: t, name: name, args: args}
}

// Field attaches a named value to the span's eventual record and returns the
// span for chaining. It is a no-op on a nil span.
func (s *Span) Field(key string, value interface{}) *Span {
	if s == nil {
		return nil
	}
	if s.fields == nil {
		s.fields = make(map[string]interface{})
	}
	s.fields[key] = value
	return s
}

// End closes the span and emits its record to the tracker's logger. It is a
// no-op on a nil span. End panics if the tracker's stacks were popped out
// from under the span, since timings recorded after that point would be
// silently wrong.
func (s *Span) End() {
	if s == nil {
		return
	}
	rec, err := s.tracker.exit(ident{name: s.name}, s.args, s.fields)
	if err != nil {
		panic(err)
	}
	s.tracker.logger.Log(rec)
}
