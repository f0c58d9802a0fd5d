package timetrack

import (
	"fmt"
	"path"
	"reflect"
	"runtime"
	"strings"
)

// ident names a call in records: the bare function name plus the package it
// lives in, when known.
type ident struct {
	pkg  string
	name string
}

type wrapConfig struct {
	id     ident
	fields map[string]interface{}
}

// WrapOption adjusts how a wrapped function is reported.
type WrapOption func(*wrapConfig)

// WithName overrides the reported function name. Useful for closures and
// method values, whose runtime names end in generated suffixes like func1.
// The name is reported as given, without a package.
func WithName(name string) WrapOption {
	return func(c *wrapConfig) {
		c.id = ident{name: name}
	}
}

// WithFields attaches fixed named values to every record the wrapped
// function emits.
func WithFields(fields map[string]interface{}) WrapOption {
	return func(c *wrapConfig) {
		c.fields = fields
	}
}

// Wrap returns a function of the same type as fn that reports one timing
// record per invocation to t's logger. Arguments, results and panics pass
// through unchanged, and the record is emitted on every exit path, panics
// included, so a failing call is timed and reported like a successful one.
// Each invocation pushes its own frame, giving recursive and mutually
// recursive functions correctly nested timings.
//
// On a disabled tracker Wrap returns fn itself.
//
// Wrap panics if fn is not a function.
func Wrap[F any](t *Tracker, fn F, opts ...WrapOption) F {
	if !t.enabled {
		return fn
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("timetrack: Wrap requires a function, got %s", v.Kind()))
	}
	cfg := wrapConfig{id: funcIdent(v)}
	for _, opt := range opts {
		opt(&cfg)
	}
	variadic := v.Type().IsVariadic()
	wrapped := reflect.MakeFunc(v.Type(), func(in []reflect.Value) []reflect.Value {
		t.Enter()
		defer func() {
			rec, err := t.exit(cfg.id, argValues(in), cfg.fields)
			if err != nil {
				panic(err)
			}
			t.logger.Log(rec)
		}()
		if variadic {
			// MakeFunc hands the variadic arguments over packed in the
			// final slice, which Call would pass as a single element.
			return v.CallSlice(in)
		}
		return v.Call(in)
	})
	return wrapped.Interface().(F)
}

// funcIdent extracts the package and bare name of a function value from its
// runtime symbol, so "github.com/acme/pkg.(*T).Do" becomes the pair
// ("pkg", "(*T).Do").
func funcIdent(v reflect.Value) ident {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ident{name: "unknown"}
	}
	full := f.Name()
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return ident{name: full}
	}
	dot += slash + 1
	return ident{
		pkg:  path.Base(full[:dot]),
		name: full[dot+1:],
	}
}

func argValues(in []reflect.Value) []interface{} {
	if len(in) == 0 {
		return nil
	}
	args := make([]interface{}, len(in))
	for i, v := range in {
		args[i] = v.Interface()
	}
	return args
}
