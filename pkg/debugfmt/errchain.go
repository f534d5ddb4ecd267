// Package debugfmt renders error chains for the "internal error" taxonomy
// bucket (spec §7): an unexpected exception from the driver or a worker is
// logged in full before being re-raised, so -vv gives a developer the whole
// unwrap chain without reaching for a debugger.
package debugfmt

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// ErrChain walks an error chain and returns one line per layer with its
// concrete type, outermost first.
func ErrChain(err error) string {
	if err == nil {
		return "<nil>"
	}

	var out string
	i := 0
	for e := err; e != nil; e = errors.Unwrap(e) {
		out += fmt.Sprintf("[%d] %T: %v\n", i, e, e)
		i++
	}
	return out
}

// ErrChainDebug walks an error chain and returns a verbose dump of each
// layer: its type, spew-rendered value, exported fields, and whether it
// implements Unwrap/Cause. Intended for the highest verbosity tier only —
// the output is large and not meant for routine logs.
func ErrChainDebug(err error) string {
	var out string
	for i := 0; err != nil; err = errors.Unwrap(err) {
		out += fmt.Sprintf("[%d] %T\n", i, err)
		out += fmt.Sprintf("   Error(): %v\n", err)
		out += fmt.Sprintf("   %s\n", spew.Sdump(err))

		rv := reflect.ValueOf(err)
		rt := reflect.TypeOf(err)
		if rt.Kind() == reflect.Ptr {
			rv = rv.Elem()
			rt = rt.Elem()
		}
		if rt.Kind() == reflect.Struct {
			for j := 0; j < rt.NumField(); j++ {
				f := rt.Field(j)
				v := rv.Field(j)
				if v.CanInterface() {
					out += fmt.Sprintf("   Field %s (%s): %+v\n", f.Name, f.Type, v.Interface())
				}
			}
		}

		if u, ok := err.(interface{ Unwrap() error }); ok {
			out += fmt.Sprintf("   Has Unwrap(): %T\n", u.Unwrap())
		}
		if c, ok := err.(interface{ Cause() error }); ok {
			out += fmt.Sprintf("   Has Cause(): %T\n", c.Cause())
		}

		i++
	}
	return out
}
