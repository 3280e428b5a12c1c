package hotpatch

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// diffSignatures describes how the function types a and b differ, or
// returns nil when they're identical.
func diffSignatures(a, b reflect.Type) error {
	if a == b {
		return nil
	}

	var errs []error
	errs = append(errs, diffTypes("argument", a.NumIn(), b.NumIn(), a.In, b.In)...)
	errs = append(errs, diffTypes("output", a.NumOut(), b.NumOut(), a.Out, b.Out)...)
	if a.IsVariadic() != b.IsVariadic() {
		errs = append(errs, errors.Newf("variadic: %v != %v", a.IsVariadic(), b.IsVariadic()))
	}

	return errors.Join(errs...)
}

func diffTypes(what string, na, nb int, a, b func(int) reflect.Type) []error {
	var errs []error
	for i, n := 0, max(na, nb); i < n; i++ {
		var at, bt reflect.Type
		if i < na {
			at = a(i)
		}
		if i < nb {
			bt = b(i)
		}
		if at != bt {
			errs = append(errs, errors.Newf("%s %d: %v != %v", what, i, at, bt))
		}
	}
	return errs
}
