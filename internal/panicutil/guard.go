package panicutil

import (
	"github.com/sourcegraph/conc/panics"
)

// Guard runs f and contains anything abnormal that happens inside it.
//
// A panic is recovered and returned as *panics.ErrRecovered.
// runtime.Goexit cannot be stopped, so onGoexit (if not nil) is called before the goroutine exits.
// Otherwise the error returned by f is returned as is.
func Guard(f func() error, onGoexit func()) (err error) {
	var (
		returned  bool
		recovered *panics.Recovered
	)
	defer func() {
		if returned || recovered != nil {
			return
		}
		if onGoexit != nil {
			onGoexit()
		}
	}()

	func() {
		defer func() {
			if returned {
				return
			}
			if r := panics.NewRecovered(1, recover()); r.Value != nil {
				recovered = &r
			}
		}()
		err = f()
		returned = true
	}()

	if recovered != nil {
		err = recovered.AsError()
	}
	return err
}
