package cmderr

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitErr specific error for ExitOnErr function that passes the exit code and error caused.
type ExitErr struct {
	Code  int
	Cause error
}

func (x ExitErr) Error() string { return x.Cause.Error() }

func (x ExitErr) Unwrap() error { return x.Cause }

// Code returns the process exit code for err: the one carried by an ExitErr
// in its chain, 1 for any other error and 0 for nil.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var e ExitErr
	if errors.As(err, &e) {
		return e.Code
	}
	return 1
}

// Report writes err to w in the form printed by ExitOnErr.
func Report(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
}

// ExitOnErr writes error to os.Stderr and calls os.Exit with passed exit code or by default 1.
// Does nothing if err is nil.
func ExitOnErr(err error) {
	if err != nil {
		Report(os.Stderr, err)
		os.Exit(Code(err))
	}
}
