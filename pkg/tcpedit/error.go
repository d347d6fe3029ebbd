package tcpedit

import (
	"fmt"
	"runtime"
)

// Error is a structured failure latched by a pipeline stage: the source
// location it occurred at, prepended to a human-readable message, per the
// propagation policy that every subroutine error carries its origin.
type Error struct {
	Func string
	File string
	Line int
	Msg  string
}

// Error renders the error as "from file:line (func): msg".
func (e *Error) Error() string {
	return fmt.Sprintf("from %s:%d (%s): %s", e.File, e.Line, e.Func, e.Msg)
}

// errorf builds an *Error attributed to its caller's source location.
func errorf(format string, args ...any) *Error {
	pc, file, line, ok := runtime.Caller(1)
	fn := "unknown"
	if ok {
		if f := runtime.FuncForPC(pc); f != nil {
			fn = f.Name()
		}
	}
	return &Error{Func: fn, File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}
