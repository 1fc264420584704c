package parser

import "fmt"

// Error is a parse error with its originating line number, the way the
// teacher's Position-keyed errors carry file/line/column.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// NewError builds a parse error for the given source line.
func NewError(line int, format string, args ...interface{}) *Error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}
