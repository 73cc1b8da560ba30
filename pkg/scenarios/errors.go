package scenarios

import (
	"errors"
	"fmt"
)

// ParseError wraps a scenario file error with the line it occurred on
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("parse error at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error at line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyField    = errors.New("empty required field")
	ErrInvalidNumber = errors.New("invalid number")
	ErrNoScenarios   = errors.New("no scenarios found")
)
