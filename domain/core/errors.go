package core

import "errors"

// Tab tree errors
var (
	ErrDuplicateLink    = errors.New("duplicate tab link among siblings")
	ErrMultipleSelected = errors.New("more than one sibling selected")
	ErrEmptyLink        = errors.New("tab link cannot be empty")
)
