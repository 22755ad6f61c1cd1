package ics

import "errors"

var (
	// ErrInvalidDate is returned by Build when start or end cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidDocument is returned by Verify for text that is not a
	// single-event calendar.
	ErrInvalidDocument = errors.New("invalid calendar document")
)
