package planio

import "errors"

var (
	// ErrMalformedInput is returned when the text input does not follow the two-line format.
	ErrMalformedInput = errors.New("input must be a line of quantity/length pairs followed by a stock length line")
	// ErrMalformedSheet is returned when a demand spreadsheet or CSV file cannot be interpreted.
	ErrMalformedSheet = errors.New("demand sheet must contain quantity and length columns")
)
