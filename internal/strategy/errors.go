package strategy

import "errors"

var (
	// ErrInsufficientData is returned when a series is shorter than the longest rolling window.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMalformedSeries is returned for duplicate or out-of-order timestamps and invalid prices.
	ErrMalformedSeries = errors.New("malformed series")
	// ErrInvalidParameter is returned for a non-positive length.
	ErrInvalidParameter = errors.New("invalid parameter")
)
