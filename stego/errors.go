package stego

import "errors"

var (
	ErrInvalidBitwidth    = errors.New("invalid bitwidth")
	ErrCapacity           = errors.New("not enough space in carrier")
	ErrConfig             = errors.New("invalid decode configuration")
	ErrMalformedFootprint = errors.New("malformed footprint")
	ErrTruncatedPayload   = errors.New("truncated payload")
)
