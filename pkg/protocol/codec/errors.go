package codec

import (
	"errors"
	"fmt"
)

// ErrConversion matches every failure reported by the codec.
var ErrConversion = errors.New("codec: conversion failed")

var (
	ErrNilPacket      = errors.New("nil packet")
	ErrEmbeddedNUL    = errors.New("text contains a NUL byte")
	ErrLengthMismatch = errors.New("encoded length does not match computed size")
	ErrMalformedFrame = errors.New("malformed base64 frame")
	ErrUnknownMode    = errors.New("unknown transport mode")
)

// ConversionError describes a failed encode or decode.
type ConversionError struct {
	Op   string
	Mode Mode
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("codec: %s %s: %v", e.Mode, e.Op, e.Err)
}

func (e *ConversionError) Unwrap() []error {
	return []error{ErrConversion, e.Err}
}

func encodeError(mode Mode, err error) error {
	return &ConversionError{Op: "encode", Mode: mode, Err: err}
}

func decodeError(mode Mode, err error) error {
	return &ConversionError{Op: "decode", Mode: mode, Err: err}
}
