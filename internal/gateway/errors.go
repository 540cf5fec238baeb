package gateway

import (
	"errors"
	"fmt"
)

// ErrAlreadyConnected is returned by Registry.TryRegister when the identity
// already has an open stream.
var ErrAlreadyConnected = errors.New("server already connected")

// Decode failure reasons, in the order the codec checks them.
var (
	ErrDecompress       = errors.New("decompression failed")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMissingEventName = errors.New("missing event name")
	ErrMissingEventData = errors.New("missing event data")
	ErrUnknownEvent     = errors.New("unknown event type")
)

// DecodeError is a protocol error on an inbound frame. It ends the offending
// connection only.
type DecodeError struct {
	Reason error
	Detail string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode: " + e.Reason.Error()
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func decodeError(reason error, detail string, err error) error {
	return &DecodeError{Reason: reason, Detail: detail, Err: err}
}
