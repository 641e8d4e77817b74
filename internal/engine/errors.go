// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedFormat is reported when no extractor accepts the stream.
	ErrUnrecognizedFormat = errors.New("unrecognized input format")
	// ErrIllegalState is reported when the backend's internal state is invalid.
	ErrIllegalState = errors.New("illegal engine state")
)

// ConnectError is a failure to reach the media host.
type ConnectError struct {
	// NetworkAvailable distinguishes a dead link from a server that refused.
	NetworkAvailable bool
	Err              error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("unable to connect (network available: %t): %v", e.NetworkAvailable, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-success response while loading media.
type HTTPStatusError struct {
	Code int
	URL  string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

// DecoderInitError is a failure to instantiate a decoder.
type DecoderInitError struct {
	Decoder string
	Err     error
}

func (e *DecoderInitError) Error() string {
	return fmt.Sprintf("decoder %q init failed: %v", e.Decoder, e.Err)
}

func (e *DecoderInitError) Unwrap() error { return e.Err }

// ErrorKind is the stable category observers receive for a playback error.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorIONetwork
	ErrorIOConnection
	ErrorHTTPClient
	ErrorHTTPServer
	ErrorHTTPOther
	ErrorUnrecognizedFormat
	ErrorDecoderInit
	ErrorIllegalState
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorIONetwork:
		return "io_network"
	case ErrorIOConnection:
		return "io_connection"
	case ErrorHTTPClient:
		return "http_client"
	case ErrorHTTPServer:
		return "http_server"
	case ErrorHTTPOther:
		return "http_other"
	case ErrorUnrecognizedFormat:
		return "unrecognized_format"
	case ErrorDecoderInit:
		return "decoder_init"
	case ErrorIllegalState:
		return "illegal_state"
	default:
		return "unknown"
	}
}

// Classify maps a backend error to its kind. extra carries the HTTP status
// code for HTTP kinds and is zero otherwise.
func Classify(err error) (kind ErrorKind, extra int) {
	var (
		connErr   *ConnectError
		httpErr   *HTTPStatusError
		decodeErr *DecoderInitError
	)
	switch {
	case err == nil:
		return ErrorUnknown, 0
	case errors.As(err, &connErr):
		if connErr.NetworkAvailable {
			return ErrorIOConnection, 0
		}
		return ErrorIONetwork, 0
	case errors.As(err, &httpErr):
		switch {
		case httpErr.Code >= 400 && httpErr.Code < 500:
			return ErrorHTTPClient, httpErr.Code
		case httpErr.Code >= 500 && httpErr.Code < 600:
			return ErrorHTTPServer, httpErr.Code
		default:
			return ErrorHTTPOther, httpErr.Code
		}
	case errors.Is(err, ErrUnrecognizedFormat):
		return ErrorUnrecognizedFormat, 0
	case errors.As(err, &decodeErr):
		return ErrorDecoderInit, 0
	case errors.Is(err, ErrIllegalState):
		return ErrorIllegalState, 0
	default:
		return ErrorUnknown, 0
	}
}
