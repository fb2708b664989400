// Package aotapi implements the HTTP client for the third-party Attack on
// Titan character catalog. This file defines the typed failure modes the
// acquisition layer branches on when choosing a fallback path.
package aotapi

import "fmt"

// TransportError wraps a network-level failure (connection refused, DNS,
// timeout) talking to the catalog. The acquisition layer treats it as
// recoverable and falls back to local data.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "aotapi: transport failure: " + e.Err.Error() }

// Unwrap exposes the underlying error for errors.Is/As.
func (e *TransportError) Unwrap() error { return e.Err }

// ClientError indicates the catalog was reachable but rejected the request
// with a non-2xx status. Treated as an empty result for searches and as
// fatal for single-record fetches.
type ClientError struct {
	StatusCode int
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("aotapi: unexpected status code %d", e.StatusCode)
}

// MalformedError indicates a response body that could not be decoded or
// that lacks a recognizable name field. Such records are skipped inside
// list results but fail a single-record fetch outright.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string { return "aotapi: malformed response: " + e.Reason }
