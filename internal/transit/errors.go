package transit

import (
	"fmt"
)

// FetchError reports a departure request that failed at the transport or HTTP layer.
type FetchError struct {
	StopID StopID
	// StatusCode is 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch departures for stop %s: unexpected status %d", e.StopID, e.StatusCode)
	}
	return fmt.Sprintf("fetch departures for stop %s: %v", e.StopID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a departure response that could not be decoded.
type ParseError struct {
	StopID StopID
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse departures for stop %s: %v", e.StopID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
