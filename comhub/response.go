package comhub

import (
	"time"

	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/routing"
)

// Response is one settled reply to a SendAndAwait call. Which endpoint
// actually produced the block is not always knowable up front (a
// Receivers-by-pointer send resolves to a concrete endpoint only once a
// reply names one in its routing header), hence the three shapes.
type Response struct {
	// Kind discriminates which of Endpoint/Section is meaningful.
	Kind ResponseKind
	// Endpoint is the responder, present for Exact and Resolved.
	Endpoint endpoint.Endpoint
	// Section is the response block's section_index, always present.
	Section uint16
	// Block is the full response block.
	Block routing.Block
}

// ResponseKind discriminates how a Response's endpoint was determined.
type ResponseKind uint8

const (
	// ExactResponse: the receiver was addressed directly by endpoint and
	// replied from that same endpoint.
	ExactResponse ResponseKind = iota
	// ResolvedResponse: the receiver was addressed by pointer/alias and
	// the reply's sender resolves the concrete endpoint behind it.
	ResolvedResponse
	// UnspecifiedResponse: no receiver endpoint could be associated with
	// this reply (e.g. a broadcast/any send); only the section is known.
	UnspecifiedResponse
)

func (k ResponseKind) String() string {
	switch k {
	case ExactResponse:
		return "exact"
	case ResolvedResponse:
		return "resolved"
	case UnspecifiedResponse:
		return "unspecified"
	default:
		return "unknown"
	}
}

// ResolutionStrategy controls when SendAndAwait settles relative to the
// set of receivers a request block was addressed to.
type ResolutionStrategy uint8

const (
	// ReturnAfterAllSettled waits for every known receiver to either
	// respond or fail (a per-receiver timeout counts as a failure for
	// that receiver only); the call settles once none remain pending.
	ReturnAfterAllSettled ResolutionStrategy = iota
	// ReturnOnAnyError returns as soon as any known receiver fails;
	// still-pending receivers are aborted with EarlyAbort.
	ReturnOnAnyError
	// ReturnOnFirstResponse returns on the first successful response;
	// every other outstanding receiver is aborted with EarlyAbort.
	ReturnOnFirstResponse
	// ReturnOnFirstResult returns on the first response OR the first
	// error, whichever settles first; the rest are aborted.
	ReturnOnFirstResult
)

// ResponseOptions configures one SendAndAwait call.
type ResponseOptions struct {
	Strategy ResolutionStrategy
	Timeout  time.Duration
}

// DefaultResponseOptions returns the spec's baseline: wait for every
// receiver, bounded by a generous default timeout.
func DefaultResponseOptions() ResponseOptions {
	return ResponseOptions{Strategy: ReturnAfterAllSettled, Timeout: 30 * time.Second}
}

// Result is the outcome SendAndAwait produces for one receiver: exactly
// one of Response/Err is set.
type Result struct {
	Endpoint endpoint.Endpoint
	Response *Response
	Err      error
}
