package comhub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/observability"
	"github.com/unyt-org/datex-core-go/routing"
)

// SendAndAwait sends req to every endpoint its routing header names and
// waits for responses according to opts.Strategy, bounded by opts.Timeout.
// The returned map is keyed by endpoint.String() and always has one entry
// per receiver req.Routing.Receivers names (see receiverList); a receiver
// that never responds in time gets a NoResponseAfterTimeout Result.
func (h *ComHub) SendAndAwait(ctx context.Context, req routing.Block, opts ResponseOptions) (map[string]Result, error) {
	receivers := receiverList(req)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	resultCh := make(chan Result, len(receivers))
	pending := make(map[string]bool, len(receivers))
	for _, ep := range receivers {
		pending[ep.String()] = true
	}

	unsub := h.Subscribe(&Subscriber{
		ContextID: req.Header.ContextID,
		// BlockTypeSet stays false: IsResponse() also matches TraceBack,
		// which a single BlockType filter can't express, so the check
		// happens inside Handle instead.
		Handle: func(blk routing.Block) {
			if !blk.Header.Type.IsResponse() {
				return
			}
			resultCh <- Result{
				Endpoint: blk.Routing.Sender,
				Response: &Response{
					Kind:     responseKindFor(req, blk),
					Endpoint: blk.Routing.Sender,
					Section:  blk.Header.SectionIndex,
					Block:    blk,
				},
			}
		},
	})
	defer unsub()

	if err := h.SendBlock(ctx, req); err != nil {
		return singleErrorResult(receivers, err), err
	}

	results := make(map[string]Result, len(receivers))
	var mu sync.Mutex
	settle := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		key := r.Endpoint.String()
		if _, done := results[key]; done {
			return
		}
		results[key] = r
		delete(pending, key)
		recordResolution(r)
	}

	for len(pending) > 0 {
		select {
		case r := <-resultCh:
			settle(r)
			if shouldStop(opts.Strategy, r, results, pending) {
				abortPendingEarly(pending, receivers, results)
				return results, nil
			}
		case <-ctx.Done():
			abortPendingTimeout(pending, receivers, results, time.Since(start))
			return results, nil
		}
	}

	return results, nil
}

// shouldStop reports whether the just-settled result should cause
// SendAndAwait to return immediately under strategy, aborting anything
// still pending.
func shouldStop(strategy ResolutionStrategy, r Result, results map[string]Result, pending map[string]bool) bool {
	switch strategy {
	case ReturnOnFirstResponse:
		return r.Err == nil
	case ReturnOnFirstResult:
		return true
	case ReturnOnAnyError:
		return r.Err != nil
	case ReturnAfterAllSettled:
		return len(pending) == 0
	default:
		return len(pending) == 0
	}
}

// abortPendingEarly fills in an EarlyAbort Result for every receiver still
// outstanding once a resolution strategy has already settled the call.
func abortPendingEarly(pending map[string]bool, receivers []endpoint.Endpoint, results map[string]Result) {
	for _, ep := range receivers {
		key := ep.String()
		if !pending[key] {
			continue
		}
		results[key] = Result{Endpoint: ep, Err: NewEarlyAbortError(ep)}
		delete(pending, key)
		observability.RecordResponseResolution("early_abort")
	}
}

// abortPendingTimeout fills in a NoResponseAfterTimeout Result for every
// receiver still outstanding when the call's overall deadline elapsed.
func abortPendingTimeout(pending map[string]bool, receivers []endpoint.Endpoint, results map[string]Result, elapsed time.Duration) {
	for _, ep := range receivers {
		key := ep.String()
		if !pending[key] {
			continue
		}
		results[key] = Result{Endpoint: ep, Err: NewTimeoutError(ep, elapsed)}
		delete(pending, key)
		observability.RecordResponseResolution("timeout")
	}
}

// recordResolution maps one settled Result onto the response-resolution
// metric's label set (exact/resolved/unspecified for responses,
// timeout/not_reachable/early_abort for failures).
func recordResolution(r Result) {
	if r.Response != nil {
		observability.RecordResponseResolution(r.Response.Kind.String())
		return
	}
	var respErr *ResponseError
	if !errors.As(r.Err, &respErr) {
		return
	}
	switch respErr.Kind {
	case NoResponseAfterTimeout:
		observability.RecordResponseResolution("timeout")
	case NotReachable:
		observability.RecordResponseResolution("not_reachable")
	case EarlyAbort:
		observability.RecordResponseResolution("early_abort")
	}
}

func singleErrorResult(receivers []endpoint.Endpoint, err error) map[string]Result {
	out := make(map[string]Result, len(receivers))
	for _, ep := range receivers {
		out[ep.String()] = Result{Endpoint: ep, Err: err}
	}
	return out
}

// responseKindFor classifies a reply against the request it answers: an
// Exact match when the reply's sender was named directly as a receiver, a
// Resolved match when the request addressed a pointer/alias instead, and
// Unspecified when the request had no concrete receiver at all (broadcast
// to @any).
func responseKindFor(req, resp routing.Block) ResponseKind {
	for _, ep := range receiverList(req) {
		if ep.Equal(resp.Routing.Sender) {
			return ExactResponse
		}
	}
	if req.Routing.Flags.ReceiverType == routing.ReceiverPointer {
		return ResolvedResponse
	}
	return UnspecifiedResponse
}
