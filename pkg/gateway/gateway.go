package gateway

import "context"

// AccessGateway adapts an external allow/deny-list API that the session
// engine uses to enforce time-boxed access to distraction domains.
//
// Both operations are idempotent by contract: blocking an already-blocked
// domain and unblocking an already-unblocked domain are no-ops.
type AccessGateway interface {
	Block(ctx context.Context, domain string) error
	Unblock(ctx context.Context, domain string) error
}
