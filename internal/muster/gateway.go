package muster

import "context"

// Gateway is the consumed messaging transport. Delivery is fire-and-forget
// from the engine's perspective: a failed send is reported but never rolls
// back a committed data mutation. The transport is expected to route inbound
// reactions to Engine.HandleReaction and inbound direct messages to
// Engine.HandleDirectMessage.
type Gateway interface {
	// SendGroupMessage posts text to the group chat and returns the
	// transport's message identifier for reaction correlation.
	SendGroupMessage(ctx context.Context, text string) (string, error)
	// SendDirectMessage sends text privately to the member.
	SendDirectMessage(ctx context.Context, memberID, text string) error
}
