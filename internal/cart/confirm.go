package cart

import "context"

// Confirmer decides whether to empty the cart when the backend refuses an
// item from a different store. message is the server's explanation.
type Confirmer interface {
	ConfirmReplace(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) ConfirmReplace(ctx context.Context, message string) bool { return f(ctx, message) }

// Always answers every conflict with the same decision. Callers that state
// their choice up front (gateway, MCP) use it.
func Always(replace bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return replace })
}
