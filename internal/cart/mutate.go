package cart

import (
	"context"
	"log/slog"
	"strings"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/reconcile"
)

// User-facing cart messages.
const (
	MsgAddFailed        = "Could not add to cart"
	MsgRemoveFailed     = "Failed to remove item"
	MsgRemoved          = "Item removed from cart"
	MsgUpdateFailed     = "Failed to update quantity"
	MsgClearFailed      = "Failed to clear cart"
	MsgCleared          = "Cart cleared"
	MsgReplaced         = "Cart cleared and item added!"
	MsgReplaceAddFailed = "Failed to add item after clearing cart"
	MsgDeclined         = "Item not added. Current cart unchanged."
	MsgNotInCart        = "Item is not in your cart"
	MsgEmptyCart        = "Your cart is empty."
	MsgSignupRequired   = "Please sign up or log in to place an order."
	MsgOrderPlaced      = "Order placed successfully"
)

// IsStoreConflict reports whether a rejection message means the cart holds
// items from another store.
func IsStoreConflict(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "cart already contains") || strings.Contains(m, "different store")
}

// Add puts quantity of product from storeID in the cart, merging with an
// existing line. If the backend refuses because the cart holds another
// store's items, confirm decides whether to empty the cart and retry; a nil
// confirm declines.
func (c *Cart) Add(ctx context.Context, product Product, storeID model.ID, quantity int, confirm Confirmer) *model.Result {
	if product.ID.IsZero() {
		return model.FromError(model.NewValidationError("product_id", "Product is required"))
	}
	if storeID.IsZero() {
		return model.FromError(model.NewValidationError("store_id", "Store is required"))
	}
	if quantity < 1 {
		return model.FromError(model.NewValidationError("quantity", "Quantity must be at least 1"))
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	snapshot := c.apply(ctx, func(items []LineItem) []LineItem {
		for i := range items {
			if items[i].matches(product.ID, storeID) {
				items[i].Quantity += quantity
				return items
			}
		}
		return append(items, LineItem{Product: product, StoreID: storeID, Quantity: quantity})
	})

	res := c.remote.AddToCart(ctx, product.ID, storeID, quantity)
	if res.Success {
		c.adoptCanonical(ctx, res)
		c.metrics.RecordCartMutation("add", metrics.OutcomeApplied)
		return res
	}

	c.set(ctx, snapshot)

	if res.Kind != model.FailureNetwork && IsStoreConflict(res.Message) {
		return c.resolveConflict(ctx, product, storeID, quantity, res, snapshot, confirm)
	}

	c.logger.Warn("add to cart rejected",
		slog.String("product_id", product.ID.String()),
		slog.String("store_id", storeID.String()),
		slog.String("message", res.Message),
	)
	c.metrics.RecordCartMutation("add", metrics.OutcomeReverted)
	c.notifier.Notify(notify.LevelError, orDefault(res.Message, MsgAddFailed))
	return res
}

// resolveConflict runs with opMu held and the snapshot restored.
func (c *Cart) resolveConflict(ctx context.Context, product Product, storeID model.ID, quantity int, rejected *model.Result, snapshot []LineItem, confirm Confirmer) *model.Result {
	c.logger.Info("cart holds another store's items",
		slog.String("store_id", storeID.String()),
		slog.Any("cart_stores", storeIDs(snapshot)),
	)

	if confirm == nil || !confirm.ConfirmReplace(ctx, rejected.Message) {
		c.metrics.RecordCartMutation("add", metrics.OutcomeCancelled)
		c.notifier.Notify(notify.LevelInfo, MsgDeclined)
		res := model.Declined(MsgDeclined)
		res.Kind = model.FailureConflict
		return res
	}

	cleared := c.remote.EmptyCart(ctx)
	if !cleared.Success {
		c.metrics.RecordCartMutation("add", metrics.OutcomeReverted)
		c.notifier.Notify(notify.LevelError, MsgClearFailed)
		res := model.Fail(cleared.Kind, MsgClearFailed)
		res.Status = cleared.Status
		return res
	}
	// The remote cart is empty now whatever happens next.
	c.set(ctx, nil)

	retry := c.remote.AddToCart(ctx, product.ID, storeID, quantity)
	if !retry.Success {
		c.metrics.RecordCartMutation("add", metrics.OutcomeReverted)
		c.notifier.Notify(notify.LevelError, MsgReplaceAddFailed)
		if retry.Message == "" {
			retry.Message = MsgReplaceAddFailed
		}
		return retry
	}

	if !c.adoptCanonical(ctx, retry) {
		c.set(ctx, []LineItem{{Product: product, StoreID: storeID, Quantity: quantity}})
	}
	c.metrics.RecordCartMutation("add", metrics.OutcomeReplaced)
	c.notifier.Notify(notify.LevelSuccess, MsgReplaced)
	return retry
}

// Remove deletes the line for (productID, storeID).
func (c *Cart) Remove(ctx context.Context, productID, storeID model.ID) *model.Result {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.remove(ctx, productID, storeID)
}

func (c *Cart) remove(ctx context.Context, productID, storeID model.ID) *model.Result {
	snapshot := c.apply(ctx, func(items []LineItem) []LineItem {
		out := items[:0]
		for _, it := range items {
			if !it.matches(productID, storeID) {
				out = append(out, it)
			}
		}
		return out
	})

	res := c.remote.RemoveFromCart(ctx, productID)
	if !res.Success {
		c.set(ctx, snapshot)
		c.metrics.RecordCartMutation("remove", metrics.OutcomeReverted)
		c.notifier.Notify(notify.LevelError, orDefault(res.Message, MsgRemoveFailed))
		return res
	}

	c.adoptCanonical(ctx, res)
	c.metrics.RecordCartMutation("remove", metrics.OutcomeApplied)
	c.notifier.Notify(notify.LevelSuccess, orDefault(res.Message, MsgRemoved))
	return res
}

// UpdateQuantity sets the quantity of an existing line. quantity <= 0
// removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, productID, storeID model.ID, quantity int) *model.Result {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if quantity <= 0 {
		return c.remove(ctx, productID, storeID)
	}

	if c.QuantityOf(productID, storeID) == 0 {
		return model.Fail(model.FailureNotFound, MsgNotInCart)
	}

	snapshot := c.apply(ctx, func(items []LineItem) []LineItem {
		for i := range items {
			if items[i].matches(productID, storeID) {
				items[i].Quantity = quantity
			}
		}
		return items
	})

	res := c.remote.UpdateCart(ctx, productID, quantity)
	if !res.Success {
		c.set(ctx, snapshot)
		c.metrics.RecordCartMutation("update", metrics.OutcomeReverted)
		c.notifier.Notify(notify.LevelError, orDefault(res.Message, MsgUpdateFailed))
		return res
	}

	c.adoptCanonical(ctx, res)
	c.metrics.RecordCartMutation("update", metrics.OutcomeApplied)
	return res
}

// Clear empties the cart. A remote failure restores the previous lines.
func (c *Cart) Clear(ctx context.Context) *model.Result {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	snapshot := c.apply(ctx, func([]LineItem) []LineItem { return nil })

	res := c.remote.EmptyCart(ctx)
	if !res.Success {
		c.set(ctx, snapshot)
		c.metrics.RecordCartMutation("clear", metrics.OutcomeReverted)
		c.notifier.Notify(notify.LevelError, orDefault(res.Message, MsgClearFailed))
		return res
	}

	c.metrics.RecordCartMutation("clear", metrics.OutcomeApplied)
	c.notifier.Notify(notify.LevelSuccess, orDefault(res.Message, MsgCleared))
	return res
}

// Sync replaces local state with the remote cart when the backend returns
// a canonical payload.
func (c *Cart) Sync(ctx context.Context) *model.Result {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	res := c.remote.GetCart(ctx)
	if !res.Success {
		c.logger.Warn("cart sync failed", slog.String("message", res.Message))
		return res
	}
	if !c.adoptCanonical(ctx, res) {
		c.logger.Debug("remote cart returned no line items")
	}
	return res
}

// apply snapshots the lines, runs fn on a copy and stores the outcome.
// Callers hold opMu.
func (c *Cart) apply(ctx context.Context, fn func([]LineItem) []LineItem) (snapshot []LineItem) {
	snapshot = c.Items()
	c.set(ctx, fn(clone(snapshot)))
	return snapshot
}

// adoptCanonical replaces local state with the payload's data.items, if
// any, and logs how it differed from the optimistic state. A reply without
// a data member is never canonical.
func (c *Cart) adoptCanonical(ctx context.Context, res *model.Result) bool {
	if res.Bare {
		return false
	}
	items, ok := canonicalItems(res.Data)
	if !ok {
		return false
	}

	diff := reconcile.DiffLines(toLines(c.Items()), toLines(items))
	if !diff.IsEmpty() {
		c.logger.Info("server cart differs from local cart",
			slog.Int("added", len(diff.Added)),
			slog.Int("dropped", len(diff.Dropped)),
			slog.Int("changed", len(diff.Changed)),
		)
		c.metrics.RecordDrift(diff.Size())
	}

	c.set(ctx, items)
	return true
}

func toLines(items []LineItem) []reconcile.Line {
	lines := make([]reconcile.Line, len(items))
	for i, it := range items {
		lines[i] = reconcile.Line{
			ProductID: it.Product.ID.String(),
			StoreID:   it.StoreID.String(),
			Quantity:  it.Quantity,
		}
	}
	return lines
}

func orDefault(msg, def string) string {
	if strings.TrimSpace(msg) == "" {
		return def
	}
	return msg
}
