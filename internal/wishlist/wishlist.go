// Package wishlist keeps the shopper's saved product ids, mirrored to
// storage and to the remote wishlist the same way the cart is.
package wishlist

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/reconcile"
	"storefront/internal/storage"
)

// User-facing wishlist messages.
const (
	MsgAdded      = "Added to wishlist"
	MsgRemoved    = "Removed from wishlist"
	MsgAddFailed  = "Could not add to wishlist"
	MsgRemoveFail = "Could not remove from wishlist"
)

// Remote is the backend wishlist. storeapi.Client implements it.
type Remote interface {
	GetWishlist(ctx context.Context) *model.Result
	AddToWishlist(ctx context.Context, productID model.ID) *model.Result
	RemoveFromWishlist(ctx context.Context, productID model.ID) *model.Result
}

// Wishlist is safe for concurrent use.
type Wishlist struct {
	remote   Remote
	store    storage.Store
	logger   *slog.Logger
	notifier notify.Notifier

	opMu sync.Mutex

	mu  sync.RWMutex
	ids []model.ID
}

// Option configures a Wishlist.
type Option func(*Wishlist)

// WithNotifier routes user-facing messages to n.
func WithNotifier(n notify.Notifier) Option {
	return func(w *Wishlist) { w.notifier = n }
}

// New loads the persisted wishlist. Unreadable data starts empty.
func New(ctx context.Context, remote Remote, store storage.Store, logger *slog.Logger, opts ...Option) *Wishlist {
	w := &Wishlist{
		remote:   remote,
		store:    store,
		logger:   logger,
		notifier: notify.Discard,
	}
	for _, opt := range opts {
		opt(w)
	}

	var saved []model.ID
	if _, err := storage.GetJSON(ctx, store, storage.KeyWishlist, &saved); err != nil {
		logger.Warn("discarding unreadable saved wishlist", slog.String("error", err.Error()))
		saved = nil
	}
	w.ids = dedupe(saved)
	return w
}

// Items returns the saved ids in insertion order.
func (w *Wishlist) Items() []model.ID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]model.ID{}, w.ids...)
}

// Contains reports whether id is saved.
func (w *Wishlist) Contains(id model.ID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return indexOf(w.ids, id) >= 0
}

// Add saves id. Adding a saved id is a no-op.
func (w *Wishlist) Add(ctx context.Context, id model.ID) *model.Result {
	if id.IsZero() {
		return model.FromError(model.NewValidationError("product_id", "Product is required"))
	}

	w.opMu.Lock()
	defer w.opMu.Unlock()
	return w.add(ctx, id)
}

func (w *Wishlist) add(ctx context.Context, id model.ID) *model.Result {
	if w.Contains(id) {
		return model.OK(nil)
	}

	snapshot := w.apply(ctx, func(ids []model.ID) []model.ID { return append(ids, id) })

	res := w.remote.AddToWishlist(ctx, id)
	if !res.Success {
		w.set(ctx, snapshot)
		w.logger.Warn("wishlist add rejected",
			slog.String("product_id", id.String()),
			slog.String("message", res.Message),
		)
		w.notifier.Notify(notify.LevelError, firstNonEmpty(res.Message, MsgAddFailed))
		return res
	}
	w.notifier.Notify(notify.LevelSuccess, MsgAdded)
	return res
}

// Remove drops id. Removing an absent id still asks the backend.
func (w *Wishlist) Remove(ctx context.Context, id model.ID) *model.Result {
	if id.IsZero() {
		return model.FromError(model.NewValidationError("product_id", "Product is required"))
	}

	w.opMu.Lock()
	defer w.opMu.Unlock()
	return w.remove(ctx, id)
}

func (w *Wishlist) remove(ctx context.Context, id model.ID) *model.Result {
	snapshot := w.apply(ctx, func(ids []model.ID) []model.ID {
		out := ids[:0]
		for _, v := range ids {
			if v != id {
				out = append(out, v)
			}
		}
		return out
	})

	res := w.remote.RemoveFromWishlist(ctx, id)
	if !res.Success {
		w.set(ctx, snapshot)
		w.logger.Warn("wishlist remove rejected",
			slog.String("product_id", id.String()),
			slog.String("message", res.Message),
		)
		w.notifier.Notify(notify.LevelError, firstNonEmpty(res.Message, MsgRemoveFail))
		return res
	}
	w.notifier.Notify(notify.LevelSuccess, MsgRemoved)
	return res
}

// Toggle removes id if saved, otherwise adds it.
func (w *Wishlist) Toggle(ctx context.Context, id model.ID) *model.Result {
	if id.IsZero() {
		return model.FromError(model.NewValidationError("product_id", "Product is required"))
	}

	w.opMu.Lock()
	defer w.opMu.Unlock()

	if w.Contains(id) {
		return w.remove(ctx, id)
	}
	return w.add(ctx, id)
}

// Load fetches the remote wishlist. A non-empty server list replaces the
// local one; an empty or unreadable one keeps it.
func (w *Wishlist) Load(ctx context.Context) *model.Result {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	res := w.remote.GetWishlist(ctx)
	if !res.Success {
		w.logger.Warn("wishlist load failed", slog.String("message", res.Message))
		return res
	}

	ids := parseIDs(res.Data)
	if len(ids) == 0 {
		return res
	}

	diff := reconcile.DiffIDs(toStrings(w.Items()), toStrings(ids))
	if !diff.IsEmpty() {
		w.logger.Info("server wishlist differs from local wishlist",
			slog.Int("added", len(diff.Added)),
			slog.Int("dropped", len(diff.Dropped)),
		)
	}
	w.set(ctx, ids)
	return res
}

func (w *Wishlist) apply(ctx context.Context, fn func([]model.ID) []model.ID) []model.ID {
	snapshot := w.Items()
	w.set(ctx, fn(append([]model.ID{}, snapshot...)))
	return snapshot
}

func (w *Wishlist) set(ctx context.Context, ids []model.ID) {
	if ids == nil {
		ids = []model.ID{}
	}
	w.mu.Lock()
	w.ids = ids
	w.mu.Unlock()

	if err := storage.SetJSON(ctx, w.store, storage.KeyWishlist, ids); err != nil {
		w.logger.Error("persisting wishlist", slog.String("error", err.Error()))
	}
}

// parseIDs reads a list of ids, or of objects carrying product_id or id,
// either bare or under "items" / "wishlist".
func parseIDs(data json.RawMessage) []model.ID {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var list []json.RawMessage
	if data[0] == '{' {
		var wrapped struct {
			Items    []json.RawMessage `json:"items"`
			Wishlist []json.RawMessage `json:"wishlist"`
		}
		if json.Unmarshal(data, &wrapped) != nil {
			return nil
		}
		list = wrapped.Items
		if len(list) == 0 {
			list = wrapped.Wishlist
		}
	} else if json.Unmarshal(data, &list) != nil {
		return nil
	}

	var ids []model.ID
	for _, raw := range list {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		var id model.ID
		if raw[0] == '{' {
			var obj struct {
				ProductID model.ID `json:"product_id"`
				ID        model.ID `json:"id"`
			}
			if json.Unmarshal(raw, &obj) != nil {
				continue
			}
			id = obj.ProductID
			if id.IsZero() {
				id = obj.ID
			}
		} else if json.Unmarshal(raw, &id) != nil {
			continue
		}
		if !id.IsZero() {
			ids = append(ids, id)
		}
	}
	return dedupe(ids)
}

func dedupe(ids []model.ID) []model.ID {
	out := make([]model.ID, 0, len(ids))
	for _, id := range ids {
		if !id.IsZero() && indexOf(out, id) < 0 {
			out = append(out, id)
		}
	}
	return out
}

func indexOf(ids []model.ID, id model.ID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func toStrings(ids []model.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
