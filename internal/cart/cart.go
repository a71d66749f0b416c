// Package cart keeps the shopper's cart: local line items mirrored to
// storage, mutated optimistically and reconciled with the remote cart.
package cart

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/storage"
)

// Product is the snapshot of a product taken when it is added.
type Product struct {
	ID    model.ID    `json:"id"`
	Name  string      `json:"name"`
	Price model.Price `json:"price"`
	Image string      `json:"image,omitempty"`
}

// LineItem is one product in the cart. (Product.ID, StoreID) is unique.
type LineItem struct {
	Product  Product  `json:"product"`
	StoreID  model.ID `json:"storeId"`
	Quantity int      `json:"quantity"`
}

func (l LineItem) matches(productID, storeID model.ID) bool {
	return l.Product.ID == productID && l.StoreID == storeID
}

// Remote is the backend cart. storeapi.Client implements it.
type Remote interface {
	AddToCart(ctx context.Context, productID, storeID model.ID, quantity int) *model.Result
	UpdateCart(ctx context.Context, key model.ID, quantity int) *model.Result
	RemoveFromCart(ctx context.Context, key model.ID) *model.Result
	EmptyCart(ctx context.Context) *model.Result
	GetCart(ctx context.Context) *model.Result
	SubmitCheckout(ctx context.Context, order interface{}) *model.Result
}

// Cart is safe for concurrent use. Mutations run one at a time; queries
// read the latest local state and never wait on the network.
type Cart struct {
	remote   Remote
	store    storage.Store
	logger   *slog.Logger
	notifier notify.Notifier
	metrics  metrics.Recorder

	opMu sync.Mutex // serializes mutations end to end

	mu    sync.RWMutex
	items []LineItem
}

// Option configures a Cart.
type Option func(*Cart)

// WithNotifier routes user-facing messages to n.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Cart) { c.notifier = n }
}

// WithMetrics records mutation outcomes into r.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Cart) { c.metrics = r }
}

// New loads the persisted cart. Unreadable data starts an empty cart.
func New(ctx context.Context, remote Remote, store storage.Store, logger *slog.Logger, opts ...Option) *Cart {
	c := &Cart{
		remote:   remote,
		store:    store,
		logger:   logger,
		notifier: notify.Discard,
		metrics:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}

	var saved []LineItem
	found, err := storage.GetJSON(ctx, store, storage.KeyCart, &saved)
	switch {
	case err != nil:
		logger.Warn("discarding unreadable saved cart", slog.String("error", err.Error()))
	case found:
		c.items = mergeDuplicates(saved)
		logger.Debug("cart restored", slog.Int("lines", len(c.items)))
	}
	return c
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.items)
}

// Total is the sum of price × quantity, computed in minor units.
func (c *Cart) Total() float64 {
	return model.FromCents(c.TotalCents())
}

// TotalCents is Total in minor units.
func (c *Cart) TotalCents() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return totalCents(c.items)
}

// Count is the total quantity across lines.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return count(c.items)
}

// StoreGroup is the lines that belong to one store.
type StoreGroup struct {
	StoreID model.ID   `json:"storeId"`
	Items   []LineItem `json:"items"`
}

// ByStore groups lines by store, in order of first appearance.
func (c *Cart) ByStore() []StoreGroup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return groupByStore(c.items)
}

func totalCents(items []LineItem) int64 {
	var cents int64
	for _, it := range items {
		cents += it.Product.Price.Cents() * int64(it.Quantity)
	}
	return cents
}

func count(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func groupByStore(items []LineItem) []StoreGroup {
	var groups []StoreGroup
	pos := make(map[model.ID]int)
	for _, it := range items {
		i, ok := pos[it.StoreID]
		if !ok {
			i = len(groups)
			pos[it.StoreID] = i
			groups = append(groups, StoreGroup{StoreID: it.StoreID})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// StoreCount is the total quantity for one store.
func (c *Cart) StoreCount(storeID model.ID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, it := range c.items {
		if it.StoreID == storeID {
			n += it.Quantity
		}
	}
	return n
}

// QuantityOf is the quantity of one product from one store, 0 if absent.
func (c *Cart) QuantityOf(productID, storeID model.ID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, it := range c.items {
		if it.matches(productID, storeID) {
			return it.Quantity
		}
	}
	return 0
}

// Snapshot is the cart as served to callers.
type Snapshot struct {
	Items      []LineItem   `json:"items"`
	Stores     []StoreGroup `json:"stores"`
	Count      int          `json:"count"`
	Total      float64      `json:"total"`
	TotalCents int64        `json:"totalCents"`
}

// View returns every derived value from one read of the lines.
func (c *Cart) View() Snapshot {
	return snapshotOf(c.Items())
}

func snapshotOf(items []LineItem) Snapshot {
	if items == nil {
		items = []LineItem{}
	}
	stores := groupByStore(items)
	if stores == nil {
		stores = []StoreGroup{}
	}
	cents := totalCents(items)
	return Snapshot{
		Items:      items,
		Stores:     stores,
		Count:      count(items),
		Total:      model.FromCents(cents),
		TotalCents: cents,
	}
}

// set replaces local state and persists it. Storage failures are logged;
// the in-memory cart stays authoritative for this process.
func (c *Cart) set(ctx context.Context, items []LineItem) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	if err := storage.SetJSON(ctx, c.store, storage.KeyCart, nonNil(items)); err != nil {
		c.logger.Error("persisting cart", slog.String("error", err.Error()))
	}
}

func clone(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func nonNil(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	return items
}

// mergeDuplicates folds lines with the same identity, keeping first position.
func mergeDuplicates(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		merged := false
		for i := range out {
			if out[i].matches(it.Product.ID, it.StoreID) {
				out[i].Quantity += it.Quantity
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, it)
		}
	}
	return out
}

// storeIDs lists the distinct stores, sorted.
func storeIDs(items []LineItem) []string {
	seen := make(map[model.ID]bool)
	var ids []string
	for _, it := range items {
		if !seen[it.StoreID] {
			seen[it.StoreID] = true
			ids = append(ids, it.StoreID.String())
		}
	}
	sort.Strings(ids)
	return ids
}
