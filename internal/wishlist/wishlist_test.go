package wishlist

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/storage"
)

type mockRemote struct {
	GetFunc    func() *model.Result
	AddFunc    func(id model.ID) *model.Result
	RemoveFunc func(id model.ID) *model.Result

	mu    sync.Mutex
	calls int
}

func (m *mockRemote) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockRemote) GetWishlist(context.Context) *model.Result {
	m.count()
	if m.GetFunc != nil {
		return m.GetFunc()
	}
	return model.OK(nil)
}

func (m *mockRemote) AddToWishlist(_ context.Context, id model.ID) *model.Result {
	m.count()
	if m.AddFunc != nil {
		return m.AddFunc(id)
	}
	return model.OK(nil)
}

func (m *mockRemote) RemoveFromWishlist(_ context.Context, id model.ID) *model.Result {
	m.count()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(id)
	}
	return model.OK(nil)
}

func newTestWishlist(t *testing.T, remote Remote) (*Wishlist, storage.Store, *notify.Buffer) {
	t.Helper()
	store := storage.NewMemory(0)
	buf := notify.NewBuffer(20)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(context.Background(), remote, store, logger, WithNotifier(buf)), store, buf
}

func saved(t *testing.T, s storage.Store) []model.ID {
	t.Helper()
	var ids []model.ID
	_, err := storage.GetJSON(context.Background(), s, storage.KeyWishlist, &ids)
	require.NoError(t, err)
	return ids
}

func TestAdd_NoDuplicates(t *testing.T) {
	remote := &mockRemote{}
	w, store, _ := newTestWishlist(t, remote)
	ctx := context.Background()

	require.True(t, w.Add(ctx, "1").Success)
	require.True(t, w.Add(ctx, "2").Success)
	require.True(t, w.Add(ctx, "1").Success)

	assert.Equal(t, []model.ID{"1", "2"}, w.Items())
	assert.Equal(t, []model.ID{"1", "2"}, saved(t, store))
	assert.Equal(t, 2, remote.calls)
}

func TestAdd_FailureReverts(t *testing.T) {
	remote := &mockRemote{}
	w, store, buf := newTestWishlist(t, remote)
	ctx := context.Background()
	w.Add(ctx, "1")
	buf.Drain()

	remote.AddFunc = func(model.ID) *model.Result { return model.Fail(model.FailureNetwork, "") }

	res := w.Add(ctx, "2")

	assert.False(t, res.Success)
	assert.Equal(t, []model.ID{"1"}, w.Items())
	assert.Equal(t, []model.ID{"1"}, saved(t, store))
	got := buf.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, MsgAddFailed, got[0].Message)
}

func TestRemove_FailureReverts(t *testing.T) {
	remote := &mockRemote{}
	w, _, _ := newTestWishlist(t, remote)
	ctx := context.Background()
	w.Add(ctx, "1")
	w.Add(ctx, "2")

	remote.RemoveFunc = func(model.ID) *model.Result { return model.Fail(model.FailureServer, "down") }

	res := w.Remove(ctx, "1")

	assert.False(t, res.Success)
	assert.Equal(t, []model.ID{"1", "2"}, w.Items())
}

func TestToggle(t *testing.T) {
	w, _, buf := newTestWishlist(t, &mockRemote{})
	ctx := context.Background()

	w.Toggle(ctx, "7")
	assert.True(t, w.Contains("7"))

	w.Toggle(ctx, "7")
	assert.False(t, w.Contains("7"))
	assert.Empty(t, w.Items())

	var msgs []string
	for _, n := range buf.Drain() {
		msgs = append(msgs, n.Message)
	}
	assert.Equal(t, []string{MsgAdded, MsgRemoved}, msgs)
}

func TestEmptyIDRejected(t *testing.T) {
	remote := &mockRemote{}
	w, _, _ := newTestWishlist(t, remote)
	ctx := context.Background()

	assert.Equal(t, model.FailureValidation, w.Add(ctx, "").Kind)
	assert.Equal(t, model.FailureValidation, w.Remove(ctx, "").Kind)
	assert.Equal(t, model.FailureValidation, w.Toggle(ctx, "").Kind)
	assert.Zero(t, remote.calls)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []model.ID
	}{
		{"bare ids", `[1,"2",3]`, []model.ID{"1", "2", "3"}},
		{"objects", `[{"product_id":5},{"id":"6"},{"name":"no id"}]`, []model.ID{"5", "6"}},
		{"wrapped items", `{"items":[{"product_id":"9"}]}`, []model.ID{"9"}},
		{"wrapped wishlist", `{"wishlist":[4,4,8]}`, []model.ID{"4", "8"}},
		{"empty keeps local", `[]`, []model.ID{"local"}},
		{"unreadable keeps local", `"nope"`, []model.ID{"local"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &mockRemote{GetFunc: func() *model.Result {
				return model.OK(json.RawMessage(tt.payload))
			}}
			w, _, _ := newTestWishlist(t, remote)
			w.set(context.Background(), []model.ID{"local"})

			res := w.Load(context.Background())

			assert.True(t, res.Success)
			assert.Equal(t, tt.want, w.Items())
		})
	}
}

func TestLoad_FailureKeepsLocal(t *testing.T) {
	remote := &mockRemote{GetFunc: func() *model.Result { return model.Fail(model.FailureAuth, "x") }}
	w, _, _ := newTestWishlist(t, remote)
	w.set(context.Background(), []model.ID{"1"})

	assert.False(t, w.Load(context.Background()).Success)
	assert.Equal(t, []model.ID{"1"}, w.Items())
}

func TestPersistence(t *testing.T) {
	store := storage.NewMemory(0)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first := New(ctx, &mockRemote{}, store, logger)
	first.Add(ctx, "1")
	first.Add(ctx, "2")

	second := New(ctx, &mockRemote{}, store, logger)
	assert.Equal(t, []model.ID{"1", "2"}, second.Items())

	require.NoError(t, store.Set(ctx, storage.KeyWishlist, []byte(`{broken`)))
	third := New(ctx, &mockRemote{}, store, logger)
	assert.Empty(t, third.Items())
}
