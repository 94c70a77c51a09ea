package cart

import (
	"context"
	"math"
	"strconv"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
)

// --- Mock implementations ---

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingSink) Notify(_ context.Context, e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// flakyKV fails every Set while failSet is true.
type flakyKV struct {
	*memory.Store
	failSet bool
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func newProduct(id int, price int64) product.Product {
	return product.Product{ID: id, Name: "Product " + strconv.Itoa(id), Price: decimal.NewFromInt(price)}
}

func openStore(t *testing.T, kv storage.KV, sink notify.Sink) *Store {
	t.Helper()
	s, err := Open(context.Background(), kv, sink)
	require.NoError(t, err)
	return s
}

func TestStore_AddMergeRemoveScenario(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), nil)
	p := newProduct(1, 1000)

	require.NoError(t, s.AddItem(ctx, p, "", 2))
	assert.Equal(t, 2, s.Count())
	assert.True(t, decimal.NewFromInt(2000).Equal(s.Total()))

	require.NoError(t, s.AddItem(ctx, p, "", 1))
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)

	require.NoError(t, s.RemoveItem(ctx, 1, ""))
	assert.Empty(t, s.Lines())
	assert.Equal(t, 0, s.Count())
}

func TestStore_CountIsSumOfAdds(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), nil)
	p := newProduct(7, 10)

	sum := 0
	for _, q := range []int{1, 4, 2, 9} {
		require.NoError(t, s.AddItem(ctx, p, "red", q))
		sum += q
	}
	assert.Equal(t, sum, s.Count())
	assert.Len(t, s.Lines(), 1)
}

func TestStore_VariantsAreSeparateLines(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), nil)
	p := newProduct(1, 100)

	require.NoError(t, s.AddItem(ctx, p, "black", 1))
	require.NoError(t, s.AddItem(ctx, p, "green", 1))
	require.NoError(t, s.AddItem(ctx, p, "", 1))

	assert.Len(t, s.Lines(), 3)
	require.NoError(t, s.RemoveItem(ctx, 1, "green"))
	assert.Len(t, s.Lines(), 2)
}

func TestStore_AddItemInvalidQuantity(t *testing.T) {
	s := openStore(t, memory.New(), nil)

	err := s.AddItem(context.Background(), newProduct(1, 1), "", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, s.Lines())
}

func TestStore_AddItemQuantityOverflow(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	sink := &recordingSink{}
	s := openStore(t, kv, sink)

	require.NoError(t, s.AddItem(ctx, newProduct(1, 1), "", math.MaxInt))
	var published int
	s.Subscribe(func([]Line) { published++ })

	tests := []struct {
		name     string
		quantity int
	}{
		{"one more", 1},
		{"two more", 2},
		{"max again", math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddItem(ctx, newProduct(1, 1), "", tt.quantity)
			require.ErrorIs(t, err, ErrQuantityTooLarge)
		})
	}

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, math.MaxInt, lines[0].Quantity)
	assert.Equal(t, math.MaxInt, s.Count())
	assert.Equal(t, 1, published, "only the initial snapshot")
	assert.Len(t, sink.events, 1, "no notification for rejected adds")

	reopened := openStore(t, kv, nil)
	require.Len(t, reopened.Lines(), 1)
	assert.Equal(t, math.MaxInt, reopened.Lines()[0].Quantity)

	// Another line still fits and the count saturates.
	require.NoError(t, s.AddItem(ctx, newProduct(2, 1), "", 5))
	assert.Equal(t, math.MaxInt, s.Count())
}

func TestStore_SetQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("sets absolute quantity", func(t *testing.T) {
		s := openStore(t, memory.New(), nil)
		require.NoError(t, s.AddItem(ctx, newProduct(1, 5), "", 2))
		require.NoError(t, s.SetQuantity(ctx, 1, "", 5))
		assert.Equal(t, 5, s.Count())
	})

	t.Run("zero equals remove", func(t *testing.T) {
		a := openStore(t, memory.New(), nil)
		b := openStore(t, memory.New(), nil)
		for _, s := range []*Store{a, b} {
			require.NoError(t, s.AddItem(ctx, newProduct(1, 5), "", 2))
			require.NoError(t, s.AddItem(ctx, newProduct(2, 5), "", 1))
		}
		require.NoError(t, a.SetQuantity(ctx, 1, "", 0))
		require.NoError(t, b.RemoveItem(ctx, 1, ""))
		assert.Equal(t, b.Lines(), a.Lines())
	})

	t.Run("missing line is a no-op", func(t *testing.T) {
		s := openStore(t, memory.New(), nil)
		var calls int
		s.Subscribe(func([]Line) { calls++ })

		require.NoError(t, s.SetQuantity(ctx, 42, "", 3))
		assert.Empty(t, s.Lines())
		assert.Equal(t, 1, calls, "only the replay")
	})
}

func TestStore_ZeroPriceLine(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), nil)

	require.NoError(t, s.AddItem(ctx, newProduct(1, 300), "", 1))
	require.NoError(t, s.AddItem(ctx, newProduct(2, 0), "", 4))

	assert.Equal(t, 5, s.Count())
	assert.True(t, decimal.NewFromInt(300).Equal(s.Total()))
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	kv := memory.New()
	s := openStore(t, kv, nil)

	require.NoError(t, s.RemoveItem(context.Background(), 5, ""))

	_, err := kv.Get(context.Background(), storage.KeyCart)
	require.ErrorIs(t, err, storage.ErrNotFound, "no-op must not persist")
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), nil)
	require.NoError(t, s.AddItem(ctx, newProduct(1, 1), "", 1))

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.Lines())
}

func TestStore_Subtract(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		ordered []Line
		want    map[Key]int
	}{
		{
			name:    "whole line",
			ordered: []Line{{Product: newProduct(1, 1), Quantity: 3}},
			want:    map[Key]int{{ProductID: 2, Variant: "red"}: 1},
		},
		{
			name:    "part of a line",
			ordered: []Line{{Product: newProduct(1, 1), Quantity: 2}},
			want:    map[Key]int{{ProductID: 1}: 1, {ProductID: 2, Variant: "red"}: 1},
		},
		{
			name:    "more than present",
			ordered: []Line{{Product: newProduct(2, 1), Variant: "red", Quantity: 4}},
			want:    map[Key]int{{ProductID: 1}: 3},
		},
		{
			name:    "other variant untouched",
			ordered: []Line{{Product: newProduct(2, 1), Variant: "blue", Quantity: 1}},
			want:    map[Key]int{{ProductID: 1}: 3, {ProductID: 2, Variant: "red"}: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memory.New()
			s := openStore(t, kv, nil)
			require.NoError(t, s.AddItem(ctx, newProduct(1, 1), "", 3))
			require.NoError(t, s.AddItem(ctx, newProduct(2, 1), "red", 1))

			require.NoError(t, s.Subtract(ctx, tt.ordered))

			got := map[Key]int{}
			for _, l := range openStore(t, kv, nil).Lines() {
				got[l.Key()] = l.Quantity
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Notifications(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	s := openStore(t, memory.New(), sink)
	p := product.Product{ID: 1, Name: "Vivo Y36", Price: decimal.NewFromInt(10)}

	require.NoError(t, s.AddItem(ctx, p, "", 1))
	require.NoError(t, s.AddItemSilent(ctx, p, "", 1))
	require.NoError(t, s.RemoveItem(ctx, 1, ""))

	require.Len(t, sink.events, 1)
	assert.Equal(t, notify.SeveritySuccess, sink.events[0].Severity)
	assert.Equal(t, "Vivo Y36 added to cart", sink.events[0].Detail)
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), nil)

	var counts []int
	unsub := s.Subscribe(func(lines []Line) { counts = append(counts, Count(lines)) })

	require.NoError(t, s.AddItem(ctx, newProduct(1, 1), "", 2))
	require.NoError(t, s.AddItem(ctx, newProduct(1, 1), "", 1))
	unsub()
	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, []int{0, 2, 3}, counts)
}

func TestStore_PersistFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{Store: memory.New()}
	s := openStore(t, kv, nil)
	require.NoError(t, s.AddItem(ctx, newProduct(1, 100), "", 1))

	var published int
	s.Subscribe(func([]Line) { published++ })

	kv.failSet = true
	err := s.AddItem(ctx, newProduct(2, 100), "", 1)
	require.Error(t, err)

	assert.Len(t, s.Lines(), 1)
	assert.Equal(t, 1, published, "no publish after failed write")
}

func TestOpen_RestoresPersistedCart(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	first := openStore(t, kv, nil)
	require.NoError(t, first.AddItem(ctx, newProduct(1, 250), "black", 2))

	second := openStore(t, kv, nil)
	lines := second.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, Key{ProductID: 1, Variant: "black"}, lines[0].Key())
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(500).Equal(second.Total()))
}

func TestOpen_LegacyFormat(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	legacy := `[
		{"id": 3, "name": "Vivo Y36", "price": 2199000, "image": "vivo.jpg", "quantity": 2},
		{"id": 2, "name": "Galaxy S24", "price": "9999000", "quantity": 1, "selectedColor": "onyx"},
		{"id": 3, "name": "Vivo Y36", "price": 2199000, "quantity": 1},
		{"id": 9, "name": "Broken", "price": 1, "quantity": 0}
	]`
	require.NoError(t, kv.Set(ctx, storage.KeyCart, []byte(legacy)))

	s := openStore(t, kv, nil)
	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, []string{"vivo.jpg"}, lines[0].Product.Images)
	assert.Equal(t, "onyx", lines[1].Variant)
}

func TestOpen_CorruptStateStartsEmpty(t *testing.T) {
	ctx := context.Background()

	for name, raw := range map[string]string{
		"garbage":        `not json`,
		"wrong shape":    `{"version":1,"data":{"lines":1}}`,
		"future version": `{"version":7,"data":[]}`,
		"quantity overflow": `{"version":1,"data":[
			{"product":{"id":1,"name":"A","price":"1"},"quantity":9223372036854775807},
			{"product":{"id":1,"name":"A","price":"1"},"quantity":9223372036854775807}
		]}`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := memory.New()
			require.NoError(t, kv.Set(ctx, storage.KeyCart, []byte(raw)))

			s := openStore(t, kv, nil)
			assert.Empty(t, s.Lines())
		})
	}
}
