package address

import (
	"context"
	"strconv"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
)

// --- Mock implementations ---

type recordingSink struct {
	events []notify.Event
}

func (r *recordingSink) Notify(_ context.Context, e notify.Event) {
	r.events = append(r.events, e)
}

// keyFailKV fails Set for a single key.
type keyFailKV struct {
	*memory.Store
	failKey string
}

func (k *keyFailKV) Set(ctx context.Context, key string, value []byte) error {
	if key == k.failKey {
		return errors.New("write failed")
	}
	return k.Store.Set(ctx, key, value)
}

var home = Address{Label: "Home", Street: "12 Amir Temur Ave", City: "Tashkent", ZipCode: "100000", Phone: "+998901234567"}

func openBook(t *testing.T, kv storage.KV) *Book {
	t.Helper()
	b, err := Open(context.Background(), kv, nil)
	require.NoError(t, err)
	return b
}

func sequentialIDs(b *Book) {
	n := 0
	b.newID = func() (string, error) {
		n++
		return "addr-" + strconv.Itoa(n), nil
	}
}

func TestBook_AddSelectsNewAddress(t *testing.T) {
	ctx := context.Background()
	b := openBook(t, memory.New())
	require.Nil(t, b.Selected())

	added, err := b.Add(ctx, home)
	require.NoError(t, err)

	_, err = uuid.Parse(added.ID)
	require.NoError(t, err, "id is a uuid")

	sel := b.Selected()
	require.NotNil(t, sel)
	assert.Equal(t, added, *sel)
}

func TestBook_DeleteSelectedScenario(t *testing.T) {
	ctx := context.Background()
	b := openBook(t, memory.New())

	added, err := b.Add(ctx, home)
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, added.ID))

	assert.Nil(t, b.Selected())
	assert.Empty(t, b.List())
}

func TestBook_DeleteSelectedFallsBackToFirst(t *testing.T) {
	ctx := context.Background()
	b := openBook(t, memory.New())
	sequentialIDs(b)

	_, err := b.Add(ctx, home)
	require.NoError(t, err)
	_, err = b.Add(ctx, Address{Label: "Office", Street: "5 Sq", City: "Tashkent", ZipCode: "1", Phone: "2"})
	require.NoError(t, err)
	_, err = b.Add(ctx, Address{Label: "Dacha", Street: "Lake rd", City: "Chimgan", ZipCode: "3", Phone: "4"})
	require.NoError(t, err)
	require.Equal(t, "addr-3", b.Selected().ID)

	require.NoError(t, b.Delete(ctx, "addr-3"))
	assert.Equal(t, "addr-1", b.Selected().ID)

	require.NoError(t, b.Delete(ctx, "addr-2"))
	assert.Equal(t, "addr-1", b.Selected().ID, "deleting an unselected address keeps the selection")
}

func TestBook_UpdateAndDeleteUnknownAreNoops(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	b, err := Open(ctx, memory.New(), sink)
	require.NoError(t, err)

	require.NoError(t, b.Update(ctx, Address{ID: "missing", Label: "X"}))
	require.NoError(t, b.Delete(ctx, "missing"))

	assert.Empty(t, b.List())
	assert.Empty(t, sink.events)
}

func TestBook_UpdateSelectedRepublishes(t *testing.T) {
	ctx := context.Background()
	b := openBook(t, memory.New())
	added, err := b.Add(ctx, home)
	require.NoError(t, err)

	var seen []string
	b.SubscribeSelected(func(a *Address) {
		if a != nil {
			seen = append(seen, a.Street)
		}
	})

	added.Street = "14 Amir Temur Ave"
	require.NoError(t, b.Update(ctx, added))

	assert.Equal(t, []string{"12 Amir Temur Ave", "14 Amir Temur Ave"}, seen)
}

func TestBook_UpdateUnchangedIsSilent(t *testing.T) {
	ctx := context.Background()
	kv := &keyFailKV{Store: memory.New()}
	sink := &recordingSink{}
	b, err := Open(ctx, kv, sink)
	require.NoError(t, err)
	added, err := b.Add(ctx, home)
	require.NoError(t, err)
	events := len(sink.events)

	var lists, selections int
	b.Subscribe(func([]Address) { lists++ })
	b.SubscribeSelected(func(*Address) { selections++ })

	// A write would fail, so success means nothing was stored.
	kv.failKey = storage.KeyAddresses
	require.NoError(t, b.Update(ctx, added))

	assert.Len(t, sink.events, events, "no notification")
	assert.Equal(t, 1, lists, "only the initial snapshot")
	assert.Equal(t, 1, selections, "only the initial snapshot")
	assert.Equal(t, []Address{added}, b.List())
}

func TestBook_SetSelected(t *testing.T) {
	ctx := context.Background()
	b := openBook(t, memory.New())
	sequentialIDs(b)
	_, err := b.Add(ctx, home)
	require.NoError(t, err)
	_, err = b.Add(ctx, home)
	require.NoError(t, err)

	require.NoError(t, b.SetSelected(ctx, "addr-1"))
	assert.Equal(t, "addr-1", b.Selected().ID)

	require.NoError(t, b.SetSelected(ctx, "unknown"))
	assert.Equal(t, "addr-1", b.Selected().ID)

	require.NoError(t, b.SetSelected(ctx, AddNewOptionID))
	assert.Equal(t, "addr-1", b.Selected().ID, "add-new is never selected")

	require.NoError(t, b.SetSelected(ctx, ""))
	assert.Nil(t, b.Selected())
}

func TestBook_ListForSelection(t *testing.T) {
	ctx := context.Background()
	b := openBook(t, memory.New())
	sequentialIDs(b)

	opts := b.ListForSelection()
	require.Len(t, opts, 1)
	assert.True(t, opts[0].AddNew)
	assert.True(t, IsAddNew(opts[0].ID))

	_, err := b.Add(ctx, home)
	require.NoError(t, err)

	opts = b.ListForSelection()
	require.Len(t, opts, 2)
	assert.True(t, opts[0].AddNew)
	assert.Equal(t, Option{ID: "addr-1", DisplayLabel: "Home (12 Amir Temur Ave, Tashkent)"}, opts[1])
}

func TestBook_SubscribeSelectedReplays(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	first := openBook(t, kv)
	added, err := first.Add(ctx, home)
	require.NoError(t, err)

	second := openBook(t, kv)
	var got *Address
	unsub := second.SubscribeSelected(func(a *Address) { got = a })
	defer unsub()

	require.NotNil(t, got)
	assert.Equal(t, added.ID, got.ID)
}

func TestOpen_DanglingSelectionFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, storage.Save(ctx, kv, storage.KeyAddresses, []Address{
		{ID: "a", Label: "A"},
		{ID: "b", Label: "B"},
	}))
	require.NoError(t, storage.Save(ctx, kv, storage.KeySelectedAddress, "gone"))

	b := openBook(t, kv)
	require.NotNil(t, b.Selected())
	assert.Equal(t, "a", b.Selected().ID)
}

func TestBook_PersistFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("collection write", func(t *testing.T) {
		b := openBook(t, &keyFailKV{Store: memory.New(), failKey: storage.KeyAddresses})
		_, err := b.Add(ctx, home)
		require.Error(t, err)
		assert.Empty(t, b.List())
		assert.Nil(t, b.Selected())
	})

	t.Run("selection write restores collection", func(t *testing.T) {
		kv := &keyFailKV{Store: memory.New(), failKey: storage.KeySelectedAddress}
		b := openBook(t, kv)
		_, err := b.Add(ctx, home)
		require.Error(t, err)
		assert.Empty(t, b.List())

		reopened := openBook(t, kv.Store)
		assert.Empty(t, reopened.List())
	})
}

func TestBook_Seed(t *testing.T) {
	ctx := context.Background()
	b := openBook(t, memory.New())
	seed := []Address{
		{ID: "home", Label: "Home", Street: "1", City: "T", ZipCode: "1", Phone: "1"},
		{ID: "office", Label: "Office", Street: "2", City: "T", ZipCode: "2", Phone: "2"},
	}

	wrote, err := b.Seed(ctx, seed)
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Len(t, b.List(), 2)
	assert.Equal(t, "home", b.Selected().ID)

	wrote, err = b.Seed(ctx, []Address{{ID: "x"}})
	require.NoError(t, err)
	assert.False(t, wrote, "non-empty book is left alone")
	assert.Len(t, b.List(), 2)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(home))

	err := Validate(Address{Label: "Home", City: " "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"address", "city", "zipCode", "phone"}, verr.Fields)
}
