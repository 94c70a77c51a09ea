package address

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/internal/observable"
	"github.com/xenking/storefront/internal/storage"
)

// Book owns the saved addresses and the selected address slot. The two are
// persisted under separate keys; the slot only ever references an address
// present in the book.
type Book struct {
	kv    storage.KV
	sink  notify.Sink
	newID func() (string, error)

	mu          sync.Mutex
	addresses   []Address
	selectedID  string
	listVersion uint64
	selVersion  uint64

	list     *observable.Subject[[]Address]
	selected *observable.Subject[*Address]
}

// Open restores the book and the selection from kv. A stored selection that
// no longer matches an address falls back to the first address.
func Open(ctx context.Context, kv storage.KV, sink notify.Sink) (*Book, error) {
	var addresses []Address
	err := storage.Restore(ctx, kv, storage.KeyAddresses, func(rec storage.Record) error {
		if rec.Version != storage.SchemaVersion {
			return errors.Errorf("unsupported addresses version %d", rec.Version)
		}
		var stored []Address
		if err := json.Unmarshal(rec.Data, &stored); err != nil {
			return errors.Wrap(err, "decode addresses")
		}
		for _, a := range stored {
			if a.ID != "" && indexOf(addresses, a.ID) < 0 {
				addresses = append(addresses, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var selectedID string
	err = storage.Restore(ctx, kv, storage.KeySelectedAddress, func(rec storage.Record) error {
		return json.Unmarshal(rec.Data, &selectedID)
	})
	if err != nil {
		return nil, err
	}
	if selectedID != "" && indexOf(addresses, selectedID) < 0 {
		zctx.From(ctx).Warn("Selected address is gone, falling back",
			zap.String("address_id", selectedID),
		)
		selectedID = fallback(addresses)
	}

	if sink == nil {
		sink = notify.Discard
	}
	b := &Book{
		kv:         kv,
		sink:       sink,
		newID:      newV7,
		addresses:  addresses,
		selectedID: selectedID,
	}
	b.list = observable.New(clone(addresses))
	b.selected = observable.New(b.lookup(selectedID))
	return b, nil
}

func newV7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", errors.Wrap(err, "generate address id")
	}
	return id.String(), nil
}

// Add stores a with a freshly generated id and selects it.
func (b *Book) Add(ctx context.Context, a Address) (Address, error) {
	id, err := b.newID()
	if err != nil {
		return Address{}, err
	}
	a.ID = id

	b.mu.Lock()
	publish, err := b.commit(ctx, append(clone(b.addresses), a), id)
	b.mu.Unlock()
	if err != nil {
		return Address{}, err
	}
	publish()

	b.sink.Notify(ctx, notify.Success("Address saved", a.Label))
	return a, nil
}

// Update replaces the address with the same id. Unknown ids are ignored.
func (b *Book) Update(ctx context.Context, a Address) error {
	b.mu.Lock()
	i := indexOf(b.addresses, a.ID)
	if i < 0 || b.addresses[i] == a {
		b.mu.Unlock()
		return nil
	}
	next := clone(b.addresses)
	next[i] = a
	publish, err := b.commit(ctx, next, b.selectedID)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	publish()

	b.sink.Notify(ctx, notify.Success("Address updated", a.Label))
	return nil
}

// Delete removes the address with the given id. When it was selected the
// selection moves to the first remaining address, or to none.
func (b *Book) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	i := indexOf(b.addresses, id)
	if i < 0 {
		b.mu.Unlock()
		return nil
	}
	removed := b.addresses[i]
	next := clone(b.addresses)
	next = append(next[:i], next[i+1:]...)
	selectedID := b.selectedID
	if selectedID == id {
		selectedID = fallback(next)
	}
	publish, err := b.commit(ctx, next, selectedID)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	publish()

	b.sink.Notify(ctx, notify.Info("Address deleted", removed.Label))
	return nil
}

// SetSelected selects the address with the given id. An empty id clears the
// selection. Unknown ids, including the add-new option, are ignored.
func (b *Book) SetSelected(ctx context.Context, id string) error {
	b.mu.Lock()
	if id == b.selectedID || (id != "" && indexOf(b.addresses, id) < 0) {
		b.mu.Unlock()
		return nil
	}
	publish, err := b.commit(ctx, b.addresses, id)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	publish()
	return nil
}

// Seed fills an empty book with addresses, keeping their ids, and selects
// the first one. A book that already holds addresses is left untouched.
// It reports whether anything was written.
func (b *Book) Seed(ctx context.Context, addresses []Address) (bool, error) {
	b.mu.Lock()
	if len(b.addresses) > 0 || len(addresses) == 0 {
		b.mu.Unlock()
		return false, nil
	}
	next := make([]Address, 0, len(addresses))
	for _, a := range addresses {
		if a.ID == "" {
			id, err := b.newID()
			if err != nil {
				b.mu.Unlock()
				return false, err
			}
			a.ID = id
		}
		if indexOf(next, a.ID) < 0 {
			next = append(next, a)
		}
	}
	publish, err := b.commit(ctx, next, fallback(next))
	b.mu.Unlock()
	if err != nil {
		return false, err
	}
	publish()
	return true, nil
}

// List returns a copy of the saved addresses.
func (b *Book) List() []Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.addresses)
}

// Get returns the address with the given id or ErrNotFound.
func (b *Book) Get(id string) (Address, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := indexOf(b.addresses, id); i >= 0 {
		return b.addresses[i], nil
	}
	return Address{}, ErrNotFound
}

// Selected returns the selected address, or nil when none is selected.
func (b *Book) Selected() *Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lookup(b.selectedID)
}

// ListForSelection returns the picker options: the add-new option first,
// followed by every saved address.
func (b *Book) ListForSelection() []Option {
	b.mu.Lock()
	defer b.mu.Unlock()
	opts := make([]Option, 0, len(b.addresses)+1)
	opts = append(opts, Option{ID: AddNewOptionID, DisplayLabel: "Add new address", AddNew: true})
	for _, a := range b.addresses {
		opts = append(opts, Option{ID: a.ID, DisplayLabel: displayLabel(a)})
	}
	return opts
}

// Subscribe calls fn with the current addresses and again after every
// change to the collection.
func (b *Book) Subscribe(fn func([]Address)) (unsubscribe func()) {
	return b.list.Subscribe(fn)
}

// SubscribeSelected calls fn with the selected address (nil for none) and
// again whenever the selection or the selected address changes.
func (b *Book) SubscribeSelected(fn func(*Address)) (unsubscribe func()) {
	return b.selected.Subscribe(fn)
}

// commit persists next and selectedID and applies them. It must be called
// with b.mu held; the returned func publishes the change and must be called
// after b.mu is released. If the selection write fails the collection is
// written back to its previous value.
func (b *Book) commit(ctx context.Context, next []Address, selectedID string) (func(), error) {
	listChanged := !equal(b.addresses, next)
	selChanged := selectedID != b.selectedID ||
		(selectedID != "" && listChanged && !sameAddress(b.addresses, next, selectedID))

	if listChanged {
		if err := storage.Save(ctx, b.kv, storage.KeyAddresses, next); err != nil {
			return nil, err
		}
	}
	if selectedID != b.selectedID {
		if err := storage.Save(ctx, b.kv, storage.KeySelectedAddress, selectedID); err != nil {
			if listChanged {
				if rerr := storage.Save(ctx, b.kv, storage.KeyAddresses, b.addresses); rerr != nil {
					zctx.From(ctx).Error("Restore addresses after failed selection write", zap.Error(rerr))
				}
			}
			return nil, err
		}
	}

	b.addresses = clone(next)
	b.selectedID = selectedID

	var listVersion, selVersion uint64
	var listSnap []Address
	var selSnap *Address
	if listChanged {
		b.listVersion++
		listVersion, listSnap = b.listVersion, clone(b.addresses)
	}
	if selChanged {
		b.selVersion++
		selVersion, selSnap = b.selVersion, b.lookup(selectedID)
	}
	return func() {
		if listChanged {
			b.list.Publish(listVersion, listSnap)
		}
		if selChanged {
			b.selected.Publish(selVersion, selSnap)
		}
	}, nil
}

func (b *Book) lookup(id string) *Address {
	if id == "" {
		return nil
	}
	if i := indexOf(b.addresses, id); i >= 0 {
		a := b.addresses[i]
		return &a
	}
	return nil
}

func fallback(addresses []Address) string {
	if len(addresses) == 0 {
		return ""
	}
	return addresses[0].ID
}

func sameAddress(prev, next []Address, id string) bool {
	i, j := indexOf(prev, id), indexOf(next, id)
	if i < 0 || j < 0 {
		return false
	}
	return prev[i] == next[j]
}

func equal(a, b []Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func indexOf(addresses []Address, id string) int {
	for i, a := range addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func clone(addresses []Address) []Address {
	out := make([]Address, len(addresses))
	copy(out, addresses)
	return out
}
