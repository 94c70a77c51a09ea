// Package storage defines the durable key-value contract used by the
// storefront stores and the versioned envelope every persisted document is
// wrapped in.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-faster/errors"
)

// Keys of the independently persisted documents.
const (
	KeyCart            = "cart"
	KeyWishlist        = "wishlist"
	KeyAddresses       = "addresses"
	KeySelectedAddress = "selectedAddress"
	KeyOrders          = "orders"
)

// SchemaVersion is the envelope version written by this code.
const SchemaVersion = 1

// ErrNotFound is returned by KV.Get when the key has never been written or
// was deleted.
var ErrNotFound = errors.New("storage: key not found")

// KV is a durable key-value store. Writes are synchronous: once Set returns
// nil the value survives a process restart.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Record is a persisted document as read back from a KV.
type Record struct {
	// Version is the envelope version; 0 means the value predates the
	// envelope and Data holds the raw stored bytes.
	Version int
	Data    []byte
}

// UnsupportedVersionError is returned when a record was written by a newer
// schema than this code understands.
type UnsupportedVersionError struct {
	Key     string
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return "storage: unsupported schema version " + strconv.Itoa(e.Version) + " for key " + e.Key
}

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Save writes v wrapped in a current-version envelope, replacing whatever was
// stored under key.
func Save(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", key)
	}
	raw, err := json.Marshal(envelope{Version: SchemaVersion, Data: data})
	if err != nil {
		return errors.Wrapf(err, "marshal %s envelope", key)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return nil
}

// Load reads the record stored under key. It returns ErrNotFound when
// nothing is stored and *UnsupportedVersionError for envelopes newer than
// SchemaVersion. Values that are not an envelope come back as version 0.
func Load(ctx context.Context, kv KV, key string) (Record, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, errors.Wrapf(err, "read %s", key)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{Version: 0, Data: raw}, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Version == 0 || env.Data == nil {
		return Record{Version: 0, Data: raw}, nil
	}
	if env.Version > SchemaVersion {
		return Record{}, &UnsupportedVersionError{Key: key, Version: env.Version}
	}
	return Record{Version: env.Version, Data: env.Data}, nil
}
