package storage

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Restore reads key and passes the record to decode. A missing key is not an
// error and decode is not called. Records that decode rejects or that carry
// an unsupported version are discarded with a warning so the caller starts
// from its empty state. Only read failures of the KV itself are returned.
func Restore(ctx context.Context, kv KV, key string, decode func(Record) error) error {
	rec, err := Load(ctx, kv, key)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		var verr *UnsupportedVersionError
		if errors.As(err, &verr) {
			zctx.From(ctx).Warn("Discarding stored state",
				zap.String("key", key),
				zap.Int("version", verr.Version),
			)
			return nil
		}
		return err
	}

	if err := decode(rec); err != nil {
		zctx.From(ctx).Warn("Discarding undecodable stored state",
			zap.String("key", key),
			zap.Int("version", rec.Version),
			zap.Error(err),
		)
	}
	return nil
}
