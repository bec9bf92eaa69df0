// Package redis provides the shared remote tier backed by go-redis.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/memograph/tier"
)

var ErrNilClient = errors.New("redis tier: nil client")

type Tier struct {
	rdb         goredis.UniversalClient
	prefix      string
	closeClient bool
}

var _ tier.Tier = (*Tier)(nil)

type Config struct {
	Client goredis.UniversalClient

	// KeyPrefix namespaces this tier's keys within a shared instance.
	// When set, Clear deletes only matching keys (SCAN + DEL) instead of
	// flushing the whole database.
	KeyPrefix string

	// CloseClient: set true only if this tier exclusively owns the client.
	CloseClient bool
}

func New(cfg Config) (*Tier, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Tier{rdb: cfg.Client, prefix: cfg.KeyPrefix, closeClient: cfg.CloseClient}, nil
}

func (t *Tier) key(k string) string {
	if t.prefix == "" {
		return k
	}
	return t.prefix + ":" + k
}

func (t *Tier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := t.rdb.Get(ctx, t.key(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (t *Tier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0 // non-positive TTL means "no expiry"
	}
	return t.rdb.Set(ctx, t.key(key), value, ttl).Err()
}

func (t *Tier) Delete(ctx context.Context, key string) error {
	return t.rdb.Del(ctx, t.key(key)).Err()
}

// Clear removes this tier's keys. With a prefix it scans and deletes in
// batches; without one it flushes the database, so only point an
// unprefixed tier at a dedicated DB.
func (t *Tier) Clear(ctx context.Context) error {
	if t.prefix == "" {
		return t.rdb.FlushDB(ctx).Err()
	}

	iter := t.rdb.Scan(ctx, 0, t.prefix+":*", 512).Iterator()
	batch := make([]string, 0, 512)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := t.rdb.Del(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}

// Close releases the underlying client only when this tier owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (t *Tier) Close(context.Context) error {
	if t.closeClient {
		if err := t.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
