// Package bolt provides the persistent disk tier backed by bbolt. Entries
// are framed with the wire envelope so per-entry expiry survives process
// restarts; expired or corrupt entries are deleted on the next read.
package bolt

import (
	"context"
	"errors"
	"os"
	"time"

	bb "go.etcd.io/bbolt"

	"github.com/unkn0wn-root/memograph/internal/wire"
	"github.com/unkn0wn-root/memograph/tier"
)

const defaultBucket = "memograph"

type Tier struct {
	db     *bb.DB
	bucket []byte
}

var _ tier.Tier = (*Tier)(nil)

type Config struct {
	// Path of the database file; created if missing.
	Path string
	// Bucket name; defaults to "memograph".
	Bucket string
	// FileMode for a newly created file; defaults to 0600.
	FileMode os.FileMode
	// Timeout bounds the wait for the file lock; 0 waits indefinitely.
	Timeout time.Duration
}

func New(cfg Config) (*Tier, error) {
	if cfg.Path == "" {
		return nil, errors.New("bolt tier: path is required")
	}
	mode := cfg.FileMode
	if mode == 0 {
		mode = 0o600
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}

	db, err := bb.Open(cfg.Path, mode, &bb.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bb.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Tier{db: db, bucket: []byte(bucket)}, nil
}

func (t *Tier) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var found, stale bool

	err := t.db.View(func(tx *bb.Tx) error {
		raw := tx.Bucket(t.bucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		exp, payload, err := wire.Decode(raw)
		if err != nil || wire.Expired(exp, time.Now()) {
			stale = true // delete outside the read tx
			return nil
		}
		// The tx owns raw; copy before it closes.
		value = make([]byte, len(payload))
		copy(value, payload)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if stale {
		_ = t.Delete(context.Background(), key)
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}
	return value, true, nil
}

func (t *Tier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	framed := wire.Encode(exp, value)
	return t.db.Update(func(tx *bb.Tx) error {
		return tx.Bucket(t.bucket).Put([]byte(key), framed)
	})
}

func (t *Tier) Delete(_ context.Context, key string) error {
	return t.db.Update(func(tx *bb.Tx) error {
		return tx.Bucket(t.bucket).Delete([]byte(key))
	})
}

func (t *Tier) Clear(_ context.Context) error {
	return t.db.Update(func(tx *bb.Tx) error {
		if err := tx.DeleteBucket(t.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(t.bucket)
		return err
	})
}

func (t *Tier) Close(_ context.Context) error {
	return t.db.Close()
}
