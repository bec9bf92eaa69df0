// Package bigcache provides an alternative memory tier backed by
// allegro/bigcache. BigCache has no per-entry TTL: every entry lives for
// the configured LifeWindow, and the ttl passed to Set is ignored. Prefer
// the ristretto tier when callers rely on per-entry expiry.
package bigcache

import (
	"context"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/memograph/tier"
)

type Tier struct {
	c *bc.BigCache
}

var _ tier.Tier = (*Tier)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Tier, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &Tier{c: c}, nil
}

func (t *Tier) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := t.c.Get(key)
	if err == bc.ErrEntryNotFound {
		return nil, false, nil
	}
	return b, err == nil, err
}

func (t *Tier) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	return t.c.Set(key, value)
}

func (t *Tier) Delete(_ context.Context, key string) error {
	err := t.c.Delete(key)
	if err == bc.ErrEntryNotFound {
		return nil
	}
	return err
}

func (t *Tier) Clear(_ context.Context) error {
	return t.c.Reset()
}

func (t *Tier) Close(_ context.Context) error {
	return t.c.Close()
}
