// Package ristretto provides the in-process memory tier backed by
// dgraph-io/ristretto: bounded, cost-admitted, with per-entry TTL.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/memograph/tier"
)

type Tier struct {
	c *rc.Cache
}

var _ tier.Tier = (*Tier)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Tier, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Tier{c: c}, nil
}

func (t *Tier) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := t.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		t.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set admits the entry with a cost of len(value). Ristretto applies writes
// asynchronously and may reject entries under pressure; both are within
// the tier contract for a best-effort memory level.
func (t *Tier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cost := int64(len(value))
	if cost == 0 {
		cost = 1
	}
	if ttl > 0 {
		t.c.SetWithTTL(key, value, cost, ttl)
	} else {
		t.c.Set(key, value, cost)
	}
	return nil
}

func (t *Tier) Delete(_ context.Context, key string) error {
	t.c.Del(key)
	return nil
}

func (t *Tier) Clear(_ context.Context) error {
	t.c.Clear()
	return nil
}

func (t *Tier) Close(_ context.Context) error {
	t.c.Wait()
	t.c.Close()
	return nil
}

// Metrics exposes ristretto's counters for applications that want them.
// Not part of the tier contract.
func (t *Tier) Metrics() *rc.Metrics { return t.c.Metrics }
