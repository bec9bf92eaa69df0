package memograph

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

// memTier is an in-process Tier with injectable failures per op.
type memTier struct {
	mu      sync.Mutex
	m       map[string]memEntry
	fail    map[string]error // op => err
	lastTTL time.Duration
	sets    int
}

func newMemTier() *memTier { return &memTier{m: make(map[string]memEntry)} }

func (p *memTier) failOn(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail == nil {
		p.fail = make(map[string]error)
	}
	p.fail[op] = err
}

func (p *memTier) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["get"]; err != nil {
		return nil, false, err
	}
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memTier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["set"]; err != nil {
		return err
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	p.lastTTL = ttl
	p.sets++
	return nil
}

func (p *memTier) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["delete"]; err != nil {
		return err
	}
	delete(p.m, key)
	return nil
}

func (p *memTier) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["clear"]; err != nil {
		return err
	}
	p.m = make(map[string]memEntry)
	return nil
}

func (p *memTier) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fail["close"]
}

func (p *memTier) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[key]
	return ok
}

// recHooks records events for assertions.
type recHooks struct {
	mu           sync.Mutex
	degraded     []string // "tier/op"
	promoted     []string // "key<-from"
	promotedInto []int
	coalesced    int
}

func (h *recHooks) TierDegraded(tier, op, key string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.degraded = append(h.degraded, tier+"/"+op)
}

func (h *recHooks) Promoted(key, from string, into int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.promoted = append(h.promoted, key+"<-"+from)
	h.promotedInto = append(h.promotedInto, into)
}

func (h *recHooks) Coalesced(string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.coalesced++
}

func (h *recHooks) StrategyError(string, error) {}
func (h *recHooks) Invalidated(string, int)     {}

func newTestStore(t *testing.T, hooks Hooks, tiers ...*memTier) *TieredStore {
	t.Helper()
	cfgs := make([]TierConfig, len(tiers))
	for i, tr := range tiers {
		cfgs[i] = TierConfig{Tier: tr}
	}
	s, err := NewTieredStore(cfgs, nil, hooks)
	if err != nil {
		t.Fatalf("NewTieredStore: %v", err)
	}
	return s
}

func TestStoreValidation(t *testing.T) {
	if _, err := NewTieredStore(nil, nil, nil); err == nil {
		t.Fatal("expected error for zero tiers")
	}
	if _, err := NewTieredStore([]TierConfig{{Disabled: true, Tier: newMemTier()}}, nil, nil); err == nil {
		t.Fatal("expected error when every tier is disabled")
	}
	if _, err := NewTieredStore([]TierConfig{{Tier: nil}}, nil, nil); err == nil {
		t.Fatal("expected error for nil tier")
	}
}

func TestStoreDefaultNames(t *testing.T) {
	s := newTestStore(t, nil, newMemTier(), newMemTier())
	names := s.Tiers()
	if len(names) != 2 || names[0] != "tier0" || names[1] != "tier1" {
		t.Fatalf("unexpected tier names: %v", names)
	}
}

// TestPromotionOnLowerHit verifies a hit in a slow tier backfills every
// faster tier before the value is returned.
func TestPromotionOnLowerHit(t *testing.T) {
	ctx := context.Background()
	t1, t2 := newMemTier(), newMemTier()
	hooks := &recHooks{}
	s := newTestStore(t, hooks, t1, t2)

	if err := t2.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(v, []byte("v")) {
		t.Fatalf("Get: ok=%v err=%v v=%q", ok, err, v)
	}
	if !t1.has("k") {
		t.Fatal("hit was not promoted into the faster tier")
	}
	if len(hooks.promoted) != 1 || hooks.promoted[0] != "k<-tier1" {
		t.Fatalf("unexpected promotion events: %v", hooks.promoted)
	}

	// A hit in the fastest tier does not re-promote.
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("expected hit after promotion")
	}
	if len(hooks.promoted) != 1 {
		t.Fatalf("top-tier hit should not promote: %v", hooks.promoted)
	}
}

// TestPromotionHookOnlyOnSuccess verifies Promoted is not emitted when no
// faster tier accepted the value, and counts only the levels that did.
func TestPromotionHookOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	t1, t2 := newMemTier(), newMemTier()
	t1.failOn("set", errors.New("full"))
	hooks := &recHooks{}
	s := newTestStore(t, hooks, t1, t2)

	if err := t2.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("expected hit from the slower tier")
	}
	if len(hooks.promoted) != 0 {
		t.Fatalf("no tier accepted the promotion, got events %v", hooks.promoted)
	}
	if len(hooks.degraded) == 0 || hooks.degraded[0] != "tier0/promote" {
		t.Fatalf("expected degradation event for tier0/promote, got %v", hooks.degraded)
	}

	// With one of two faster tiers healthy, the event reports one level.
	t3, t4, t5 := newMemTier(), newMemTier(), newMemTier()
	t3.failOn("set", errors.New("full"))
	hooks = &recHooks{}
	s = newTestStore(t, hooks, t3, t4, t5)
	if err := t5.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("expected hit from the slowest tier")
	}
	if len(hooks.promoted) != 1 || hooks.promoted[0] != "k<-tier2" {
		t.Fatalf("unexpected promotion events: %v", hooks.promoted)
	}
	if hooks.promotedInto[0] != 1 {
		t.Fatalf("expected 1 accepting level, got %d", hooks.promotedInto[0])
	}
	if !t4.has("k") {
		t.Fatal("healthy faster tier should hold the promoted value")
	}
}

// TestGetDegradesThroughFailure verifies a failing fast tier is skipped
// and the caller still gets the value from a healthy slower tier.
func TestGetDegradesThroughFailure(t *testing.T) {
	ctx := context.Background()
	t1, t2 := newMemTier(), newMemTier()
	hooks := &recHooks{}
	s := newTestStore(t, hooks, t1, t2)

	if err := t2.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t1.failOn("get", errors.New("boom"))

	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(v, []byte("v")) {
		t.Fatalf("Get: ok=%v err=%v v=%q", ok, err, v)
	}
	if len(hooks.degraded) == 0 || hooks.degraded[0] != "tier0/get" {
		t.Fatalf("expected degradation event for tier0/get, got %v", hooks.degraded)
	}
}

func TestGetAllTiersFailIsMiss(t *testing.T) {
	ctx := context.Background()
	t1 := newMemTier()
	t1.failOn("get", errors.New("boom"))
	s := newTestStore(t, nil, t1)

	v, ok, err := s.Get(ctx, "k")
	if v != nil || ok || err != nil {
		t.Fatalf("expected clean miss, got v=%v ok=%v err=%v", v, ok, err)
	}
}

// TestSetFanOutPartialFailure verifies a failing tier produces a TierError
// naming it while the healthy tiers still receive the value.
func TestSetFanOutPartialFailure(t *testing.T) {
	ctx := context.Background()
	t1, t2 := newMemTier(), newMemTier()
	t1.failOn("set", errors.New("boom"))
	s := newTestStore(t, &recHooks{}, t1, t2)

	err := s.Set(ctx, "k", []byte("v"), 0)
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	var te *TierError
	if !errors.As(err, &te) || te.Tier != "tier0" || te.Op != "set" {
		t.Fatalf("expected TierError for tier0/set, got %v", err)
	}
	if !t2.has("k") {
		t.Fatal("healthy tier should still be written")
	}
}

func TestSetTTLOverride(t *testing.T) {
	ctx := context.Background()
	t1 := newMemTier()
	s, err := NewTieredStore([]TierConfig{{Tier: t1, TTL: time.Hour}}, nil, nil)
	if err != nil {
		t.Fatalf("NewTieredStore: %v", err)
	}

	if err := s.Set(ctx, "a", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if t1.lastTTL != time.Hour {
		t.Fatalf("zero ttl should use the tier default, got %v", t1.lastTTL)
	}

	if err := s.Set(ctx, "b", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if t1.lastTTL != time.Minute {
		t.Fatalf("explicit ttl should override the tier default, got %v", t1.lastTTL)
	}
}

func TestDisabledTierSkipped(t *testing.T) {
	ctx := context.Background()
	t1, t2 := newMemTier(), newMemTier()
	s, err := NewTieredStore([]TierConfig{
		{Tier: t1, Disabled: true},
		{Tier: t2, Name: "live"},
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewTieredStore: %v", err)
	}

	if got := s.Tiers(); len(got) != 1 || got[0] != "live" {
		t.Fatalf("unexpected tiers: %v", got)
	}
	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if t1.sets != 0 {
		t.Fatal("disabled tier must never be written")
	}
}

func TestDeleteAndClearFanOut(t *testing.T) {
	ctx := context.Background()
	t1, t2 := newMemTier(), newMemTier()
	s := newTestStore(t, nil, t1, t2)

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if t1.has("k") || t2.has("k") {
		t.Fatal("delete must reach every tier")
	}

	// Deleting a missing key is a no-op.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}

	if err := s.Set(ctx, "k2", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if t1.has("k2") || t2.has("k2") {
		t.Fatal("clear must reach every tier")
	}
}

func TestCloseJoinsErrors(t *testing.T) {
	ctx := context.Background()
	t1, t2 := newMemTier(), newMemTier()
	t2.failOn("close", errors.New("boom"))
	s := newTestStore(t, nil, t1, t2)

	err := s.Close(ctx)
	var te *TierError
	if !errors.As(err, &te) || te.Tier != "tier1" || te.Op != "close" {
		t.Fatalf("expected TierError for tier1/close, got %v", err)
	}
}
