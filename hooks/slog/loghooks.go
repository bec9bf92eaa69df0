package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/memograph"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	DegradedEvery  uint64
	CoalescedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	degradedCtr  atomic.Uint64
	coalescedCtr atomic.Uint64
}

var _ memograph.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) TierDegraded(tier, op, key string, err error) {
	if h.l == nil || !sample(h.opts.DegradedEvery, &h.degradedCtr) {
		return
	}
	h.l.Warn("memograph.tier_degraded",
		"tier", tier,
		"op", op,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) Promoted(key, from string, into int) {
	if h.l == nil {
		return
	}
	h.l.Debug("memograph.promoted",
		"key", h.redact(key),
		"from", from,
		"into", into)
}

func (h *Hooks) Coalesced(key string) {
	if h.l == nil || !sample(h.opts.CoalescedEvery, &h.coalescedCtr) {
		return
	}
	h.l.Debug("memograph.coalesced",
		"key", h.redact(key))
}

func (h *Hooks) StrategyError(name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("memograph.strategy_error",
		"strategy", name,
		"err", err)
}

func (h *Hooks) Invalidated(trigger string, purged int) {
	if h.l == nil {
		return
	}
	h.l.Info("memograph.invalidated",
		"trigger", h.redact(trigger),
		"purged", purged)
}
