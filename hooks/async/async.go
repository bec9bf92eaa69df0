// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/memograph"
//	"github.com/unkn0wn-root/memograph/hooks/async"
//	"github.com/unkn0wn-root/memograph/hooks/slog"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    DegradedEvery:  10, // sample logs: ~every 10th tier degradation
//	    CoalescedEvery: 0,  // log every coalesced call
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := memograph.New(memograph.Options{
//	    Tiers: tiers,
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/memograph"
)

type Hooks struct {
	inner memograph.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ memograph.Hooks = (*Hooks)(nil)

func New(inner memograph.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) TierDegraded(tier, op, key string, err error) {
	h.try(func() { h.inner.TierDegraded(tier, op, key, err) })
}
func (h *Hooks) Promoted(key, from string, into int) {
	h.try(func() { h.inner.Promoted(key, from, into) })
}
func (h *Hooks) Coalesced(key string) { h.try(func() { h.inner.Coalesced(key) }) }
func (h *Hooks) StrategyError(name string, err error) {
	h.try(func() { h.inner.StrategyError(name, err) })
}
func (h *Hooks) Invalidated(trigger string, purged int) {
	h.try(func() { h.inner.Invalidated(trigger, purged) })
}
