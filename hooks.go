package memograph

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the cache calls them on
// hot paths. Wrap with hooks/async when the sink can stall.
type Hooks interface {
	// A tier operation failed but the overall operation continued.
	// op ∈ {"get", "set", "delete", "clear", "promote"}
	TierDegraded(tierName, op, key string, err error)

	// A hit in a slower tier was copied into faster tiers.
	Promoted(key, fromTier string, intoTiers int)

	// A caller joined an in-flight computation instead of recomputing.
	Coalesced(key string)

	// An invalidation strategy failed; remaining strategies still ran.
	StrategyError(name string, err error)

	// An invalidation trigger finished; purged counts the removed keys.
	Invalidated(trigger string, purged int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) TierDegraded(string, string, string, error) {}
func (NopHooks) Promoted(string, string, int)               {}
func (NopHooks) Coalesced(string)                           {}
func (NopHooks) StrategyError(string, error)                {}
func (NopHooks) Invalidated(string, int)                    {}
