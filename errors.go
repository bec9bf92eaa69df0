package memograph

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed Manager.
var ErrClosed = errors.New("memograph: manager is closed")

// TierError wraps a single tier's failure during a fan-out operation.
// The tiered store aggregates these with errors.Join, so callers can walk
// the tree with errors.As to find which tiers degraded.
type TierError struct {
	Tier string // configured tier name
	Op   string // "get", "set", "delete", "clear", "close", "promote"
	Key  string // empty for clear/close
	Err  error
}

func (e *TierError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("tier %s: %s failed: %v", e.Tier, e.Op, e.Err)
	}
	return fmt.Sprintf("tier %s: %s %q failed: %v", e.Tier, e.Op, e.Key, e.Err)
}

func (e *TierError) Unwrap() error { return e.Err }
