// Package cache implements the inbound event deduplicator: an atomic
// check-and-mark over a shared cache with a bounded TTL, giving the mark
// pipeline at-most-once application under at-least-once delivery.
package cache

import "context"

// DedupCache reports whether an event id was already processed and marks it
// as seen in the same atomic step.
type DedupCache interface {
	// CheckAndMark returns true when the id was seen before (caller must
	// skip). A cache error is reported alongside false; callers treat it as
	// "not seen" and proceed, favoring availability over strict once-only.
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
}
