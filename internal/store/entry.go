package store

import "time"

// Entry represents a single value stored under a key.
//
// Design choices:
// - ExpiresAt is an absolute instant, set once at write time.
// - Zero value of ExpiresAt means "no expiration".
type Entry struct {
	Value     Value
	ExpiresAt time.Time
}

// IsExpired checks whether the entry is expired at the given time.
func (e Entry) IsExpired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(e.ExpiresAt)
}
