package models

import (
	"time"
)

// RateLimitRecord holds the request timestamps for one (subject, action)
// pair. The list is pruned to the current window on each check; there is no
// background eviction.
type RateLimitRecord struct {
	Key         string      `json:"key"`
	Requests    []time.Time `json:"requests"`
	LastUpdated time.Time   `json:"last_updated"`
}

// RateLimitResult is the outcome of a single admission check.
type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}
