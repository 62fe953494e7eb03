package ratelimit

import (
	"time"

	"github.com/Proton-105/plantshop-bot/pkg/config"
)

// Rules holds the per-user limit and decides who bypasses it.
type Rules struct {
	limit     int
	window    time.Duration
	whitelist func(userID int64) bool
}

// NewRules builds rules from configuration. whitelist may be nil; it is consulted on every
// update so a reloaded admin set takes effect immediately.
func NewRules(cfg config.RateLimitConfig, whitelist func(userID int64) bool) *Rules {
	return &Rules{
		limit:     cfg.Requests,
		window:    cfg.Window,
		whitelist: whitelist,
	}
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	return r.whitelist != nil && r.whitelist(userID)
}

// PerUser returns the per-user limit and window.
func (r *Rules) PerUser() (int, time.Duration) {
	return r.limit, r.window
}
