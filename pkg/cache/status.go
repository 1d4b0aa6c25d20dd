package cache

import "time"

// StatusSnapshot is a cached view of the gateway session status. The status
// endpoint is polled by every open CRM tab; caching it for a few seconds
// keeps that polling off the gateway.
type StatusSnapshot struct {
	Status  string
	QR      string
	Session string
}

const statusKeyPrefix = "waha-status"

// SetSessionStatus caches a snapshot for the given session name.
func (c *Cache) SetSessionStatus(session string, snap StatusSnapshot, ttl time.Duration) {
	c.Set(KeyFromStrings(statusKeyPrefix, session), snap, ttl)
}

// GetSessionStatus returns the cached snapshot for a session, if fresh.
func (c *Cache) GetSessionStatus(session string) (StatusSnapshot, bool) {
	v, ok := c.Get(KeyFromStrings(statusKeyPrefix, session))
	if !ok {
		return StatusSnapshot{}, false
	}
	snap, ok := v.(StatusSnapshot)
	return snap, ok
}

// InvalidateSessionStatus drops the cached snapshot, used after session
// control actions so the next poll reflects the new state immediately.
func (c *Cache) InvalidateSessionStatus(session string) {
	c.Delete(KeyFromStrings(statusKeyPrefix, session))
}
