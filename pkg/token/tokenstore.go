package tokenstore

import (
	"sync"
	"time"
)

// In-memory jti revocation store. Entries expire with the token itself so
// the map cannot grow for the whole process lifetime. For multi-instance
// deployments use Redis or DB instead.

const defaultTTL = 24 * time.Hour // matches token expiry

var (
	mu      sync.RWMutex
	revoked = map[string]time.Time{}
)

func RevokeToken(jti string) {
	if jti == "" {
		return
	}
	now := time.Now()
	mu.Lock()
	defer mu.Unlock()
	revoked[jti] = now.Add(defaultTTL)
	// opportunistic sweep of expired entries
	for k, exp := range revoked {
		if exp.Before(now) {
			delete(revoked, k)
		}
	}
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	mu.RLock()
	defer mu.RUnlock()
	exp, ok := revoked[jti]
	return ok && exp.After(time.Now())
}
