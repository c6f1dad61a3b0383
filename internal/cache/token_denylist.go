package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist remembers signed-out tokens until they expire. Entries live
// in redis when a client is configured and in process memory otherwise.
type TokenDenylist struct {
	helper *CacheHelper
	now    func() time.Time

	mu    sync.Mutex
	local map[string]time.Time
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{
		helper: NewCacheHelper(client, SessionCacheConfig.Prefix),
		now:    time.Now,
		local:  make(map[string]time.Time),
	}
}

// TokenKey derives the storage key of a raw token
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Revoke denylists token until expiresAt
func (d *TokenDenylist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	key := TokenKey(token)

	if d.helper.Available() {
		if err := d.helper.SetString(ctx, key, "1", ttl); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.local[key] = expiresAt
	d.pruneLocked()
	return nil
}

// IsRevoked reports whether token was signed out
func (d *TokenDenylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	key := TokenKey(token)

	if d.helper.Available() {
		exists, err := d.helper.Exists(ctx, key)
		if err != nil {
			return false, fmt.Errorf("failed to check token revocation: %w", err)
		}
		return exists, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	expiresAt, ok := d.local[key]
	if !ok {
		return false, nil
	}
	if !d.now().Before(expiresAt) {
		delete(d.local, key)
		return false, nil
	}
	return true, nil
}

func (d *TokenDenylist) pruneLocked() {
	now := d.now()
	for key, expiresAt := range d.local {
		if !now.Before(expiresAt) {
			delete(d.local, key)
		}
	}
}
