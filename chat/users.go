package chat

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedUsers memoizes successful lookups.
type CachedUsers struct {
	next  UserLookup
	cache *lru.Cache[string, string]
}

// NewCachedUsers wraps next with an LRU of the given size.
func NewCachedUsers(next UserLookup, size int) (*CachedUsers, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedUsers{next: next, cache: cache}, nil
}

// DisplayName implements UserLookup.
func (c *CachedUsers) DisplayName(ctx context.Context, userID string) (string, error) {
	if name, ok := c.cache.Get(userID); ok {
		return name, nil
	}
	name, err := c.next.DisplayName(ctx, userID)
	if err != nil {
		return "", err
	}
	c.cache.Add(userID, name)
	return name, nil
}
