package cache

import (
	"context"
	"time"
)

const revokedPrefix = "jwt:revoked:"

// Revoke 记录已注销的 jti，TTL 与 token 剩余有效期一致
func (c *Cache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return c.RDB.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.RDB.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
