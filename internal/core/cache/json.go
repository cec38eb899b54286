package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			// 不缓存错误（包括 not found），避免删除后的可见性问题
			return nil, e
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil {
		return nil, e
	}
	return &out, nil
}

// Entity 按 id 缓存单个实体：key = prefix:id
type Entity[T any] struct {
	c      *Cache
	prefix string
	ttl    time.Duration
}

func NewEntity[T any](c *Cache, prefix string, ttl time.Duration) *Entity[T] {
	return &Entity[T]{c: c, prefix: prefix, ttl: ttl}
}

func (e *Entity[T]) key(id uint) string { return fmt.Sprintf("%s:%d", e.prefix, id) }

func (e *Entity[T]) Get(ctx context.Context, id uint, load func(ctx context.Context) (*T, error)) (*T, error) {
	return GetOrLoadJSON(e.c, ctx, e.key(id), e.ttl, load)
}

func (e *Entity[T]) Invalidate(ctx context.Context, id uint) error {
	return e.c.Del(ctx, e.key(id))
}
