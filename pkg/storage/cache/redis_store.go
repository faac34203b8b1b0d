package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"opvault/pkg/core"
	"opvault/pkg/storage"
	"opvault/pkg/types"

	"github.com/redis/go-redis/v9"
)

// CachedStore 是一个装饰器，它为底层的 storage.Store 添加 Redis 存在性缓存
// 典型场景：对象桶在 S3 上，多个工作站并发推送时靠它把 Has 压到毫秒级
type CachedStore struct {
	backend storage.Store // 被装饰的底层存储 (如 S3)
	client  *redis.Client
	ttl     time.Duration
}

type Config struct {
	RedisURL string        // 标准连接字符串: redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // 缓存过期时间 (例如 24h)
}

func NewCachedStore(backend storage.Store, cfg Config) (*CachedStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Fail-fast 连接检查
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &CachedStore{
		backend: backend,
		client:  client,
		ttl:     cfg.TTL,
	}, nil
}

// cacheKey 生成 Redis Key，添加前缀防止冲突
func (s *CachedStore) cacheKey(hash string) string {
	return "ov:obj:" + hash
}

// Has 优先查 Redis
func (s *CachedStore) Has(ctx context.Context, hash string) (bool, error) {
	key := s.cacheKey(hash)

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		// 缓存故障降级：Redis 挂了就退化为无缓存模式，直接查底层
		slog.Warn("redis existence check failed, falling back", "err", err)
	} else if val > 0 {
		return true, nil
	}

	// Cache Miss，查底层存储
	found, err := s.backend.Has(ctx, hash)
	if err != nil {
		return false, err
	}

	// 缓存回填：异步写入，不阻塞主流程
	// 使用 context.Background() 确保即使上层 ctx 取消，回填也能完成
	if found {
		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.client.Set(fillCtx, key, "1", s.ttl)
		}()
	}

	return found, nil
}

// Put 上传记录。利用 Has 的缓存能力进行预检。
func (s *CachedStore) Put(ctx context.Context, obj core.Object) error {
	exists, err := s.Has(ctx, obj.ID())
	if err != nil {
		return err
	}
	if exists {
		return nil // 幂等性：已存在
	}

	if err := s.backend.Put(ctx, obj); err != nil {
		return err
	}

	// 只有底层写成功了才写 Redis；这里的 Set 错误可以忽略
	s.client.Set(ctx, s.cacheKey(obj.ID()), "1", s.ttl)

	return nil
}

// Get 透传 - 不缓存记录内容
// 原因：View/Tree 记录可能很大，Redis 内存宝贵，只存 Existence 性价比最高
func (s *CachedStore) Get(ctx context.Context, hash string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, hash)
}

// ExpandHash 透传
func (s *CachedStore) ExpandHash(ctx context.Context, short types.HashPrefix) (string, error) {
	return s.backend.ExpandHash(ctx, short)
}
