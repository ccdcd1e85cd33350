package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a CacheBackend when a key is absent.
var ErrCacheMiss = errors.New("embeddings: cache miss")

// CacheBackend stores encoded vectors by key.
type CacheBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisBackend is a CacheBackend over a go-redis client.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to url, which may be a redis:// URL or a plain
// host:port, and pings it.
func NewRedisBackend(ctx context.Context, url string) (*RedisBackend, error) {
	var opts *redis.Options
	if parsed, err := redis.ParseURL(url); err == nil {
		opts = parsed
	} else {
		opts = &redis.Options{Addr: url}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisBackend{client: client}, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return val, err
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the redis client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// CachedEmbedder serves repeated texts from a cache and only sends misses
// to the wrapped embedder. Cache errors are logged and treated as misses.
type CachedEmbedder struct {
	next    Embedder
	backend CacheBackend
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCachedEmbedder wraps next. A zero ttl stores entries without expiry.
func NewCachedEmbedder(next Embedder, backend CacheBackend, ttl time.Duration, logger *slog.Logger) *CachedEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{next: next, backend: backend, ttl: ttl, logger: logger}
}

func (c *CachedEmbedder) Name() string    { return c.next.Name() }
func (c *CachedEmbedder) Dimensions() int { return c.next.Dimensions() }

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		raw, err := c.backend.Get(ctx, c.key(text))
		if err == nil {
			if vec, ok := decodeVector(raw); ok {
				out[i] = vec
				continue
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("embedding cache read failed", "model", c.next.Name(), "error", err)
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("%s returned %d embeddings, expected %d", c.next.Name(), len(vecs), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = vecs[j]
		if err := c.backend.Set(ctx, c.key(missTexts[j]), encodeVector(vecs[j]), c.ttl); err != nil {
			c.logger.Warn("embedding cache write failed", "model", c.next.Name(), "error", err)
		}
	}
	return out, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "thera:emb:" + c.next.Name() + ":" + hex.EncodeToString(sum[:])
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, bool) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, true
}
