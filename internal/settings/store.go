package settings

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// hashKey es la key del hash de settings en redis.
const hashKey = "session-sharing:settings"

// Store persiste los settings del bridge como mapa plano.
type Store interface {
	// Fetch retorna todos los settings guardados. Mapa vacío si no hay nada.
	Fetch(ctx context.Context) (map[string]string, error)
	// Save guarda (merge) los pares dados. No borra claves ausentes.
	Save(ctx context.Context, values map[string]string) error
}

// RedisStore guarda los settings en un hash de redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key() string {
	if s.prefix == "" {
		return hashKey
	}
	return s.prefix + ":" + hashKey
}

func (s *RedisStore) Fetch(ctx context.Context) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *RedisStore) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]any, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	return s.client.HSet(ctx, s.key(), args...).Err()
}

// MemStore es un Store en memoria para desarrollo y tests.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{values: map[string]string{}}
}

func (s *MemStore) Fetch(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) Save(ctx context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}
