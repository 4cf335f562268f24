package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// emailIndexKey: member = email, score = uid (sorted set donde el score
// codifica el uid).
const emailIndexKey = "email:uid"

// RedisIndexes implementa IndexStore sobre redis.
type RedisIndexes struct {
	client *redis.Client
	prefix string
}

func NewRedisIndexes(client *redis.Client, prefix string) *RedisIndexes {
	return &RedisIndexes{client: client, prefix: prefix}
}

func (s *RedisIndexes) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// parseUID: solo uids positivos cuentan como mapeo válido.
func parseUID(v string) (int64, bool) {
	uid, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || uid <= 0 {
		return 0, false
	}
	return uid, true
}

func (s *RedisIndexes) UIDByExternalID(ctx context.Context, namespace, externalID string) (int64, bool, error) {
	v, err := s.client.HGet(ctx, s.key(namespace+":uid"), externalID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	uid, ok := parseUID(v)
	return uid, ok, nil
}

func (s *RedisIndexes) UIDByEmail(ctx context.Context, email string) (int64, bool, error) {
	score, err := s.client.ZScore(ctx, s.key(emailIndexKey), email).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	uid := int64(score)
	if uid <= 0 {
		return 0, false, nil
	}
	return uid, true, nil
}

func (s *RedisIndexes) LinkExternalID(ctx context.Context, namespace, externalID string, uid int64) error {
	return s.client.HSet(ctx, s.key(namespace+":uid"), externalID, strconv.FormatInt(uid, 10)).Err()
}

func (s *RedisIndexes) LinkEmail(ctx context.Context, email string, uid int64) error {
	return s.client.ZAdd(ctx, s.key(emailIndexKey), redis.Z{
		Score:  float64(uid),
		Member: email,
	}).Err()
}

func (s *RedisIndexes) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
