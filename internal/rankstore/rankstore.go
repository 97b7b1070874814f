package rankstore

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Member pairs a ranked-set member with its score.
type Member struct {
	ID    string
	Score float64
}

// Store exposes the ranked-set and counter primitives the feed layer is
// built on. Keys are owned by the caller; the store is pure transport.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store { return &Store{client: client} }

func (s *Store) AddScored(ctx context.Context, key, member string, score float64) error {
	return s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (s *Store) AddScoredBatch(ctx context.Context, key string, members []Member) error {
	if len(members) == 0 {
		return nil
	}
	zs := make([]redis.Z, len(members))
	for i, m := range members {
		zs[i] = redis.Z{Score: m.Score, Member: m.ID}
	}
	return s.client.ZAdd(ctx, key, zs...).Err()
}

func (s *Store) Remove(ctx context.Context, key, member string) error {
	return s.client.ZRem(ctx, key, member).Err()
}

func (s *Store) RemoveBatch(ctx context.Context, key string, members []string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.ZRem(ctx, key, args...).Err()
}

// TopN returns up to n members ordered by descending score.
func (s *Store) TopN(ctx context.Context, key string, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.client.ZRevRange(ctx, key, 0, n-1).Result()
}

// Trim drops the lowest-scored members so at most max remain.
func (s *Store) Trim(ctx context.Context, key string, max int64) error {
	if max <= 0 {
		return nil
	}
	return s.client.ZRemRangeByRank(ctx, key, 0, -(max + 1)).Err()
}

func (s *Store) Incr(ctx context.Context, key string) error {
	return s.client.Incr(ctx, key).Err()
}

// GetInt reads an integer counter; a missing key reads as zero.
func (s *Store) GetInt(ctx context.Context, key string) (int64, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (s *Store) Set(ctx context.Context, key string, value int64) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

// Pipeline groups mutations into a single round trip. One fan-out of a
// status submits all per-viewer adds plus unread bumps as one pipeline.
func (s *Store) Pipeline() *Pipeline {
	return &Pipeline{pipe: s.client.Pipeline()}
}

type Pipeline struct {
	pipe redis.Pipeliner
}

func (p *Pipeline) AddScored(ctx context.Context, key, member string, score float64) {
	p.pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
}

func (p *Pipeline) Remove(ctx context.Context, key, member string) {
	p.pipe.ZRem(ctx, key, member)
}

func (p *Pipeline) RemoveBatch(ctx context.Context, key string, members []string) {
	if len(members) == 0 {
		return
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	p.pipe.ZRem(ctx, key, args...)
}

func (p *Pipeline) Incr(ctx context.Context, key string) {
	p.pipe.Incr(ctx, key)
}

func (p *Pipeline) Exec(ctx context.Context) error {
	_, err := p.pipe.Exec(ctx)
	return err
}
