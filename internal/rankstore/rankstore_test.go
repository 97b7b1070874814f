package rankstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client)
}

func TestTopNOrdersByScoreDesc(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddScoredBatch(ctx, "k", []Member{
		{ID: "a", Score: 1},
		{ID: "b", Score: 3},
		{ID: "c", Score: 2},
	}))
	got, err := s.TopN(ctx, "k", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestReAddRescores(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddScored(ctx, "k", "a", 1))
	require.NoError(t, s.AddScored(ctx, "k", "b", 2))
	require.NoError(t, s.AddScored(ctx, "k", "a", 3))
	got, err := s.TopN(ctx, "k", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestTrimKeepsHighestScored(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddScoredBatch(ctx, "k", []Member{
		{ID: "a", Score: 1}, {ID: "b", Score: 2}, {ID: "c", Score: 3}, {ID: "d", Score: 4},
	}))
	require.NoError(t, s.Trim(ctx, "k", 2))
	got, err := s.TopN(ctx, "k", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c"}, got)
}

func TestRemoveBatchIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddScoredBatch(ctx, "k", []Member{{ID: "a", Score: 1}, {ID: "b", Score: 2}}))
	require.NoError(t, s.RemoveBatch(ctx, "k", []string{"a", "missing"}))
	require.NoError(t, s.RemoveBatch(ctx, "k", []string{"a"}))
	got, err := s.TopN(ctx, "k", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got)
}

func TestCounters(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	n, err := s.GetInt(ctx, "c")
	require.NoError(t, err)
	assert.Zero(t, n, "missing counter reads as zero")

	require.NoError(t, s.Incr(ctx, "c"))
	require.NoError(t, s.Incr(ctx, "c"))
	n, err = s.GetInt(ctx, "c")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, s.Set(ctx, "c", 0))
	n, err = s.GetInt(ctx, "c")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPipelineAppliesAllMutations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	pipe := s.Pipeline()
	pipe.AddScored(ctx, "feed1", "s1", 1)
	pipe.AddScored(ctx, "feed2", "s1", 1)
	pipe.Incr(ctx, "feed1-unread")
	pipe.Incr(ctx, "feed2-unread")
	require.NoError(t, pipe.Exec(ctx))

	for _, key := range []string{"feed1", "feed2"} {
		got, err := s.TopN(ctx, key, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, got)
		n, err := s.GetInt(ctx, key+"-unread")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	}
}
