package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quillfeed/quillfeed/internal/model"
	"github.com/quillfeed/quillfeed/internal/rankstore"
	"github.com/quillfeed/quillfeed/internal/repository"
	"github.com/quillfeed/quillfeed/internal/service"
	"github.com/quillfeed/quillfeed/internal/stream"
	"github.com/quillfeed/quillfeed/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

// Self-contained fan-out throughput bench: one author, N followers, POSTS
// public statuses fanned out across the default category set.
func main() {
	N := envInt("N", 5000)
	POSTS := envInt("POSTS", 100)
	WORKERS := envInt("WORKERS", 8)

	db := must(gorm.Open(sqlite.Open(":memory:"), &gorm.Config{}))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}
	mr := must(miniredis.Run())
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	ranks := rankstore.New(rdb)
	userRepo := repository.NewUserRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	followRepo := repository.NewFollowRepository(db)

	streams := stream.NewDefaultSet(ranks, userRepo, statusRepo, stream.DefaultMaxLength)
	queue := service.NewWorkerQueue(100000, 3)
	stop := queue.Start(WORKERS)
	defer stop(ctx)
	reconciler := service.NewReconciler(streams, userRepo, statusRepo, queue)
	statusService := service.NewStatusService(statusRepo, reconciler)

	author := &model.User{ID: "author0", Username: "author0", Local: true, Active: true}
	if err := userRepo.Create(ctx, author); err != nil {
		panic(err)
	}
	for i := 0; i < N; i++ {
		id := fmt.Sprintf("u%06d", i)
		if err := userRepo.Create(ctx, &model.User{ID: id, Username: id, Local: true, Active: true}); err != nil {
			panic(err)
		}
		if err := followRepo.Create(ctx, id, author.ID); err != nil {
			panic(err)
		}
	}

	// publish and wait for the add jobs to land; each publish enqueues one
	// add job per category
	perPost := len(streams.All())
	pubDurations := make([]time.Duration, 0, POSTS)
	for i := 0; i < POSTS; i++ {
		st := time.Now()
		_ = must(statusService.Publish(ctx, service.PublishInput{
			AuthorID: author.ID,
			Payload:  fmt.Sprintf("hello %d", i),
			Privacy:  model.PrivacyPublic,
		}))
		pubDurations = append(pubDurations, time.Since(st))
	}

	want := POSTS * perPost
	land := make([]time.Duration, 0, want)
	timeout := time.After(2 * time.Minute)
	for len(land) < want {
		select {
		case d := <-queue.Metrics():
			land = append(land, d)
		case <-timeout:
			fmt.Printf("timeout waiting for fanout metrics: got=%d want=%d\n", len(land), want)
			goto PRINT
		}
	}

PRINT:
	var pubSum time.Duration
	for _, d := range pubDurations {
		pubSum += d
	}
	fmt.Printf("N=%d POSTS=%d WORKERS=%d\n", N, POSTS, WORKERS)
	fmt.Printf("Publish latency: avg=%v p95=%v p99=%v\n", pubSum/time.Duration(len(pubDurations)), pct(pubDurations, 0.95), pct(pubDurations, 0.99))
	var landSum time.Duration
	for _, d := range land {
		landSum += d
	}
	if len(land) > 0 {
		fmt.Printf("Fanout landing (enqueue->done): samples=%d avg=%v p95=%v p99=%v\n", len(land), landSum/time.Duration(len(land)), pct(land, 0.95), pct(land, 0.99))
	}

	// read one follower's home feed
	home, _ := streams.Get(stream.HomeKey)
	st := time.Now()
	ids := must(home.Feed(ctx, "u000000", 50))
	fmt.Printf("Home feed read (u000000, limit=50): %v, rows=%d\n", time.Since(st), len(ids))
}
