package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quillfeed/quillfeed/internal/model"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Status{}, &model.Mention{}, &model.Follow{}, &model.Block{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string, local bool) {
	t.Helper()
	require.NoError(t, db.Create(&model.User{ID: id, Username: id, Local: local, Active: true}).Error)
}

func seedStatus(t *testing.T, repo StatusRepository, authorID, privacy string, publishedAt time.Time, mentions ...string) *model.Status {
	t.Helper()
	s := &model.Status{ID: uuid.New().String(), AuthorID: authorID, Privacy: privacy, PublishedAt: publishedAt}
	require.NoError(t, repo.Create(context.Background(), s, mentions))
	return s
}

func TestVisibleToPrivacyLevels(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewStatusRepository(db)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedUser(t, db, "viewer", true)

	now := time.Now()
	pub := seedStatus(t, repo, "author", model.PrivacyPublic, now)
	unl := seedStatus(t, repo, "author", model.PrivacyUnlisted, now.Add(time.Second))
	fol := seedStatus(t, repo, "author", model.PrivacyFollowers, now.Add(2*time.Second))
	seedStatus(t, repo, "author", model.PrivacyDirect, now.Add(3*time.Second))

	// not a follower: followers-only stays hidden
	got, err := repo.VisibleTo(ctx, "viewer", VisibilityScope{
		Levels: []string{model.PrivacyPublic, model.PrivacyUnlisted, model.PrivacyFollowers},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{unl.ID, pub.ID}, statusIDs(got))

	// following unlocks followers-only, newest first
	require.NoError(t, NewFollowRepository(db).Create(ctx, "viewer", "author"))
	got, err = repo.VisibleTo(ctx, "viewer", VisibilityScope{
		Levels: []string{model.PrivacyPublic, model.PrivacyUnlisted, model.PrivacyFollowers},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{fol.ID, unl.ID, pub.ID}, statusIDs(got))
}

func TestVisibleToExcludesBlockedAndDeleted(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewStatusRepository(db)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedUser(t, db, "viewer", true)

	s1 := seedStatus(t, repo, "author", model.PrivacyPublic, time.Now())
	s2 := seedStatus(t, repo, "author", model.PrivacyPublic, time.Now().Add(time.Second))
	require.NoError(t, repo.MarkDeleted(ctx, s2.ID))

	got, err := repo.VisibleTo(ctx, "viewer", VisibilityScope{Levels: []string{model.PrivacyPublic}})
	require.NoError(t, err)
	assert.Equal(t, []string{s1.ID}, statusIDs(got))

	// block in either direction hides everything
	require.NoError(t, NewBlockRepository(db).Create(ctx, "author", "viewer"))
	got, err = repo.VisibleTo(ctx, "viewer", VisibilityScope{Levels: []string{model.PrivacyPublic}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVisibleToScopeRestrictions(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewStatusRepository(db)
	ctx := context.Background()
	seedUser(t, db, "local-author", true)
	seedUser(t, db, "remote-author", false)
	seedUser(t, db, "viewer", true)

	now := time.Now()
	localPost := seedStatus(t, repo, "local-author", model.PrivacyPublic, now)
	remotePost := seedStatus(t, repo, "remote-author", model.PrivacyPublic, now.Add(time.Second))

	got, err := repo.VisibleTo(ctx, "viewer", VisibilityScope{Levels: []string{model.PrivacyPublic}, LocalAuthorsOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{localPost.ID}, statusIDs(got))

	require.NoError(t, NewFollowRepository(db).Create(ctx, "viewer", "remote-author"))
	got, err = repo.VisibleTo(ctx, "viewer", VisibilityScope{Levels: []string{model.PrivacyPublic}, FollowingOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{remotePost.ID}, statusIDs(got))

	got, err = repo.VisibleTo(ctx, "viewer", VisibilityScope{Levels: []string{model.PrivacyPublic}, AuthorID: "local-author"})
	require.NoError(t, err)
	assert.Equal(t, []string{localPost.ID}, statusIDs(got))
}

func TestVisibleToLimit(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewStatusRepository(db)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedUser(t, db, "viewer", true)

	base := time.Now()
	var last *model.Status
	for i := 0; i < 5; i++ {
		last = seedStatus(t, repo, "author", model.PrivacyPublic, base.Add(time.Duration(i)*time.Second))
	}
	got, err := repo.VisibleTo(ctx, "viewer", VisibilityScope{Levels: []string{model.PrivacyPublic}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, last.ID, got[0].ID)
}

func TestEarlierBoostsOf(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewStatusRepository(db)
	ctx := context.Background()
	seedUser(t, db, "author", true)

	original := seedStatus(t, repo, "author", model.PrivacyPublic, time.Now())
	b1 := &model.Status{ID: uuid.New().String(), AuthorID: "author", Privacy: model.PrivacyPublic, BoostOfID: &original.ID, PublishedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, b1, nil))
	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()

	got, err := repo.EarlierBoostsOf(ctx, original.ID, cutoff)
	require.NoError(t, err)
	assert.Equal(t, []string{b1.ID}, got)

	got, err = repo.EarlierBoostsOf(ctx, original.ID, b1.CreatedAt)
	require.NoError(t, err)
	assert.Empty(t, got, "strictly earlier only")
}

func statusIDs(statuses []*model.Status) []string {
	ids := make([]string, len(statuses))
	for i, s := range statuses {
		ids[i] = s.ID
	}
	return ids
}
