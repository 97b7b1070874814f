package stream

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/quillfeed/quillfeed/internal/model"
	"github.com/quillfeed/quillfeed/internal/rankstore"
	"github.com/quillfeed/quillfeed/internal/repository"
)

// Policy parametrizes a stream category. The three shipped categories
// (home, local, federated) are just different values of this struct; the
// audience and population rules below are shared.
type Policy struct {
	// Key namespaces the category's ranked sets and counters.
	Key string
	// MaxLength caps how many statuses bulk (re)population materializes.
	// Incremental adds are not trimmed.
	MaxLength int
	// Levels is the privacy whitelist for bulk population.
	Levels []string
	// PublicOnly short-circuits fan-out to nothing for non-public statuses.
	PublicOnly bool
	// LocalAuthorsOnly restricts the category to statuses by local authors.
	LocalAuthorsOnly bool
	// FollowingOnly scopes population to authors the viewer follows.
	FollowingOnly bool
	// FollowersAudience restricts the audience to the author and the
	// author's followers even for public statuses (home is a "people you
	// follow" feed, not a discovery feed).
	FollowersAudience bool
}

// Stream is one feed category: a policy bound to the ranked store and the
// durable repositories it fans out from.
type Stream struct {
	policy   Policy
	ranks    *rankstore.Store
	users    repository.UserRepository
	statuses repository.StatusRepository
}

func New(policy Policy, ranks *rankstore.Store, users repository.UserRepository, statuses repository.StatusRepository) *Stream {
	return &Stream{policy: policy, ranks: ranks, users: users, statuses: statuses}
}

func (s *Stream) Key() string { return s.policy.Key }

// StreamKey is the ranked-set key for one viewer's instance of this feed.
func (s *Stream) StreamKey(viewerID string) string {
	return fmt.Sprintf("%s-%s", viewerID, s.policy.Key)
}

// UnreadKey is the counter key for the viewer's unread count on this feed.
func (s *Stream) UnreadKey(viewerID string) string {
	return s.StreamKey(viewerID) + "-unread"
}

// score feeds sort by publication time, newest first on read.
func score(status *model.Status) float64 {
	return float64(status.PublishedAt.UnixMilli())
}

// Audience resolves which viewers this status reaches under the category
// policy. Missing authors or statuses resolve to an empty audience: it is
// always safe to show a status to nobody.
func (s *Stream) Audience(ctx context.Context, status *model.Status) ([]string, error) {
	// plain DMs appear in no feed; direct boosts of a shared object still
	// reach the author and mentioned users
	if status.IsDirectMessage() {
		return nil, nil
	}
	if s.policy.PublicOnly && status.Privacy != model.PrivacyPublic {
		return nil, nil
	}
	if s.policy.LocalAuthorsOnly {
		author, err := s.users.GetByID(ctx, status.AuthorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !author.Local {
			return nil, nil
		}
	}
	opts := repository.AudienceOptions{AuthorID: status.AuthorID}
	switch status.Privacy {
	case model.PrivacyDirect:
		opts.MentionedInID = status.ID
	case model.PrivacyFollowers:
		opts.FollowersOnly = true
	}
	if s.policy.FollowersAudience {
		opts.FollowersOnly = true
	}
	return s.users.Audience(ctx, opts)
}

// AddStatus fans a status out to every audience member's feed and bumps
// their unread counters. All per-viewer writes go out as one pipeline.
func (s *Stream) AddStatus(ctx context.Context, statusID string) error {
	status, err := s.statuses.GetByID(ctx, statusID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// vanished between event and job, nothing to fan out
		return nil
	}
	if err != nil {
		return err
	}
	if status.Deleted {
		return nil
	}
	audience, err := s.Audience(ctx, status)
	if err != nil {
		return err
	}
	if len(audience) == 0 {
		return nil
	}
	pipe := s.ranks.Pipeline()
	for _, viewerID := range audience {
		pipe.AddScored(ctx, s.StreamKey(viewerID), status.ID, score(status))
		pipe.Incr(ctx, s.UnreadKey(viewerID))
	}
	return pipe.Exec(ctx)
}

// RemoveStatus retracts a status from every materialized feed in this
// category, not just the current audience, so a viewer whose access was
// since revoked loses their stale copy too. Idempotent.
func (s *Stream) RemoveStatus(ctx context.Context, statusID string) error {
	viewers, err := s.users.LocalActiveIDs(ctx)
	if err != nil {
		return err
	}
	if len(viewers) == 0 {
		return nil
	}
	pipe := s.ranks.Pipeline()
	for _, viewerID := range viewers {
		pipe.Remove(ctx, s.StreamKey(viewerID), statusID)
	}
	return pipe.Exec(ctx)
}

// AddUserStatuses backfills the author's history into the viewer's feed,
// limited to what the viewer may currently see under this category. Bulk
// backfill is not new content, so unread counters stay untouched.
func (s *Stream) AddUserStatuses(ctx context.Context, viewerID, authorID string) error {
	scope := repository.VisibilityScope{
		Levels:           s.policy.Levels,
		FollowingOnly:    s.policy.FollowingOnly,
		LocalAuthorsOnly: s.policy.LocalAuthorsOnly,
		AuthorID:         authorID,
		Limit:            s.policy.MaxLength,
	}
	statuses, err := s.statuses.VisibleTo(ctx, viewerID, scope)
	if err != nil {
		return err
	}
	members := make([]rankstore.Member, len(statuses))
	for i, st := range statuses {
		members[i] = rankstore.Member{ID: st.ID, Score: score(st)}
	}
	return s.ranks.AddScoredBatch(ctx, s.StreamKey(viewerID), members)
}

// RemoveUserStatuses drops every status by the author from the viewer's
// feed, including ones still visible by another path: a changed
// relationship must not leave possibly-unauthorized leftovers. Idempotent.
func (s *Stream) RemoveUserStatuses(ctx context.Context, viewerID, authorID string) error {
	ids, err := s.statuses.IDsByAuthor(ctx, authorID)
	if err != nil {
		return err
	}
	return s.ranks.RemoveBatch(ctx, s.StreamKey(viewerID), ids)
}

// Populate cold-starts the viewer's feed from scratch, capped at MaxLength.
func (s *Stream) Populate(ctx context.Context, viewerID string) error {
	scope := repository.VisibilityScope{
		Levels:           s.policy.Levels,
		FollowingOnly:    s.policy.FollowingOnly,
		LocalAuthorsOnly: s.policy.LocalAuthorsOnly,
		Limit:            s.policy.MaxLength,
	}
	statuses, err := s.statuses.VisibleTo(ctx, viewerID, scope)
	if err != nil {
		return err
	}
	members := make([]rankstore.Member, len(statuses))
	for i, st := range statuses {
		members[i] = rankstore.Member{ID: st.ID, Score: score(st)}
	}
	key := s.StreamKey(viewerID)
	if err := s.ranks.AddScoredBatch(ctx, key, members); err != nil {
		return err
	}
	return s.ranks.Trim(ctx, key, int64(s.policy.MaxLength))
}

// Feed reads the viewer's feed newest-first and resets the unread counter;
// a read is destructive to the unread count by design.
func (s *Stream) Feed(ctx context.Context, viewerID string, limit int) ([]string, error) {
	if err := s.ranks.Set(ctx, s.UnreadKey(viewerID), 0); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.policy.MaxLength {
		limit = s.policy.MaxLength
	}
	return s.ranks.TopN(ctx, s.StreamKey(viewerID), int64(limit))
}

// UnreadCount reports how many statuses were fanned out to the viewer
// since their last read. Approximate: removals do not decrement it.
func (s *Stream) UnreadCount(ctx context.Context, viewerID string) (int64, error) {
	return s.ranks.GetInt(ctx, s.UnreadKey(viewerID))
}
