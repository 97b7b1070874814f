package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/quillfeed/quillfeed/internal/model"
	"github.com/quillfeed/quillfeed/internal/repository"
	"github.com/quillfeed/quillfeed/internal/stream"
)

// Reconciler maps domain lifecycle events onto fan-out jobs. The write
// path calls these methods after its transaction commits, so every job
// observes the row it was enqueued for. The methods themselves only
// extract arguments and enqueue; all storage reads happen inside jobs.
type Reconciler struct {
	streams  *stream.Set
	users    repository.UserRepository
	statuses repository.StatusRepository
	queue    Queue
}

func NewReconciler(streams *stream.Set, users repository.UserRepository, statuses repository.StatusRepository, queue Queue) *Reconciler {
	return &Reconciler{streams: streams, users: users, statuses: statuses, queue: queue}
}

// StatusPublished fans a freshly created status out to all categories.
// Publishing a boost also retracts the boosted original and any earlier
// boosts of it, so each feed carries at most one entry per underlying
// status.
func (r *Reconciler) StatusPublished(status *model.Status) {
	if status == nil {
		return
	}
	if status.Deleted {
		r.StatusDeleted(status)
		return
	}
	r.enqueueAdd(status.ID)
	if status.IsBoost() {
		originalID := *status.BoostOfID
		createdAt := status.CreatedAt
		r.queue.Enqueue(Job{
			Name: "collapse_boost",
			Run: func(ctx context.Context) error {
				return r.collapseBoost(ctx, originalID, createdAt)
			},
		})
	}
}

// StatusDeleted retracts a status from all categories. Deleting a boost
// re-surfaces the boosted original.
func (r *Reconciler) StatusDeleted(status *model.Status) {
	if status == nil {
		return
	}
	r.enqueueRemove(status.ID)
	if status.IsBoost() {
		r.enqueueAdd(*status.BoostOfID)
	}
}

// Followed backfills the followee's history into the follower's home feed.
// Only home: local and federated don't depend on the follow graph.
func (r *Reconciler) Followed(followerID, followeeID string) {
	home, ok := r.streams.Get(stream.HomeKey)
	if !ok {
		return
	}
	r.queue.Enqueue(Job{
		Name: "add_user_statuses:" + home.Key(),
		Run: func(ctx context.Context) error {
			return r.forLocalViewer(ctx, followerID, func(ctx context.Context) error {
				return home.AddUserStatuses(ctx, followerID, followeeID)
			})
		},
	})
}

// Unfollowed drops the ex-followee's statuses from the follower's home feed.
func (r *Reconciler) Unfollowed(followerID, followeeID string) {
	home, ok := r.streams.Get(stream.HomeKey)
	if !ok {
		return
	}
	r.queue.Enqueue(Job{
		Name: "remove_user_statuses:" + home.Key(),
		Run: func(ctx context.Context) error {
			return r.forLocalViewer(ctx, followerID, func(ctx context.Context) error {
				return home.RemoveUserStatuses(ctx, followerID, followeeID)
			})
		},
	})
}

// Blocked scrubs both parties' statuses from each other's feeds across
// every category, whichever side initiated the block.
func (r *Reconciler) Blocked(userID, targetID string) {
	r.enqueueUserHistoryRemove(userID, targetID, r.streams.All())
	r.enqueueUserHistoryRemove(targetID, userID, r.streams.All())
}

// Unblocked restores both parties' visible statuses to the local and
// federated feeds. Home stays out: visibility there still requires an
// actual follow.
func (r *Reconciler) Unblocked(userID, targetID string) {
	var subset []*stream.Stream
	for _, key := range []string{stream.LocalKey, stream.FederatedKey} {
		if st, ok := r.streams.Get(key); ok {
			subset = append(subset, st)
		}
	}
	r.enqueueUserHistoryAdd(userID, targetID, subset)
	r.enqueueUserHistoryAdd(targetID, userID, subset)
}

// UserCreated cold-starts every category feed for a new local account.
func (r *Reconciler) UserCreated(userID string) {
	r.queue.Enqueue(Job{
		Name: "populate",
		Run: func(ctx context.Context) error {
			return r.forLocalViewer(ctx, userID, func(ctx context.Context) error {
				for _, st := range r.streams.All() {
					if err := st.Populate(ctx, userID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})
}

func (r *Reconciler) enqueueAdd(statusID string) {
	for _, st := range r.streams.All() {
		st := st
		r.queue.Enqueue(Job{
			Name: "add_status:" + st.Key(),
			Run:  func(ctx context.Context) error { return st.AddStatus(ctx, statusID) },
		})
	}
}

func (r *Reconciler) enqueueRemove(statusID string) {
	for _, st := range r.streams.All() {
		st := st
		r.queue.Enqueue(Job{
			Name: "remove_status:" + st.Key(),
			Run:  func(ctx context.Context) error { return st.RemoveStatus(ctx, statusID) },
		})
	}
}

func (r *Reconciler) enqueueUserHistoryRemove(viewerID, authorID string, streams []*stream.Stream) {
	r.queue.Enqueue(Job{
		Name: "remove_user_statuses",
		Run: func(ctx context.Context) error {
			return r.forLocalViewer(ctx, viewerID, func(ctx context.Context) error {
				for _, st := range streams {
					if err := st.RemoveUserStatuses(ctx, viewerID, authorID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})
}

func (r *Reconciler) enqueueUserHistoryAdd(viewerID, authorID string, streams []*stream.Stream) {
	r.queue.Enqueue(Job{
		Name: "add_user_statuses",
		Run: func(ctx context.Context) error {
			return r.forLocalViewer(ctx, viewerID, func(ctx context.Context) error {
				for _, st := range streams {
					if err := st.AddUserStatuses(ctx, viewerID, authorID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})
}

// collapseBoost retracts the boosted original and all boosts of it created
// strictly before the new boost, across every category.
func (r *Reconciler) collapseBoost(ctx context.Context, originalID string, before time.Time) error {
	earlier, err := r.statuses.EarlierBoostsOf(ctx, originalID, before)
	if err != nil {
		return err
	}
	ids := append([]string{originalID}, earlier...)
	for _, st := range r.streams.All() {
		for _, id := range ids {
			if err := st.RemoveStatus(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// forLocalViewer runs fn only when the viewer is a local account. A viewer
// that vanished between event and job makes the job a no-op.
func (r *Reconciler) forLocalViewer(ctx context.Context, viewerID string, fn func(ctx context.Context) error) error {
	viewer, err := r.users.GetByID(ctx, viewerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !viewer.Local {
		return nil
	}
	return fn(ctx)
}
