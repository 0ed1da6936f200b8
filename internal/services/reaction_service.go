package services

import (
	"context"
	"errors"

	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// errToggleRaced signals that a concurrent identical toggle won the insert.
// The unique index on the membership edge is the arbiter; the loser aborts
// its transaction and reports the current state as an idempotent success.
var errToggleRaced = errors.New("toggle raced with an identical request")

// ReactionService implements the toggle-style reactions: like, save
// (bookmark), follow. Each toggle flips a membership edge and its paired
// counter(s) inside one transaction, so the edge and the counter can never
// desynchronize, no matter how fast the same actor toggles.
type ReactionService struct {
	store    repositories.Store
	guard    CounterGuard
	notifier Notifier
	log      zerolog.Logger
}

// NewReactionService creates a new ReactionService
func NewReactionService(store repositories.Store, notifier Notifier, log zerolog.Logger) *ReactionService {
	return &ReactionService{store: store, notifier: notifier, log: log}
}

// ToggleLike flips the actor's like on a post and returns the post's
// like count after the flip.
func (s *ReactionService) ToggleLike(ctx context.Context, actorID uint, postPublicID string) (bool, int64, error) {
	if actorID == 0 {
		return false, 0, Unauthorized("not authenticated")
	}

	var (
		post  *models.Post
		liked bool
		count int64
	)
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		var err error
		post, err = tx.Posts().GetPostByPublicID(ctx, postPublicID)
		if err != nil {
			return notFoundOrStorage(err, "post not found")
		}

		has, err := tx.Likes().HasUserLikedPost(ctx, post.ID, actorID)
		if err != nil {
			return StorageError(err)
		}
		if has {
			removed, err := tx.Likes().DeleteLike(ctx, post.ID, actorID)
			if err != nil {
				return StorageError(err)
			}
			if removed {
				if err := s.guard.Adjust(ctx, tx, repositories.PostLikes, post.ID, -1, true); err != nil {
					return err
				}
			}
			liked = false
		} else {
			if err := tx.Likes().CreateLike(ctx, &models.Like{UserID: actorID, PostID: post.ID}); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errToggleRaced
				}
				return StorageError(err)
			}
			if err := s.guard.Adjust(ctx, tx, repositories.PostLikes, post.ID, +1, false); err != nil {
				return err
			}
			liked = true
		}

		count, err = s.guard.Value(ctx, tx, repositories.PostLikes, post.ID)
		return err
	})
	if errors.Is(err, errToggleRaced) {
		s.log.Debug().
			Uint("actor_id", actorID).
			Str("post_id", postPublicID).
			Msg("like toggle raced; reporting current state")
		liked = true
		count, err = s.guard.Value(ctx, s.store, repositories.PostLikes, post.ID)
	}
	if err != nil {
		return false, 0, err
	}

	if liked && post.AuthorID != actorID {
		s.notifier.Dispatch(Event{
			Kind:        EventLike,
			ActorID:     actorID,
			RecipientID: post.AuthorID,
			TargetType:  "post",
			TargetID:    post.PublicID,
		})
	}
	return liked, count, nil
}

// ToggleSave flips the actor's bookmark on a post. The post's save count
// and the actor's own saved count move together or not at all.
func (s *ReactionService) ToggleSave(ctx context.Context, actorID uint, postPublicID string) (bool, int64, error) {
	if actorID == 0 {
		return false, 0, Unauthorized("not authenticated")
	}

	var (
		post  *models.Post
		saved bool
		count int64
	)
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		var err error
		post, err = tx.Posts().GetPostByPublicID(ctx, postPublicID)
		if err != nil {
			return notFoundOrStorage(err, "post not found")
		}

		isSaved, err := tx.SavedPosts().IsPostSaved(ctx, actorID, post.ID)
		if err != nil {
			return StorageError(err)
		}
		if isSaved {
			removed, err := tx.SavedPosts().UnsavePost(ctx, actorID, post.ID)
			if err != nil {
				return StorageError(err)
			}
			if removed {
				if err := s.guard.Adjust(ctx, tx, repositories.PostSaves, post.ID, -1, true); err != nil {
					return err
				}
				if err := s.guard.Adjust(ctx, tx, repositories.UserSaved, actorID, -1, true); err != nil {
					return err
				}
			}
			saved = false
		} else {
			if err := tx.SavedPosts().SavePost(ctx, &models.SavedPost{UserID: actorID, PostID: post.ID}); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errToggleRaced
				}
				return StorageError(err)
			}
			if err := s.guard.Adjust(ctx, tx, repositories.PostSaves, post.ID, +1, false); err != nil {
				return err
			}
			if err := s.guard.Adjust(ctx, tx, repositories.UserSaved, actorID, +1, false); err != nil {
				return err
			}
			saved = true
		}

		count, err = s.guard.Value(ctx, tx, repositories.PostSaves, post.ID)
		return err
	})
	if errors.Is(err, errToggleRaced) {
		s.log.Debug().
			Uint("actor_id", actorID).
			Str("post_id", postPublicID).
			Msg("save toggle raced; reporting current state")
		saved = true
		count, err = s.guard.Value(ctx, s.store, repositories.PostSaves, post.ID)
	}
	if err != nil {
		return false, 0, err
	}
	return saved, count, nil
}

// ToggleFollow flips the actor's follow edge to another user and returns
// the target's follower count after the flip.
func (s *ReactionService) ToggleFollow(ctx context.Context, actorID, targetID uint) (bool, int64, error) {
	if actorID == 0 {
		return false, 0, Unauthorized("not authenticated")
	}
	if actorID == targetID {
		return false, 0, BadRequest("cannot follow yourself")
	}

	var (
		following bool
		count     int64
	)
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().GetUserByID(ctx, targetID); err != nil {
			return notFoundOrStorage(err, "user not found")
		}

		isFollowing, err := tx.Follows().IsFollowing(ctx, actorID, targetID)
		if err != nil {
			return StorageError(err)
		}
		if isFollowing {
			removed, err := tx.Follows().DeleteFollow(ctx, actorID, targetID)
			if err != nil {
				return StorageError(err)
			}
			if removed {
				if err := s.guard.Adjust(ctx, tx, repositories.UserFollowers, targetID, -1, true); err != nil {
					return err
				}
				if err := s.guard.Adjust(ctx, tx, repositories.UserFollowing, actorID, -1, true); err != nil {
					return err
				}
			}
			following = false
		} else {
			if err := tx.Follows().CreateFollow(ctx, &models.Follow{FollowerID: actorID, FollowingID: targetID}); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errToggleRaced
				}
				return StorageError(err)
			}
			if err := s.guard.Adjust(ctx, tx, repositories.UserFollowers, targetID, +1, false); err != nil {
				return err
			}
			if err := s.guard.Adjust(ctx, tx, repositories.UserFollowing, actorID, +1, false); err != nil {
				return err
			}
			following = true
		}

		count, err = s.guard.Value(ctx, tx, repositories.UserFollowers, targetID)
		return err
	})
	if errors.Is(err, errToggleRaced) {
		s.log.Debug().
			Uint("actor_id", actorID).
			Uint("target_id", targetID).
			Msg("follow toggle raced; reporting current state")
		following = true
		count, err = s.guard.Value(ctx, s.store, repositories.UserFollowers, targetID)
	}
	if err != nil {
		return false, 0, err
	}

	if following {
		s.notifier.Dispatch(Event{
			Kind:        EventFollow,
			ActorID:     actorID,
			RecipientID: targetID,
			TargetType:  "user",
		})
	}
	return following, count, nil
}
