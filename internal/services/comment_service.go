package services

import (
	"context"

	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/lunaro-social/backend/pkg/publicid"
	"github.com/rs/zerolog"
)

// CommentService implements threaded comments with one level of nesting.
// Creating a comment moves the post's comment counter with the insert;
// deleting a top-level comment soft-deletes its replies in the same
// transaction and moves the counter by exactly the number of rows marked.
type CommentService struct {
	store    repositories.Store
	guard    CounterGuard
	notifier Notifier
	log      zerolog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(store repositories.Store, notifier Notifier, log zerolog.Logger) *CommentService {
	return &CommentService{store: store, notifier: notifier, log: log}
}

// Create adds a comment to a post, optionally as a reply to a top-level
// comment. Replying to a reply is rejected: the thread depth is capped at
// one level.
func (s *CommentService) Create(ctx context.Context, postPublicID string, authorID uint, content string, parentPublicID *string) (*models.Comment, error) {
	if authorID == 0 {
		return nil, Unauthorized("not authenticated")
	}

	var (
		comment      *models.Comment
		post         *models.Post
		parentAuthor uint
	)
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		var err error
		post, err = tx.Posts().GetPostByPublicID(ctx, postPublicID)
		if err != nil {
			return notFoundOrStorage(err, "post not found")
		}
		if !post.AllowComments {
			return BadRequest("comments are disabled for this post")
		}

		var parentID *uint
		if parentPublicID != nil {
			parent, err := tx.Comments().GetCommentByPublicID(ctx, *parentPublicID)
			if err != nil {
				return notFoundOrStorage(err, "parent comment not found")
			}
			if parent.PostID != post.ID {
				return BadRequest("parent comment belongs to a different post")
			}
			if parent.ParentID != nil {
				return BadRequest("cannot reply to a reply; only one level of nesting is allowed")
			}
			parentID = &parent.ID
			parentAuthor = parent.AuthorID
		}

		comment = &models.Comment{
			PublicID: publicid.New(),
			PostID:   post.ID,
			AuthorID: authorID,
			ParentID: parentID,
			Content:  content,
		}
		if err := tx.Comments().CreateComment(ctx, comment); err != nil {
			return StorageError(err)
		}
		return s.guard.Adjust(ctx, tx, repositories.PostComments, post.ID, +1, false)
	})
	if err != nil {
		return nil, err
	}

	// Notification is best-effort and decoupled from the committed insert.
	if comment.ParentID != nil && parentAuthor != authorID {
		s.notifier.Dispatch(Event{
			Kind:        EventCommentReply,
			ActorID:     authorID,
			RecipientID: parentAuthor,
			TargetType:  "comment",
			TargetID:    comment.PublicID,
		})
	} else if comment.ParentID == nil && post.AuthorID != authorID {
		s.notifier.Dispatch(Event{
			Kind:        EventComment,
			ActorID:     authorID,
			RecipientID: post.AuthorID,
			TargetType:  "post",
			TargetID:    post.PublicID,
		})
	}
	return comment, nil
}

// Update edits a comment's content. Only the original author may edit, and
// editing never touches the post's comment counter.
func (s *CommentService) Update(ctx context.Context, commentPublicID string, authorID uint, content string) (*models.Comment, error) {
	if authorID == 0 {
		return nil, Unauthorized("not authenticated")
	}

	comment, err := s.store.Comments().GetCommentByPublicID(ctx, commentPublicID)
	if err != nil {
		return nil, notFoundOrStorage(err, "comment not found")
	}
	if comment.AuthorID != authorID {
		return nil, Forbidden("only the author may edit this comment")
	}

	comment.Content = content
	if err := s.store.Comments().UpdateComment(ctx, comment); err != nil {
		return nil, StorageError(err)
	}
	return comment, nil
}

// Delete soft-deletes a comment. The author or an admin may delete. When
// the target is top-level, every still-active reply is soft-deleted in the
// same transaction, and the post's comment counter drops by one plus the
// number of replies actually marked. The count comes from the reply
// update itself, so marked and counted rows cannot diverge.
func (s *CommentService) Delete(ctx context.Context, commentPublicID string, actorID uint, actorRole models.Role) error {
	if actorID == 0 {
		return Unauthorized("not authenticated")
	}

	var removed int64
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		comment, err := tx.Comments().GetCommentByPublicID(ctx, commentPublicID)
		if err != nil {
			return notFoundOrStorage(err, "comment not found")
		}
		if comment.AuthorID != actorID && actorRole != models.RoleAdmin {
			return Forbidden("only the author or an admin may delete this comment")
		}

		removed = 1
		if comment.ParentID == nil {
			replies, err := tx.Comments().SoftDeleteReplies(ctx, comment.ID)
			if err != nil {
				return StorageError(err)
			}
			removed += replies
		}
		if err := tx.Comments().SoftDeleteComment(ctx, comment.ID); err != nil {
			// A concurrent delete that commits first makes this a stale
			// request, not a storage fault.
			return notFoundOrStorage(err, "comment not found")
		}
		return s.guard.Adjust(ctx, tx, repositories.PostComments, comment.PostID, -int(removed), false)
	})
	if err != nil {
		return err
	}

	if removed > 1 {
		s.log.Debug().
			Str("comment_id", commentPublicID).
			Int64("replies_removed", removed-1).
			Msg("cascade soft-deleted replies")
	}
	return nil
}

// ListByPost returns the active comments of a post, oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postPublicID string) ([]models.Comment, error) {
	post, err := s.store.Posts().GetPostByPublicID(ctx, postPublicID)
	if err != nil {
		return nil, notFoundOrStorage(err, "post not found")
	}
	comments, err := s.store.Comments().GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return nil, StorageError(err)
	}
	return comments, nil
}
