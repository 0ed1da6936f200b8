package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/lunaro-social/backend/pkg/publicid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	// A reporter may create at most flagRateLimit flags inside the
	// trailing flagRateWindow.
	flagRateLimit  = 10
	flagRateWindow = time.Hour
)

// FlagService implements the flag ledger: user reports against posts or
// comments, and the admin review that resolves them. A review is a single
// transaction covering the status transition, the counter rollback, and
// any enforcement (content takedown, author block); a half-applied
// moderation action is worse than rejecting the whole review.
type FlagService struct {
	store    repositories.Store
	guard    CounterGuard
	notifier Notifier
	audit    repositories.AuditRepository
	log      zerolog.Logger
}

// NewFlagService creates a new FlagService
func NewFlagService(store repositories.Store, notifier Notifier, audit repositories.AuditRepository, log zerolog.Logger) *FlagService {
	return &FlagService{store: store, notifier: notifier, audit: audit, log: log}
}

// Create files a flag against exactly one post or comment. Validation,
// the rate limit, and the duplicate check run before any write; the flag
// insert and the target's flag-counter increment commit together. The
// composite unique index on (reporter, target) backstops the duplicate
// check against concurrent submissions.
func (s *FlagService) Create(ctx context.Context, reporterID uint, req models.CreateFlagRequest) (*models.Flag, error) {
	if reporterID == 0 {
		return nil, Unauthorized("not authenticated")
	}
	if (req.FlaggedPostID == nil) == (req.FlaggedCommentID == nil) {
		return nil, BadRequest("exactly one of flagged_post_id or flagged_comment_id must be set")
	}

	reporter, err := s.store.Users().GetUserByID(ctx, reporterID)
	if err != nil {
		return nil, notFoundOrStorage(err, "reporter not found")
	}
	if reporter.Blocked {
		return nil, Forbidden("blocked users cannot report content")
	}

	recent, err := s.store.Flags().CountByReporterSince(ctx, reporterID, time.Now().Add(-flagRateWindow))
	if err != nil {
		return nil, StorageError(err)
	}
	if recent >= flagRateLimit {
		return nil, BadRequest("too many reports; try again later")
	}

	flag := &models.Flag{
		PublicID:    publicid.New(),
		Category:    req.Category,
		Description: req.Description,
		Status:      models.FlagPending,
		ReporterID:  reporterID,
	}

	var targetCounter repositories.Counter
	var targetID uint
	if req.FlaggedPostID != nil {
		post, err := s.store.Posts().GetPostByPublicID(ctx, *req.FlaggedPostID)
		if err != nil {
			return nil, notFoundOrStorage(err, "post not found")
		}
		already, err := s.store.Flags().HasUserFlaggedPost(ctx, reporterID, post.ID)
		if err != nil {
			return nil, StorageError(err)
		}
		if already {
			return nil, BadRequest("you have already reported this post")
		}
		flag.FlaggedPostID = &post.ID
		targetCounter, targetID = repositories.PostFlags, post.ID
	} else {
		comment, err := s.store.Comments().GetCommentByPublicID(ctx, *req.FlaggedCommentID)
		if err != nil {
			return nil, notFoundOrStorage(err, "comment not found")
		}
		already, err := s.store.Flags().HasUserFlaggedComment(ctx, reporterID, comment.ID)
		if err != nil {
			return nil, StorageError(err)
		}
		if already {
			return nil, BadRequest("you have already reported this comment")
		}
		flag.FlaggedCommentID = &comment.ID
		targetCounter, targetID = repositories.CommentFlags, comment.ID
	}

	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		if err := tx.Flags().CreateFlag(ctx, flag); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return BadRequest("you have already reported this content")
			}
			return StorageError(err)
		}
		return s.guard.Adjust(ctx, tx, targetCounter, targetID, +1, false)
	})
	if err != nil {
		return nil, err
	}
	return flag, nil
}

// Review resolves a pending flag. Within one transaction: the review
// fields land on the flag through a status-conditioned update, the target's
// flag counter is rolled back iff that update moved the row out of pending,
// and the requested enforcement runs. The pending-to-resolved transition is
// decided by the conditional update itself, not by a prior read, so two
// concurrent reviews of the same flag can only roll the counter back once.
// Any failure, including a late one while blocking the author, rolls the
// whole review back.
func (s *FlagService) Review(ctx context.Context, flagPublicID string, reviewerID uint, reviewerRole models.Role, req models.ReviewFlagRequest) error {
	if reviewerID == 0 {
		return Unauthorized("not authenticated")
	}
	if reviewerRole != models.RoleAdmin {
		return Forbidden("flag review requires admin role")
	}
	if req.Status != models.FlagDismissed && req.Status != models.FlagActionTaken {
		return BadRequest("status must be dismissed or action_taken")
	}

	var audits []models.AuditRecord
	var flag *models.Flag
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		var err error
		flag, err = tx.Flags().GetFlagByPublicID(ctx, flagPublicID)
		if err != nil {
			return notFoundOrStorage(err, "flag not found")
		}

		now := time.Now()
		flag.Status = req.Status
		flag.ActionTaken = req.ActionTaken
		flag.AdminNotes = req.AdminNotes
		flag.ReviewedByID = &reviewerID
		flag.ReviewedAt = &now

		// The update carries its own status predicate. When it reports no
		// transition the row was already resolved, possibly by a review
		// racing this one; re-apply the review fields without touching the
		// counter.
		transitioned, err := tx.Flags().ResolveFlagFrom(ctx, flag, models.FlagPending)
		if err != nil {
			return StorageError(err)
		}
		if !transitioned {
			if err := tx.Flags().UpdateFlag(ctx, flag); err != nil {
				return StorageError(err)
			}
		}

		targetCounter, targetID := repositories.PostFlags, uint(0)
		targetType := "post"
		if flag.FlaggedCommentID != nil {
			targetCounter, targetID = repositories.CommentFlags, *flag.FlaggedCommentID
			targetType = "comment"
		} else if flag.FlaggedPostID != nil {
			targetID = *flag.FlaggedPostID
		}

		if transitioned {
			if err := s.guard.Adjust(ctx, tx, targetCounter, targetID, -1, true); err != nil {
				return err
			}
		}

		if req.ActionTaken != nil {
			switch *req.ActionTaken {
			case models.ActionContentDeleted:
				// Direct single-row takedown. Replies of a moderated
				// comment are left untouched; only the author-initiated
				// delete path cascades.
				targetPublicID, _, err := resolveTarget(ctx, tx, targetType, targetID)
				if err != nil {
					return err
				}
				if targetType == "post" {
					if err := tx.Posts().SoftDeletePost(ctx, targetID); err != nil {
						return notFoundOrStorage(err, "flagged post not found")
					}
				} else {
					if err := tx.Comments().SoftDeleteComment(ctx, targetID); err != nil {
						return notFoundOrStorage(err, "flagged comment not found")
					}
				}
				audits = append(audits, models.AuditRecord{
					ActorID:    reviewerID,
					Action:     string(models.ActionContentDeleted),
					TargetType: targetType,
					TargetID:   targetPublicID,
					FlagID:     flag.PublicID,
					CreatedAt:  now,
				})
			case models.ActionUserBlocked:
				_, authorID, err := resolveTarget(ctx, tx, targetType, targetID)
				if err != nil {
					return err
				}
				if err := tx.Users().SetBlocked(ctx, authorID, true); err != nil {
					return notFoundOrStorage(err, "content author not found")
				}
				audits = append(audits, models.AuditRecord{
					ActorID:    reviewerID,
					Action:     string(models.ActionUserBlocked),
					TargetType: "user",
					TargetID:   strconv.FormatUint(uint64(authorID), 10),
					FlagID:     flag.PublicID,
					CreatedAt:  now,
				})
			default:
				return BadRequest("unknown enforcement action")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Post-commit side effects: best-effort, never rolled back into the
	// committed review.
	for _, record := range audits {
		s.recordAudit(record)
	}
	s.notifier.Dispatch(Event{
		Kind:        EventFlagReviewed,
		ActorID:     reviewerID,
		RecipientID: flag.ReporterID,
		TargetType:  "flag",
		TargetID:    flag.PublicID,
	})
	return nil
}

// ListPending returns the oldest unreviewed flags for the admin queue.
func (s *FlagService) ListPending(ctx context.Context, reviewerRole models.Role, offset, limit int) ([]models.Flag, error) {
	if reviewerRole != models.RoleAdmin {
		return nil, Forbidden("flag queue requires admin role")
	}
	flags, err := s.store.Flags().GetFlagsByStatus(ctx, models.FlagPending, offset, limit)
	if err != nil {
		return nil, StorageError(err)
	}
	return flags, nil
}

// GetDetail returns a single flag together with the audit trail of any
// enforcement it produced.
func (s *FlagService) GetDetail(ctx context.Context, flagPublicID string, reviewerRole models.Role) (*models.Flag, []models.AuditRecord, error) {
	if reviewerRole != models.RoleAdmin {
		return nil, nil, Forbidden("flag detail requires admin role")
	}
	flag, err := s.store.Flags().GetFlagByPublicID(ctx, flagPublicID)
	if err != nil {
		return nil, nil, notFoundOrStorage(err, "flag not found")
	}
	records, err := s.audit.GetByFlagID(ctx, flag.PublicID)
	if err != nil {
		return nil, nil, StorageError(err)
	}
	return flag, records, nil
}

// resolveTarget resolves the flagged content's public identity and author
// inside the review transaction, so a resolution failure aborts the whole
// review rather than leaving it half-applied.
func resolveTarget(ctx context.Context, tx repositories.Store, targetType string, targetID uint) (string, uint, error) {
	if targetType == "post" {
		post, err := tx.Posts().GetPostByID(ctx, targetID)
		if err != nil {
			return "", 0, notFoundOrStorage(err, "flagged post not found")
		}
		return post.PublicID, post.AuthorID, nil
	}
	comment, err := tx.Comments().GetCommentByID(ctx, targetID)
	if err != nil {
		return "", 0, notFoundOrStorage(err, "flagged comment not found")
	}
	return comment.PublicID, comment.AuthorID, nil
}

func (s *FlagService) recordAudit(record models.AuditRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audit.Record(ctx, &record); err != nil {
			s.log.Warn().Err(err).
				Str("action", record.Action).
				Str("flag_id", record.FlagID).
				Msg("failed to write audit record")
		}
	}()
}
