package repositories

import (
	"context"
	"time"

	"github.com/lunaro-social/backend/internal/models"
	"gorm.io/gorm"
)

// FlagRepository defines the interface for flag data operations. Flags are
// never hard-deleted; review mutates the existing row in place.
type FlagRepository interface {
	CreateFlag(ctx context.Context, flag *models.Flag) error
	GetFlagByPublicID(ctx context.Context, publicID string) (*models.Flag, error)
	UpdateFlag(ctx context.Context, flag *models.Flag) error
	ResolveFlagFrom(ctx context.Context, flag *models.Flag, prior models.FlagStatus) (bool, error)
	CountByReporterSince(ctx context.Context, reporterID uint, since time.Time) (int64, error)
	HasUserFlaggedPost(ctx context.Context, reporterID, postID uint) (bool, error)
	HasUserFlaggedComment(ctx context.Context, reporterID, commentID uint) (bool, error)
	GetFlagsByStatus(ctx context.Context, status models.FlagStatus, offset, limit int) ([]models.Flag, error)
}

// PostgresFlagRepository implements FlagRepository for PostgreSQL
type PostgresFlagRepository struct {
	db *gorm.DB
}

// NewPostgresFlagRepository creates a new PostgresFlagRepository
func NewPostgresFlagRepository(db *gorm.DB) *PostgresFlagRepository {
	return &PostgresFlagRepository{db: db}
}

// CreateFlag creates a new flag in PostgreSQL
func (r *PostgresFlagRepository) CreateFlag(ctx context.Context, flag *models.Flag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

// GetFlagByPublicID retrieves a flag by its externally visible ID
func (r *PostgresFlagRepository) GetFlagByPublicID(ctx context.Context, publicID string) (*models.Flag, error) {
	var flag models.Flag
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&flag).Error; err != nil {
		return nil, err
	}
	return &flag, nil
}

// UpdateFlag updates an existing flag in PostgreSQL
func (r *PostgresFlagRepository) UpdateFlag(ctx context.Context, flag *models.Flag) error {
	return r.db.WithContext(ctx).Save(flag).Error
}

// ResolveFlagFrom writes the review fields only where the stored status
// still equals prior, and reports whether a row transitioned. The status
// predicate lives in the UPDATE itself, so a concurrent review that commits
// first makes this statement touch zero rows instead of re-applying a stale
// read.
func (r *PostgresFlagRepository) ResolveFlagFrom(ctx context.Context, flag *models.Flag, prior models.FlagStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Flag{}).
		Where("id = ? AND status = ?", flag.ID, prior).
		Updates(map[string]interface{}{
			"status":         flag.Status,
			"action_taken":   flag.ActionTaken,
			"admin_notes":    flag.AdminNotes,
			"reviewed_by_id": flag.ReviewedByID,
			"reviewed_at":    flag.ReviewedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByReporterSince counts flags a reporter created inside the trailing window
func (r *PostgresFlagRepository) CountByReporterSince(ctx context.Context, reporterID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Flag{}).
		Where("reporter_id = ? AND created_at >= ?", reporterID, since).
		Count(&count).Error
	return count, err
}

// HasUserFlaggedPost checks if a reporter has already flagged a post
func (r *PostgresFlagRepository) HasUserFlaggedPost(ctx context.Context, reporterID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Flag{}).
		Where("reporter_id = ? AND flagged_post_id = ?", reporterID, postID).
		Count(&count).Error
	return count > 0, err
}

// HasUserFlaggedComment checks if a reporter has already flagged a comment
func (r *PostgresFlagRepository) HasUserFlaggedComment(ctx context.Context, reporterID, commentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Flag{}).
		Where("reporter_id = ? AND flagged_comment_id = ?", reporterID, commentID).
		Count(&count).Error
	return count > 0, err
}

// GetFlagsByStatus lists flags in a given status, oldest first
func (r *PostgresFlagRepository) GetFlagsByStatus(ctx context.Context, status models.FlagStatus, offset, limit int) ([]models.Flag, error) {
	var flags []models.Flag
	err := r.db.WithContext(ctx).Where("status = ?", status).
		Order("created_at ASC").Offset(offset).Limit(limit).Find(&flags).Error
	return flags, err
}
