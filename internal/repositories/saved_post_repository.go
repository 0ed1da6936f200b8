package repositories

import (
	"context"

	"github.com/lunaro-social/backend/internal/models"
	"gorm.io/gorm"
)

// SavedPostRepository defines the interface for saved post operations
type SavedPostRepository interface {
	SavePost(ctx context.Context, savedPost *models.SavedPost) error
	UnsavePost(ctx context.Context, userID, postID uint) (bool, error)
	IsPostSaved(ctx context.Context, userID, postID uint) (bool, error)
	GetSavedPostsByUser(ctx context.Context, userID uint) ([]models.SavedPost, error)
}

// PostgresSavedPostRepository implements SavedPostRepository
type PostgresSavedPostRepository struct {
	db *gorm.DB
}

func NewPostgresSavedPostRepository(db *gorm.DB) *PostgresSavedPostRepository {
	return &PostgresSavedPostRepository{db: db}
}

func (r *PostgresSavedPostRepository) SavePost(ctx context.Context, savedPost *models.SavedPost) error {
	return r.db.WithContext(ctx).Create(savedPost).Error
}

// UnsavePost removes a saved post and reports whether a row was deleted
func (r *PostgresSavedPostRepository) UnsavePost(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.SavedPost{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresSavedPostRepository) IsPostSaved(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SavedPost{}).Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error
	return count > 0, err
}

func (r *PostgresSavedPostRepository) GetSavedPostsByUser(ctx context.Context, userID uint) ([]models.SavedPost, error) {
	var saved []models.SavedPost
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&saved).Error
	return saved, err
}
