package repositories

import (
	"context"

	"github.com/lunaro-social/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. All lookup
// methods go through gorm's default scope, so soft-deleted posts are
// invisible to every caller; SoftDeletePost is the only path that touches
// the deleted_at column.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	GetPostByPublicID(ctx context.Context, publicID string) (*models.Post, error)
	GetPostsByAuthorID(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, error)
	GetFeedPosts(ctx context.Context, authorIDs []uint, offset, limit int) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	SoftDeletePost(ctx context.Context, id uint) error
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost creates a new post in PostgreSQL
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetPostByID retrieves an active post by internal ID
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostByPublicID retrieves an active post by its externally visible ID
func (r *PostgresPostRepository) GetPostByPublicID(ctx context.Context, publicID string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostsByAuthorID retrieves posts by a specific author, newest first
func (r *PostgresPostRepository) GetPostsByAuthorID(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

// GetFeedPosts retrieves posts authored by any of the given users, newest first
func (r *PostgresPostRepository) GetFeedPosts(ctx context.Context, authorIDs []uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	if len(authorIDs) == 0 {
		return posts, nil
	}
	err := r.db.WithContext(ctx).Where("author_id IN ?", authorIDs).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

// UpdatePost updates an existing post in PostgreSQL
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// SoftDeletePost marks a post deleted; gorm sets deleted_at on the row
func (r *PostgresPostRepository) SoftDeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
