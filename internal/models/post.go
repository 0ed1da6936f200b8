package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a social media post.
//
// DeletedAt makes deletion a soft delete: gorm's default scope excludes
// soft-deleted rows from every query, which is what keeps moderated and
// removed posts out of all read and mutation paths.
type Post struct {
	ID            uint           `json:"-" gorm:"primaryKey"`
	PublicID      string         `json:"id" gorm:"size:36;uniqueIndex"` // externally visible identifier
	AuthorID      uint           `json:"author_id" gorm:"index"`
	Content       string         `json:"content"`
	ImageURLs     []string       `json:"image_urls,omitempty" gorm:"serializer:json"`
	VideoURLs     []string       `json:"video_urls,omitempty" gorm:"serializer:json"`
	AllowComments bool           `json:"allow_comments" gorm:"default:true"`
	LikesCount    int            `json:"likes_count" gorm:"default:0"`
	CommentsCount int            `json:"comments_count" gorm:"default:0"`
	SavesCount    int            `json:"saves_count" gorm:"default:0"`
	FlagsCount    int            `json:"flags_count" gorm:"default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content       string   `json:"content" validate:"required,min=1,max=280"`
	ImageURLs     []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	VideoURLs     []string `json:"video_urls,omitempty" validate:"omitempty,dive,url"`
	AllowComments *bool    `json:"allow_comments,omitempty"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Content       string   `json:"content,omitempty" validate:"omitempty,min=1,max=280"`
	ImageURLs     []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	VideoURLs     []string `json:"video_urls,omitempty" validate:"omitempty,dive,url"`
	AllowComments *bool    `json:"allow_comments,omitempty"`
}
