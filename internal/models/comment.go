package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post. Exactly one level of nesting is
// permitted: ParentID, when set, must reference a comment whose own ParentID
// is nil.
type Comment struct {
	ID         uint           `json:"-" gorm:"primaryKey"`
	PublicID   string         `json:"id" gorm:"size:36;uniqueIndex"`
	PostID     uint           `json:"-" gorm:"index"`
	AuthorID   uint           `json:"author_id" gorm:"index"`
	ParentID   *uint          `json:"-" gorm:"index"` // nil for top-level comments
	Content    string         `json:"content"`
	FlagsCount int            `json:"flags_count" gorm:"default:0"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content  string  `json:"content" validate:"required,min=1,max=500"`
	ParentID *string `json:"parent_id,omitempty" validate:"omitempty,uuid4"`
}

// UpdateCommentRequest defines the request body for updating an existing comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
