package models

import "time"

// Like represents a like on a post. The (UserID, PostID) pair is unique at
// the storage layer so that two racing likes from the same user cannot both
// insert: the loser hits the constraint and is treated as a no-op.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_user_post_like"`
	PostID    uint      `json:"post_id" gorm:"index;uniqueIndex:idx_user_post_like"`
	CreatedAt time.Time `json:"created_at"`
}
