package models

import "time"

// FlagStatus tracks the review lifecycle of a flag. A flag only ever moves
// out of pending, never back.
type FlagStatus string

const (
	FlagPending     FlagStatus = "pending"
	FlagDismissed   FlagStatus = "dismissed"
	FlagActionTaken FlagStatus = "action_taken"
)

// FlagCategory is the reporter-supplied reason for a flag.
type FlagCategory string

const (
	FlagSpam           FlagCategory = "spam"
	FlagHarassment     FlagCategory = "harassment"
	FlagInappropriate  FlagCategory = "inappropriate"
	FlagMisinformation FlagCategory = "misinformation"
	FlagOther          FlagCategory = "other"
)

// FlagAction is the enforcement an admin attached to a reviewed flag.
type FlagAction string

const (
	ActionContentDeleted FlagAction = "content_deleted"
	ActionUserBlocked    FlagAction = "user_blocked"
)

// Flag is a user report against a post or a comment: exactly one of
// FlaggedPostID / FlaggedCommentID is set. A reporter can flag a given item
// at most once; the composite unique indexes back the service-level dedup
// check so it also holds across concurrent requests. Flags are never
// hard-deleted.
type Flag struct {
	ID               uint         `json:"-" gorm:"primaryKey"`
	PublicID         string       `json:"id" gorm:"size:36;uniqueIndex"`
	Category         FlagCategory `json:"category" gorm:"size:30"`
	Description      *string      `json:"description,omitempty" gorm:"size:500"`
	Status           FlagStatus   `json:"status" gorm:"size:20;default:'pending';index"`
	ReporterID       uint         `json:"reporter_id" gorm:"index;uniqueIndex:idx_reporter_post;uniqueIndex:idx_reporter_comment"`
	FlaggedPostID    *uint        `json:"flagged_post_id,omitempty" gorm:"uniqueIndex:idx_reporter_post"`
	FlaggedCommentID *uint        `json:"flagged_comment_id,omitempty" gorm:"uniqueIndex:idx_reporter_comment"`
	ActionTaken      *FlagAction  `json:"action_taken,omitempty" gorm:"size:30"`
	AdminNotes       *string      `json:"admin_notes,omitempty" gorm:"size:500"`
	ReviewedByID     *uint        `json:"reviewed_by_id,omitempty"`
	ReviewedAt       *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// CreateFlagRequest defines the request body for reporting content
type CreateFlagRequest struct {
	Category         FlagCategory `json:"category" validate:"required,oneof=spam harassment inappropriate misinformation other"`
	Description      *string      `json:"description,omitempty" validate:"omitempty,max=500"`
	FlaggedPostID    *string      `json:"flagged_post_id,omitempty" validate:"omitempty,uuid4"`
	FlaggedCommentID *string      `json:"flagged_comment_id,omitempty" validate:"omitempty,uuid4"`
}

// ReviewFlagRequest defines the request body for an admin flag review
type ReviewFlagRequest struct {
	Status      FlagStatus  `json:"status" validate:"required,oneof=dismissed action_taken"`
	ActionTaken *FlagAction `json:"action_taken,omitempty" validate:"omitempty,oneof=content_deleted user_blocked"`
	AdminNotes  *string     `json:"admin_notes,omitempty" validate:"omitempty,max=500"`
}
