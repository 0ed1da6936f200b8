package models

import "time"

// AuditRecord captures a moderation action for the append-only audit trail
// stored in MongoDB. Written after the owning transaction commits.
type AuditRecord struct {
	ActorID    uint      `json:"actor_id" bson:"actor_id"`
	Action     string    `json:"action" bson:"action"` // flag_dismissed, content_deleted, user_blocked
	TargetType string    `json:"target_type" bson:"target_type"`
	TargetID   string    `json:"target_id" bson:"target_id"`
	FlagID     string    `json:"flag_id" bson:"flag_id"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
