package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles every repository behind a single transactional boundary.
// InTx runs fn against a Store whose repositories all share one storage
// transaction: either every write inside fn commits, or none do. Services
// never compose multi-entity mutations outside of InTx.
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Comments() CommentRepository
	Likes() LikeRepository
	SavedPosts() SavedPostRepository
	Follows() FollowRepository
	Flags() FlagRepository
	Notifications() NotificationRepository
	Counters() CounterRepository

	InTx(ctx context.Context, fn func(Store) error) error
}

// GormStore implements Store over a gorm connection (PostgreSQL).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository                 { return NewPostgresUserRepository(s.db) }
func (s *GormStore) Posts() PostRepository                 { return NewPostgresPostRepository(s.db) }
func (s *GormStore) Comments() CommentRepository           { return NewPostgresCommentRepository(s.db) }
func (s *GormStore) Likes() LikeRepository                 { return NewPostgresLikeRepository(s.db) }
func (s *GormStore) SavedPosts() SavedPostRepository       { return NewPostgresSavedPostRepository(s.db) }
func (s *GormStore) Follows() FollowRepository             { return NewPostgresFollowRepository(s.db) }
func (s *GormStore) Flags() FlagRepository                 { return NewPostgresFlagRepository(s.db) }
func (s *GormStore) Notifications() NotificationRepository { return NewPostgresNotificationRepository(s.db) }
func (s *GormStore) Counters() CounterRepository           { return NewPostgresCounterRepository(s.db) }

// InTx wraps fn in a database transaction. The callback receives a Store
// bound to the transaction handle; returning an error rolls everything back.
func (s *GormStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
