package repositories

import (
	"context"

	"github.com/lunaro-social/backend/internal/models"
	"gorm.io/gorm"
)

// Counter names a denormalized counter column on one of the aggregate
// models. Services address counters through this enum instead of raw table
// and column names.
type Counter int

const (
	PostLikes Counter = iota
	PostComments
	PostSaves
	PostFlags
	CommentFlags
	UserFollowers
	UserFollowing
	UserSaved
)

// CounterRepository applies signed deltas to stored counters.
//
// A floor-guarded decrement is issued as a conditional UPDATE: the row only
// changes when the counter is currently above zero. When the guard fails the
// call is a silent no-op: the counter is already consistent with "nothing
// to decrement", which is what makes duplicate or racing decrements safe.
type CounterRepository interface {
	Adjust(ctx context.Context, counter Counter, id uint, delta int, floorGuard bool) error
	Value(ctx context.Context, counter Counter, id uint) (int64, error)
}

// PostgresCounterRepository implements CounterRepository for PostgreSQL
type PostgresCounterRepository struct {
	db *gorm.DB
}

// NewPostgresCounterRepository creates a new PostgresCounterRepository
func NewPostgresCounterRepository(db *gorm.DB) *PostgresCounterRepository {
	return &PostgresCounterRepository{db: db}
}

func counterColumn(counter Counter) (interface{}, string) {
	switch counter {
	case PostLikes:
		return &models.Post{}, "likes_count"
	case PostComments:
		return &models.Post{}, "comments_count"
	case PostSaves:
		return &models.Post{}, "saves_count"
	case PostFlags:
		return &models.Post{}, "flags_count"
	case CommentFlags:
		return &models.Comment{}, "flags_count"
	case UserFollowers:
		return &models.User{}, "followers_count"
	case UserFollowing:
		return &models.User{}, "following_count"
	case UserSaved:
		return &models.User{}, "saved_count"
	}
	panic("repositories: unknown counter")
}

// Adjust applies delta to the counter in a single UPDATE so the arithmetic
// happens at the storage layer, not on a value read earlier by the caller.
func (r *PostgresCounterRepository) Adjust(ctx context.Context, counter Counter, id uint, delta int, floorGuard bool) error {
	model, column := counterColumn(counter)
	q := r.db.WithContext(ctx).Model(model).Where("id = ?", id)
	if floorGuard && delta < 0 {
		q = q.Where(column + " > 0")
	}
	return q.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

// Value reads the counter's current stored value.
func (r *PostgresCounterRepository) Value(ctx context.Context, counter Counter, id uint) (int64, error) {
	model, column := counterColumn(counter)
	var value int64
	err := r.db.WithContext(ctx).Model(model).Select(column).Where("id = ?", id).Scan(&value).Error
	return value, err
}
