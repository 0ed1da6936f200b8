package services_test

import (
	"context"
	"testing"

	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/lunaro-social/backend/internal/repositories/memory"
	"github.com/lunaro-social/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeFlipsEdgeAndCounterTogether(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	svc := services.NewReactionService(store, notifier, testLogger())

	author := seedUser(t, store, "author", models.RoleUser)
	actor := seedUser(t, store, "actor", models.RoleUser)
	post := seedPost(t, store, author.ID)

	liked, count, err := svc.ToggleLike(ctx, actor.ID, post.PublicID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	has, err := store.Likes().HasUserLikedPost(ctx, post.ID, actor.ID)
	require.NoError(t, err)
	assert.True(t, has)

	liked, count, err = svc.ToggleLike(ctx, actor.ID, post.PublicID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)

	has, err = store.Likes().HasUserLikedPost(ctx, post.ID, actor.ID)
	require.NoError(t, err)
	assert.False(t, has)

	liked, count, err = svc.ToggleLike(ctx, actor.ID, post.PublicID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)
}

func TestToggleLikeUnknownPost(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewReactionService(store, &recordingNotifier{}, testLogger())
	actor := seedUser(t, store, "actor", models.RoleUser)

	_, _, err := svc.ToggleLike(context.Background(), actor.ID, "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.Equal(t, services.KindNotFound, services.Kind(err))
}

func TestToggleLikeNotifiesAuthorOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	svc := services.NewReactionService(store, notifier, testLogger())

	author := seedUser(t, store, "author", models.RoleUser)
	actor := seedUser(t, store, "actor", models.RoleUser)
	post := seedPost(t, store, author.ID)

	_, _, err := svc.ToggleLike(ctx, actor.ID, post.PublicID)
	require.NoError(t, err)
	_, _, err = svc.ToggleLike(ctx, actor.ID, post.PublicID)
	require.NoError(t, err)

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, services.EventLike, events[0].Kind)
	assert.Equal(t, author.ID, events[0].RecipientID)
}

func TestToggleLikeOwnPostDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	svc := services.NewReactionService(store, notifier, testLogger())

	author := seedUser(t, store, "author", models.RoleUser)
	post := seedPost(t, store, author.ID)

	_, _, err := svc.ToggleLike(ctx, author.ID, post.PublicID)
	require.NoError(t, err)
	assert.Empty(t, notifier.Events())
}

func TestToggleSaveMovesBothCounters(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := services.NewReactionService(store, &recordingNotifier{}, testLogger())

	author := seedUser(t, store, "author", models.RoleUser)
	actor := seedUser(t, store, "actor", models.RoleUser)
	post := seedPost(t, store, author.ID)

	saved, count, err := svc.ToggleSave(ctx, actor.ID, post.PublicID)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, int64(1), count)

	actorRow, err := store.Users().GetUserByID(ctx, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, actorRow.SavedCount)

	saved, count, err = svc.ToggleSave(ctx, actor.ID, post.PublicID)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, int64(0), count)

	actorRow, err = store.Users().GetUserByID(ctx, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, actorRow.SavedCount)
}

func TestToggleFollow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	svc := services.NewReactionService(store, notifier, testLogger())

	actor := seedUser(t, store, "actor", models.RoleUser)
	target := seedUser(t, store, "target", models.RoleUser)

	following, count, err := svc.ToggleFollow(ctx, actor.ID, target.ID)
	require.NoError(t, err)
	assert.True(t, following)
	assert.Equal(t, int64(1), count)

	actorRow, err := store.Users().GetUserByID(ctx, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, actorRow.FollowingCount)

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, services.EventFollow, events[0].Kind)

	following, count, err = svc.ToggleFollow(ctx, actor.ID, target.ID)
	require.NoError(t, err)
	assert.False(t, following)
	assert.Equal(t, int64(0), count)

	actorRow, err = store.Users().GetUserByID(ctx, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, actorRow.FollowingCount)
}

func TestToggleFollowSelf(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewReactionService(store, &recordingNotifier{}, testLogger())
	actor := seedUser(t, store, "actor", models.RoleUser)

	_, _, err := svc.ToggleFollow(context.Background(), actor.ID, actor.ID)
	require.Error(t, err)
	assert.Equal(t, services.KindBadRequest, services.Kind(err))
}

func TestToggleFollowUnknownTarget(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewReactionService(store, &recordingNotifier{}, testLogger())
	actor := seedUser(t, store, "actor", models.RoleUser)

	_, _, err := svc.ToggleFollow(context.Background(), actor.ID, actor.ID+100)
	require.Error(t, err)
	assert.Equal(t, services.KindNotFound, services.Kind(err))
}

// An unlike on a post whose counter already sits at zero must not push the
// counter negative, even if an edge row exists. The guard absorbs the
// decrement and the edge still comes off.
func TestUnlikeWithZeroCounterKeepsFloor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := services.NewReactionService(store, &recordingNotifier{}, testLogger())

	author := seedUser(t, store, "author", models.RoleUser)
	actor := seedUser(t, store, "actor", models.RoleUser)
	post := seedPost(t, store, author.ID)

	// Edge inserted behind the service's back: counter stays at zero.
	require.NoError(t, store.Likes().CreateLike(ctx, &models.Like{UserID: actor.ID, PostID: post.ID}))

	liked, count, err := svc.ToggleLike(ctx, actor.ID, post.PublicID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)

	has, err := store.Likes().HasUserLikedPost(ctx, post.ID, actor.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

// racedLikeStore reports the like edge as absent so the service takes the
// insert path even though the edge already exists, standing in for a
// request that lost the insert race to an identical toggle.
type racedLikeStore struct {
	repositories.Store
}

func (s racedLikeStore) Likes() repositories.LikeRepository {
	return racedLikeRepo{s.Store.Likes()}
}

func (s racedLikeStore) InTx(ctx context.Context, fn func(repositories.Store) error) error {
	return s.Store.InTx(ctx, func(tx repositories.Store) error {
		return fn(racedLikeStore{tx})
	})
}

type racedLikeRepo struct {
	repositories.LikeRepository
}

func (r racedLikeRepo) HasUserLikedPost(ctx context.Context, postID, userID uint) (bool, error) {
	return false, nil
}

func TestToggleLikeLostInsertRaceIsIdempotentSuccess(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := services.NewReactionService(racedLikeStore{store}, &recordingNotifier{}, testLogger())

	author := seedUser(t, store, "author", models.RoleUser)
	actor := seedUser(t, store, "actor", models.RoleUser)
	post := seedPost(t, store, author.ID)

	// The winning toggle already committed the edge and the counter.
	require.NoError(t, store.Likes().CreateLike(ctx, &models.Like{UserID: actor.ID, PostID: post.ID}))
	require.NoError(t, store.Counters().Adjust(ctx, repositories.PostLikes, post.ID, 1, false))

	// The loser's insert hits the unique index; the call still succeeds
	// and reports the committed state instead of surfacing a conflict.
	liked, count, err := svc.ToggleLike(ctx, actor.ID, post.PublicID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	has, err := store.Likes().HasUserLikedPost(ctx, post.ID, actor.ID)
	require.NoError(t, err)
	assert.True(t, has)
}
