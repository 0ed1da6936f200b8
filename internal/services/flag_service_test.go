package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/lunaro-social/backend/internal/repositories/memory"
	"github.com/lunaro-social/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagService(store *memory.Store, notifier services.Notifier, audit repositories.AuditRepository) *services.FlagService {
	return services.NewFlagService(store, notifier, audit, testLogger())
}

func flagsCount(t *testing.T, store *memory.Store, counter repositories.Counter, id uint) int64 {
	t.Helper()
	count, err := store.Counters().Value(context.Background(), counter, id)
	require.NoError(t, err)
	return count
}

func actionPtr(a models.FlagAction) *models.FlagAction { return &a }

func TestCreateFlagRequiresExactlyOneTarget(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	post := seedPost(t, store, author.ID)

	_, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{Category: models.FlagSpam})
	require.Error(t, err)
	assert.Equal(t, services.KindBadRequest, services.Kind(err))

	other := "11111111-2222-4333-8444-555555555555"
	_, err = svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:         models.FlagSpam,
		FlaggedPostID:    &post.PublicID,
		FlaggedCommentID: &other,
	})
	require.Error(t, err)
	assert.Equal(t, services.KindBadRequest, services.Kind(err))
}

func TestCreateFlagIncrementsTargetCounter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	post := seedPost(t, store, author.ID)

	flag, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:      models.FlagSpam,
		FlaggedPostID: &post.PublicID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FlagPending, flag.Status)
	assert.NotEmpty(t, flag.PublicID)
	assert.Equal(t, int64(1), flagsCount(t, store, repositories.PostFlags, post.ID))
}

func TestCreateFlagDeduplicatesPerReporter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	other := seedUser(t, store, "other", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	post := seedPost(t, store, author.ID)

	_, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:      models.FlagSpam,
		FlaggedPostID: &post.PublicID,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:      models.FlagHarassment,
		FlaggedPostID: &post.PublicID,
	})
	require.Error(t, err)
	assert.Equal(t, services.KindBadRequest, services.Kind(err))
	assert.Equal(t, int64(1), flagsCount(t, store, repositories.PostFlags, post.ID))

	// A different reporter is still allowed.
	_, err = svc.Create(ctx, other.ID, models.CreateFlagRequest{
		Category:      models.FlagSpam,
		FlaggedPostID: &post.PublicID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), flagsCount(t, store, repositories.PostFlags, post.ID))
}

func TestCreateFlagBlockedReporter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	require.NoError(t, store.Users().SetBlocked(ctx, reporter.ID, true))
	author := seedUser(t, store, "author", models.RoleUser)
	post := seedPost(t, store, author.ID)

	_, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:      models.FlagSpam,
		FlaggedPostID: &post.PublicID,
	})
	require.Error(t, err)
	assert.Equal(t, services.KindForbidden, services.Kind(err))
}

func TestCreateFlagRateLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)

	for i := 0; i < 10; i++ {
		post := seedPost(t, store, author.ID)
		_, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
			Category:      models.FlagSpam,
			FlaggedPostID: &post.PublicID,
		})
		require.NoError(t, err)
	}

	post := seedPost(t, store, author.ID)
	_, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:      models.FlagSpam,
		FlaggedPostID: &post.PublicID,
	})
	require.Error(t, err)
	assert.Equal(t, services.KindBadRequest, services.Kind(err))
}

func TestReviewRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())

	user := seedUser(t, store, "user", models.RoleUser)
	err := svc.Review(ctx, "whatever", user.ID, models.RoleUser, models.ReviewFlagRequest{Status: models.FlagDismissed})
	require.Error(t, err)
	assert.Equal(t, services.KindForbidden, services.Kind(err))
}

func TestReviewDismissRollsBackCounterOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	svc := newFlagService(store, notifier, memory.NewAuditLog())

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	admin := seedUser(t, store, "admin", models.RoleAdmin)
	post := seedPost(t, store, author.ID)

	flag, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:      models.FlagSpam,
		FlaggedPostID: &post.PublicID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), flagsCount(t, store, repositories.PostFlags, post.ID))

	require.NoError(t, svc.Review(ctx, flag.PublicID, admin.ID, models.RoleAdmin, models.ReviewFlagRequest{
		Status: models.FlagDismissed,
	}))

	reviewed, err := store.Flags().GetFlagByPublicID(ctx, flag.PublicID)
	require.NoError(t, err)
	assert.Equal(t, models.FlagDismissed, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedByID)
	assert.Equal(t, admin.ID, *reviewed.ReviewedByID)
	assert.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, int64(0), flagsCount(t, store, repositories.PostFlags, post.ID))

	// Reviewing an already-resolved flag must not decrement again.
	require.NoError(t, svc.Review(ctx, flag.PublicID, admin.ID, models.RoleAdmin, models.ReviewFlagRequest{
		Status: models.FlagDismissed,
	}))
	assert.Equal(t, int64(0), flagsCount(t, store, repositories.PostFlags, post.ID))

	events := notifier.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, services.EventFlagReviewed, events[0].Kind)
	assert.Equal(t, reporter.ID, events[0].RecipientID)
}

func TestReviewContentDeletedTakesDownPostOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	audit := memory.NewAuditLog()
	svc := newFlagService(store, &recordingNotifier{}, audit)

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	admin := seedUser(t, store, "admin", models.RoleAdmin)
	post := seedPost(t, store, author.ID)

	flag, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:      models.FlagInappropriate,
		FlaggedPostID: &post.PublicID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Review(ctx, flag.PublicID, admin.ID, models.RoleAdmin, models.ReviewFlagRequest{
		Status:      models.FlagActionTaken,
		ActionTaken: actionPtr(models.ActionContentDeleted),
	}))

	_, err = store.Posts().GetPostByPublicID(ctx, post.PublicID)
	require.Error(t, err)

	// The author is untouched by a content takedown.
	authorRow, err := store.Users().GetUserByID(ctx, author.ID)
	require.NoError(t, err)
	assert.False(t, authorRow.Blocked)

	require.Eventually(t, func() bool {
		return len(audit.Records()) == 1
	}, time.Second, 10*time.Millisecond)
	record := audit.Records()[0]
	assert.Equal(t, string(models.ActionContentDeleted), record.Action)
	assert.Equal(t, "post", record.TargetType)
	assert.Equal(t, post.PublicID, record.TargetID)
	assert.Equal(t, flag.PublicID, record.FlagID)
}

// A moderated comment takedown removes only the flagged comment. Replies
// survive; cascading is reserved for author-initiated deletes.
func TestReviewContentDeletedCommentLeavesReplies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())
	comments := services.NewCommentService(store, &recordingNotifier{}, testLogger())

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	admin := seedUser(t, store, "admin", models.RoleAdmin)
	post := seedPost(t, store, author.ID)

	parent, err := comments.Create(ctx, post.PublicID, author.ID, "flagged parent", nil)
	require.NoError(t, err)
	reply, err := comments.Create(ctx, post.PublicID, author.ID, "innocent reply", &parent.PublicID)
	require.NoError(t, err)

	flag, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:         models.FlagHarassment,
		FlaggedCommentID: &parent.PublicID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Review(ctx, flag.PublicID, admin.ID, models.RoleAdmin, models.ReviewFlagRequest{
		Status:      models.FlagActionTaken,
		ActionTaken: actionPtr(models.ActionContentDeleted),
	}))

	_, err = store.Comments().GetCommentByPublicID(ctx, parent.PublicID)
	require.Error(t, err)
	_, err = store.Comments().GetCommentByPublicID(ctx, reply.PublicID)
	require.NoError(t, err)
}

func TestReviewUserBlockedBlocksAuthor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	audit := memory.NewAuditLog()
	svc := newFlagService(store, &recordingNotifier{}, audit)

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	admin := seedUser(t, store, "admin", models.RoleAdmin)
	post := seedPost(t, store, author.ID)

	flag, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:      models.FlagHarassment,
		FlaggedPostID: &post.PublicID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Review(ctx, flag.PublicID, admin.ID, models.RoleAdmin, models.ReviewFlagRequest{
		Status:      models.FlagActionTaken,
		ActionTaken: actionPtr(models.ActionUserBlocked),
	}))

	authorRow, err := store.Users().GetUserByID(ctx, author.ID)
	require.NoError(t, err)
	assert.True(t, authorRow.Blocked)

	// Blocking the author does not take the content down.
	_, err = store.Posts().GetPostByPublicID(ctx, post.PublicID)
	require.NoError(t, err)
}

// When the enforcement step fails, the whole review rolls back: the flag
// stays pending and the counter keeps its value.
func TestReviewRollsBackOnEnforcementFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())
	comments := services.NewCommentService(store, &recordingNotifier{}, testLogger())

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	admin := seedUser(t, store, "admin", models.RoleAdmin)
	post := seedPost(t, store, author.ID)

	comment, err := comments.Create(ctx, post.PublicID, author.ID, "soon gone", nil)
	require.NoError(t, err)

	flag, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:         models.FlagSpam,
		FlaggedCommentID: &comment.PublicID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), flagsCount(t, store, repositories.CommentFlags, comment.ID))

	// The author deletes the comment before the admin gets to the flag.
	require.NoError(t, comments.Delete(ctx, comment.PublicID, author.ID, models.RoleUser))

	err = svc.Review(ctx, flag.PublicID, admin.ID, models.RoleAdmin, models.ReviewFlagRequest{
		Status:      models.FlagActionTaken,
		ActionTaken: actionPtr(models.ActionUserBlocked),
	})
	require.Error(t, err)
	assert.Equal(t, services.KindNotFound, services.Kind(err))

	// Nothing from the failed review sticks.
	current, err := store.Flags().GetFlagByPublicID(ctx, flag.PublicID)
	require.NoError(t, err)
	assert.Equal(t, models.FlagPending, current.Status)
	assert.Nil(t, current.ReviewedByID)

	authorRow, err := store.Users().GetUserByID(ctx, author.ID)
	require.NoError(t, err)
	assert.False(t, authorRow.Blocked)
}

func TestListPendingRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())

	_, err := svc.ListPending(ctx, models.RoleUser, 0, 20)
	require.Error(t, err)
	assert.Equal(t, services.KindForbidden, services.Kind(err))
}

func TestListPendingReturnsOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)

	var created []string
	for i := 0; i < 3; i++ {
		post := seedPost(t, store, author.ID)
		flag, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
			Category:      models.FlagSpam,
			FlaggedPostID: &post.PublicID,
		})
		require.NoError(t, err)
		created = append(created, flag.PublicID)
		time.Sleep(time.Millisecond)
	}

	pending, err := svc.ListPending(ctx, models.RoleAdmin, 0, 20)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, created[0], pending[0].PublicID)
	assert.Equal(t, created[2], pending[2].PublicID)
}

// staleFlagStore serves flag lookups from a fixed snapshot, standing in for
// a transaction that read the row before a concurrent review committed.
type staleFlagStore struct {
	repositories.Store
	snapshot models.Flag
}

func (s staleFlagStore) Flags() repositories.FlagRepository {
	return staleFlagRepo{FlagRepository: s.Store.Flags(), snapshot: s.snapshot}
}

func (s staleFlagStore) InTx(ctx context.Context, fn func(repositories.Store) error) error {
	return s.Store.InTx(ctx, func(tx repositories.Store) error {
		return fn(staleFlagStore{Store: tx, snapshot: s.snapshot})
	})
}

type staleFlagRepo struct {
	repositories.FlagRepository
	snapshot models.Flag
}

func (r staleFlagRepo) GetFlagByPublicID(ctx context.Context, publicID string) (*models.Flag, error) {
	flag := r.snapshot
	return &flag, nil
}

func TestReviewRacedSecondDismissDoesNotDecrementAgain(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newFlagService(store, &recordingNotifier{}, memory.NewAuditLog())

	reporterA := seedUser(t, store, "reporter-a", models.RoleUser)
	reporterB := seedUser(t, store, "reporter-b", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	admin := seedUser(t, store, "admin", models.RoleAdmin)
	post := seedPost(t, store, author.ID)

	flagA, err := svc.Create(ctx, reporterA.ID, models.CreateFlagRequest{
		Category:      models.FlagSpam,
		FlaggedPostID: &post.PublicID,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, reporterB.ID, models.CreateFlagRequest{
		Category:      models.FlagSpam,
		FlaggedPostID: &post.PublicID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), flagsCount(t, store, repositories.PostFlags, post.ID))

	// The snapshot a racing transaction would have read: flag A still
	// pending.
	stale, err := store.Flags().GetFlagByPublicID(ctx, flagA.PublicID)
	require.NoError(t, err)

	require.NoError(t, svc.Review(ctx, flagA.PublicID, admin.ID, models.RoleAdmin, models.ReviewFlagRequest{
		Status: models.FlagDismissed,
	}))
	require.Equal(t, int64(1), flagsCount(t, store, repositories.PostFlags, post.ID))

	// The losing review proceeds from its stale pending snapshot. The
	// status-conditioned update must refuse the transition, so the counter
	// does not move a second time while flag B is still pending.
	racedSvc := services.NewFlagService(
		staleFlagStore{Store: store, snapshot: *stale},
		&recordingNotifier{}, memory.NewAuditLog(), testLogger(),
	)
	require.NoError(t, racedSvc.Review(ctx, flagA.PublicID, admin.ID, models.RoleAdmin, models.ReviewFlagRequest{
		Status: models.FlagDismissed,
	}))

	assert.Equal(t, int64(1), flagsCount(t, store, repositories.PostFlags, post.ID))
	reviewed, err := store.Flags().GetFlagByPublicID(ctx, flagA.PublicID)
	require.NoError(t, err)
	assert.Equal(t, models.FlagDismissed, reviewed.Status)
}

func TestGetDetailReturnsFlagWithAuditTrail(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	audit := memory.NewAuditLog()
	svc := newFlagService(store, &recordingNotifier{}, audit)

	reporter := seedUser(t, store, "reporter", models.RoleUser)
	author := seedUser(t, store, "author", models.RoleUser)
	admin := seedUser(t, store, "admin", models.RoleAdmin)
	post := seedPost(t, store, author.ID)

	flag, err := svc.Create(ctx, reporter.ID, models.CreateFlagRequest{
		Category:      models.FlagSpam,
		FlaggedPostID: &post.PublicID,
	})
	require.NoError(t, err)

	_, _, err = svc.GetDetail(ctx, flag.PublicID, models.RoleUser)
	require.Error(t, err)
	assert.Equal(t, services.KindForbidden, services.Kind(err))

	require.NoError(t, svc.Review(ctx, flag.PublicID, admin.ID, models.RoleAdmin, models.ReviewFlagRequest{
		Status:      models.FlagActionTaken,
		ActionTaken: actionPtr(models.ActionContentDeleted),
	}))

	require.Eventually(t, func() bool {
		_, records, err := svc.GetDetail(ctx, flag.PublicID, models.RoleAdmin)
		return err == nil && len(records) == 1
	}, time.Second, 10*time.Millisecond)

	detail, records, err := svc.GetDetail(ctx, flag.PublicID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.FlagActionTaken, detail.Status)
	require.Len(t, records, 1)
	assert.Equal(t, string(models.ActionContentDeleted), records[0].Action)
	assert.Equal(t, post.PublicID, records[0].TargetID)

	_, _, err = svc.GetDetail(ctx, "missing", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, services.KindNotFound, services.Kind(err))
}
