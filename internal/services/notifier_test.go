package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories/memory"
	"github.com/lunaro-social/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoNotifierPersistsNotification(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := services.NewRepoNotifier(store, testLogger())

	actor := seedUser(t, store, "actor", models.RoleUser)
	recipient := seedUser(t, store, "recipient", models.RoleUser)

	notifier.Dispatch(services.Event{
		Kind:        services.EventFollow,
		ActorID:     actor.ID,
		RecipientID: recipient.ID,
		TargetType:  "user",
	})

	require.Eventually(t, func() bool {
		count, err := store.Notifications().GetUnreadCount(ctx, recipient.ID)
		return err == nil && count == 1
	}, time.Second, 10*time.Millisecond)

	rows, total, err := store.Notifications().GetByRecipientID(ctx, recipient.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, string(services.EventFollow), rows[0].Type)
	assert.Equal(t, "actor started following you", rows[0].Message)
	assert.False(t, rows[0].IsRead)
}

func TestRepoNotifierMessageFallsBackForUnknownActor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := services.NewRepoNotifier(store, testLogger())

	recipient := seedUser(t, store, "recipient", models.RoleUser)

	notifier.Dispatch(services.Event{
		Kind:        services.EventLike,
		ActorID:     999,
		RecipientID: recipient.ID,
		TargetType:  "post",
	})

	require.Eventually(t, func() bool {
		count, err := store.Notifications().GetUnreadCount(ctx, recipient.ID)
		return err == nil && count == 1
	}, time.Second, 10*time.Millisecond)

	rows, _, err := store.Notifications().GetByRecipientID(ctx, recipient.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Someone liked your post", rows[0].Message)
}
