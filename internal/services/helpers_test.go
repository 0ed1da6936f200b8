package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories/memory"
	"github.com/lunaro-social/backend/internal/services"
	"github.com/lunaro-social/backend/pkg/publicid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures dispatched events synchronously so tests can
// assert on them without sleeping.
type recordingNotifier struct {
	mu     sync.Mutex
	events []services.Event
}

func (n *recordingNotifier) Dispatch(event services.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []services.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]services.Event, len(n.events))
	copy(out, n.events)
	return out
}

func seedUser(t *testing.T, store *memory.Store, name string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}
	require.NoError(t, store.Users().CreateUser(context.Background(), user))
	return user
}

func seedPost(t *testing.T, store *memory.Store, authorID uint) *models.Post {
	t.Helper()
	post := &models.Post{
		PublicID:      publicid.New(),
		AuthorID:      authorID,
		Content:       "hello world",
		AllowComments: true,
	}
	require.NoError(t, store.Posts().CreatePost(context.Background(), post))
	return post
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
