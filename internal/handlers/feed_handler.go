package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
)

// FeedHandler serves the home feed: recent posts from followed users.
type FeedHandler struct {
	store repositories.Store
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(store repositories.Store) *FeedHandler {
	return &FeedHandler{store: store}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns recent posts from the users the authenticated user
// follows, plus their own, newest first.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	authorIDs, err := h.store.Follows().GetFollowingIDs(ctx, claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build feed")
	}
	authorIDs = append(authorIDs, claims.UserID)

	offset, limit := paging(c)
	posts, err := h.store.Posts().GetFeedPosts(ctx, authorIDs, offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build feed")
	}

	if posts == nil {
		posts = []models.Post{}
	}
	return c.JSON(http.StatusOK, posts)
}
