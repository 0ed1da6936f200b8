package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/lunaro-social/backend/internal/services"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	reactions *services.ReactionService
	store     repositories.Store
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(reactions *services.ReactionService, store repositories.Store) *LikeHandler {
	return &LikeHandler{reactions: reactions, store: store}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/like", h.ToggleLike)
	g.GET("/posts/:post_id/likes/status", h.GetUserLikeStatusForPost)
}

// ToggleLike flips the authenticated user's like on a post and returns the
// resulting state together with the post's like count.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	liked, count, err := h.reactions.ToggleLike(c.Request().Context(), claims.UserID, c.Param("post_id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post_id":     c.Param("post_id"),
		"liked":       liked,
		"likes_count": count,
	})
}

// GetUserLikeStatusForPost checks if the authenticated user has liked a specific post
func (h *LikeHandler) GetUserLikeStatusForPost(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.store.Posts().GetPostByPublicID(ctx, c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	hasLiked, err := h.store.Likes().HasUserLikedPost(ctx, post.ID, claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check like status")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post_id":     post.PublicID,
		"has_liked":   hasLiked,
		"likes_count": post.LikesCount,
	})
}
