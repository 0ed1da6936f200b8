package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/lunaro-social/backend/internal/services"
)

// SavedPostHandler handles HTTP requests related to saved posts
type SavedPostHandler struct {
	reactions *services.ReactionService
	store     repositories.Store
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(reactions *services.ReactionService, store repositories.Store) *SavedPostHandler {
	return &SavedPostHandler{reactions: reactions, store: store}
}

// RegisterSavedPostRoutes registers saved-post routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/save", h.ToggleSave)
	g.GET("/me/saved-posts", h.GetSavedPosts)
}

// ToggleSave flips whether the authenticated user has saved a post.
func (h *SavedPostHandler) ToggleSave(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	saved, count, err := h.reactions.ToggleSave(c.Request().Context(), claims.UserID, c.Param("post_id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post_id":     c.Param("post_id"),
		"saved":       saved,
		"saves_count": count,
	})
}

// GetSavedPosts lists the posts the authenticated user has saved, most
// recently saved first. Posts deleted since saving are skipped.
func (h *SavedPostHandler) GetSavedPosts(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	saved, err := h.store.SavedPosts().GetSavedPostsByUser(ctx, claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch saved posts")
	}

	posts := make([]models.Post, 0, len(saved))
	for _, sp := range saved {
		post, err := h.store.Posts().GetPostByID(ctx, sp.PostID)
		if err != nil {
			continue
		}
		posts = append(posts, *post)
	}

	return c.JSON(http.StatusOK, posts)
}
