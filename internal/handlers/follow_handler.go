package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/lunaro-social/backend/internal/services"
)

// FollowHandler handles HTTP requests related to follows
type FollowHandler struct {
	reactions *services.ReactionService
	store     repositories.Store
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(reactions *services.ReactionService, store repositories.Store) *FollowHandler {
	return &FollowHandler{reactions: reactions, store: store}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.ToggleFollow)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// ToggleFollow flips whether the authenticated user follows the target user.
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	following, count, err := h.reactions.ToggleFollow(c.Request().Context(), claims.UserID, uint(targetID))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":         targetID,
		"following":       following,
		"followers_count": count,
	})
}

// GetFollowers lists the users following the given user
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	followers, err := h.store.Follows().GetFollowers(c.Request().Context(), uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch followers")
	}

	return c.JSON(http.StatusOK, followers)
}

// GetFollowing lists the users the given user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	following, err := h.store.Follows().GetFollowing(c.Request().Context(), uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch following")
	}

	return c.JSON(http.StatusOK, following)
}
