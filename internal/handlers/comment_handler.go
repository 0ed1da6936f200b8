package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	comments *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentsForPost)
	g.PUT("/comments/:comment_id", h.UpdateComment)
	g.DELETE("/comments/:comment_id", h.DeleteComment)
}

// CreateComment adds a comment, or a reply when parent_id is given
func (h *CommentHandler) CreateComment(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.comments.Create(c.Request().Context(), c.Param("post_id"), claims.UserID, req.Content, req.ParentID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsForPost lists the active comments on a post, oldest first
func (h *CommentHandler) GetCommentsForPost(c echo.Context) error {
	comments, err := h.comments.ListByPost(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, comments)
}

// UpdateComment edits a comment's content. Only the author may edit.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.comments.Update(c.Request().Context(), c.Param("comment_id"), claims.UserID, req.Content)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, comment)
}

// DeleteComment removes a comment. Deleting a top-level comment removes its
// replies with it.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	if err := h.comments.Delete(c.Request().Context(), c.Param("comment_id"), claims.UserID, claims.Role); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
