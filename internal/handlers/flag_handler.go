package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/services"
)

// FlagHandler handles HTTP requests related to content flags
type FlagHandler struct {
	flags *services.FlagService
}

// NewFlagHandler creates a new FlagHandler
func NewFlagHandler(flags *services.FlagService) *FlagHandler {
	return &FlagHandler{flags: flags}
}

// RegisterFlagRoutes registers flag-related routes
func (h *FlagHandler) RegisterFlagRoutes(g *echo.Group) {
	g.POST("/flags", h.CreateFlag)
	g.GET("/admin/flags", h.ListPendingFlags)
	g.GET("/admin/flags/:flag_id", h.GetFlagDetail)
	g.PUT("/admin/flags/:flag_id", h.ReviewFlag)
}

// CreateFlag reports a post or a comment
func (h *FlagHandler) CreateFlag(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req models.CreateFlagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	flag, err := h.flags.Create(c.Request().Context(), claims.UserID, req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, flag)
}

// ListPendingFlags returns the admin review queue, oldest first
func (h *FlagHandler) ListPendingFlags(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	offset, limit := paging(c)
	flags, err := h.flags.ListPending(c.Request().Context(), claims.Role, offset, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, flags)
}

// GetFlagDetail returns one flag and its enforcement audit trail
func (h *FlagHandler) GetFlagDetail(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	flag, records, err := h.flags.GetDetail(c.Request().Context(), c.Param("flag_id"), claims.Role)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"flag":        flag,
		"audit_trail": records,
	})
}

// ReviewFlag resolves a pending flag with an optional enforcement action
func (h *FlagHandler) ReviewFlag(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req models.ReviewFlagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.flags.Review(c.Request().Context(), c.Param("flag_id"), claims.UserID, claims.Role, req); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
