package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/services"
)

// currentClaims returns the JWT claims stored by the auth middleware.
func currentClaims(c echo.Context) (*models.JwtCustomClaims, error) {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication")
	}
	return claims, nil
}

// httpError maps a service error to the HTTP status it deserves. Storage
// failures and anything unclassified come back as a plain 500 so internal
// detail never leaks into responses.
func httpError(err error) error {
	switch services.Kind(err) {
	case services.KindBadRequest:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case services.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case services.KindForbidden:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case services.KindUnauthorized:
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
