package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// FavoritesHandler serves the current user's favorites.
type FavoritesHandler struct {
	sessions *Sessions
}

// NewFavoritesHandler creates a new favorites handler.
func NewFavoritesHandler(sessions *Sessions) *FavoritesHandler {
	return &FavoritesHandler{sessions: sessions}
}

// Handle processes GET /favorites.
func (h *FavoritesHandler) Handle(c echo.Context) error {
	session := h.sessions.For(c.Request())

	result := session.Favorites.Execute(c.Request().Context())
	if !result.OK() {
		return mapDomainError(result.Error())
	}

	return c.JSON(http.StatusOK, result.Favorites)
}
