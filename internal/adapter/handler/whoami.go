package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// WhoamiHandler serves the current user's identity.
type WhoamiHandler struct {
	sessions *Sessions
}

// NewWhoamiHandler creates a new whoami handler.
func NewWhoamiHandler(sessions *Sessions) *WhoamiHandler {
	return &WhoamiHandler{sessions: sessions}
}

// Handle processes GET /whoami.
func (h *WhoamiHandler) Handle(c echo.Context) error {
	session := h.sessions.For(c.Request())

	result := session.Users.Execute(c.Request().Context())
	if !result.OK() {
		return mapDomainError(result.Error())
	}

	return c.JSON(http.StatusOK, result.Identity)
}
