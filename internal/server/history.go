package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/readmode/models"
	"github.com/mohammad-safakhou/readmode/repository"
)

// HistoryHandler exposes the reading history.
type HistoryHandler struct {
	History repository.HistoryRepository
}

func (h *HistoryHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.DELETE("", h.clear)
	g.DELETE("/:id", h.remove)
}

func (h *HistoryHandler) list(c echo.Context) error {
	if h.History == nil {
		return c.JSON(http.StatusOK, []models.HistoryEntry{})
	}
	items, err := h.History.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *HistoryHandler) clear(c echo.Context) error {
	if h.History != nil {
		if err := h.History.Clear(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *HistoryHandler) remove(c echo.Context) error {
	if h.History == nil {
		return echo.NewHTTPError(http.StatusNotFound, models.ErrHistoryEntryNotFound.Error())
	}
	err := h.History.Remove(c.Request().Context(), c.Param("id"))
	if errors.Is(err, models.ErrHistoryEntryNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
