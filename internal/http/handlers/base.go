// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rutero/internal/geo"
	"rutero/internal/modules/planner"
	"rutero/internal/modules/route"
	"rutero/internal/modules/stop"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeRouteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, route.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, route.ErrNotFound), errors.Is(err, stop.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, route.ErrStopNotOnRoute):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, route.ErrInvalidState),
		errors.Is(err, route.ErrConflict),
		errors.Is(err, route.ErrIncompleteDeliveries),
		errors.Is(err, stop.ErrUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, planner.ErrNoStops):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, planner.ErrInfeasibleStop),
		errors.Is(err, planner.ErrNoFeasibleRoute):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, geo.ErrServiceUnavailable), errors.Is(err, geo.ErrBadResponse):
		writeError(c, http.StatusBadGateway, "road network service unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeStopError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stop.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, stop.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, stop.ErrUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
