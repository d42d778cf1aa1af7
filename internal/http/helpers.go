// README: HTTP helper utilities for JSON and error mapping.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradedispatch/internal/modules/job"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

func writeRecommendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, job.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, "request timed out")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
