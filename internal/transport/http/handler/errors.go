package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"career-constellation/internal/app"
	"career-constellation/internal/transport/http/response"
)

// writeError maps service errors onto the response envelope. fallback is
// the message used for unexpected errors, which are logged instead of
// returned.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrJobNotFound):
		response.Error(c, http.StatusNotFound, response.CodeJobNotFound, err.Error())
	case errors.Is(err, app.ErrClusterNotFound):
		response.Error(c, http.StatusNotFound, response.CodeClusterNotFound, err.Error())
	case errors.Is(err, app.ErrReportNotFound):
		response.Error(c, http.StatusNotFound, response.CodeReportNotFound, err.Error())
	case errors.Is(err, app.ErrNotInitialized):
		response.Error(c, http.StatusServiceUnavailable, response.CodeNotInitialized, err.Error())
	default:
		log.Printf("%s: %v", fallback, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
