package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/aidetectsai/detector-api/errors"
	"github.com/aidetectsai/detector-api/logger"
)

// RespondWithError derives status and body from err. AppErrors map to
// their own status; anything else becomes a generic 500 without leaking
// the cause to the client.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	logger.WithComponent("server").WithError(err).Error("unhandled error")
	c.JSON(http.StatusInternalServerError, apperrors.Internal(err).ToResponse())
}

// RespondOK sends a 200 response with the given body.
func RespondOK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// RespondCreated sends a 201 response with the given body.
func RespondCreated(c *gin.Context, body any) {
	c.JSON(http.StatusCreated, body)
}
