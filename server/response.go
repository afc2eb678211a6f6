package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/eventhub/errors"
	"github.com/kbukum/eventhub/logger"
)

// RespondWithError writes err as an AppError JSON body. Errors that are not
// AppErrors become a 500 without leaking their text.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed",
			logger.MergeWithError(logger.Fields("path", c.Request.URL.Path, "code", string(appErr.Code)), err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondCreated sends a 201 with body as JSON.
func RespondCreated(c *gin.Context, body any) {
	c.JSON(http.StatusCreated, body)
}

// RespondMessage sends a 200 plain-text message.
func RespondMessage(c *gin.Context, msg string) {
	c.String(http.StatusOK, msg)
}
