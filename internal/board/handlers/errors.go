package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/kandev/kanban/internal/common/errors"
	"github.com/kandev/kanban/internal/common/logger"
)

// writeError maps err to its HTTP status. Server-side failures are logged
// and their details kept from the client.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	status := apperrors.GetHTTPStatus(err)
	msg := "request failed"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		log.WithContext(c.Request.Context()).Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
