package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/netoho/hestia-app-staging-sub000/internal/services"
)

// respondError translates service errors into the wire shape. Unknown
// errors become opaque 500s; the cause stays in the log only.
func respondError(c *gin.Context, err error) {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{
			"error": appErr.Message,
			"kind":  appErr.Kind,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "internal server error",
		"kind":  services.ErrInternal,
	})
}

func performer(c *gin.Context) string {
	if email, ok := c.Get("userEmail"); ok {
		return email.(string)
	}
	return "unknown"
}
