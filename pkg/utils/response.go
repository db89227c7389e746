package utils

import (
	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"` // omitempty: null is left out
}

func APIResponse(c *gin.Context, code int, success bool, message string, data interface{}) {
	c.JSON(code, Response{
		Success: success,
		Message: message,
		Data:    data,
	})
}

// RespondError maps err to its HTTP status and writes the standard envelope.
// Unknown errors become a generic 500 and are logged.
func RespondError(c *gin.Context, err error) {
	appErr := AsAppError(err)
	if appErr.Kind == KindInternal {
		logInternal(c.Request.Method+" "+c.FullPath(), err)
	}
	c.AbortWithStatusJSON(appErr.Status(), Response{
		Success: false,
		Message: appErr.Message,
	})
}
