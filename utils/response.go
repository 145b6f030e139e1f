package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	jww "github.com/spf13/jwalterweatherman"
	"vault/apperr"
)

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Error answers with the public form of err. Internal detail is logged only.
func Error(c *gin.Context, err error) {
	pub := apperr.Public(err)
	status := apperr.HTTPStatus(pub.Code)
	if status >= http.StatusInternalServerError {
		jww.ERROR.Printf("%s %s: %+v", c.Request.Method, c.FullPath(), err)
	} else {
		jww.DEBUG.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": errorBody{Code: pub.Code, Message: pub.Message}})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, apperr.InvalidArg(message))
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, apperr.Unauthorized(message))
}

func Forbidden(c *gin.Context, message string) {
	Error(c, apperr.Forbidden(message))
}

func NotFound(c *gin.Context, message string) {
	Error(c, apperr.NotFound(message))
}

func InternalError(c *gin.Context, message string) {
	Error(c, apperr.Internal(message))
}
