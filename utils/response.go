package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// Fail maps a typed core error onto the matching HTTP status.
func Fail(c *gin.Context, err error) {
	msg := err.Error()
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		NotFound(c, msg)
	case apperr.CodeForbidden:
		Forbidden(c, msg)
	case apperr.CodeConflict:
		Conflict(c, msg)
	case apperr.CodeInvalidInput:
		BadRequest(c, msg)
	case apperr.CodeUnauthenticated:
		Unauthorized(c, msg)
	case apperr.CodeUnavailable:
		Error(c, http.StatusServiceUnavailable, msg)
	default:
		InternalError(c, "internal error")
	}
}
