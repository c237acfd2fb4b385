package resputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON reply.
type Response[T any] struct {
	Code ErrorCode `json:"code"`
	Data T         `json:"data"`
	Msg  string    `json:"msg"`
}

func wrapResponse(c *gin.Context, httpCode int, msg string, data any, code ErrorCode) {
	c.JSON(httpCode, Response[any]{
		Code: code,
		Data: data,
		Msg:  msg,
	})
}

func Success(c *gin.Context, data any) {
	wrapResponse(c, http.StatusOK, "", data, OK)
}

func Created(c *gin.Context, data any) {
	wrapResponse(c, http.StatusCreated, "", data, OK)
}

// Error replies 500 with the given code.
func Error(c *gin.Context, msg string, errorCode ErrorCode) {
	wrapResponse(c, http.StatusInternalServerError, msg, nil, errorCode)
}

func HTTPError(c *gin.Context, httpCode int, msg string, errorCode ErrorCode) {
	wrapResponse(c, httpCode, msg, nil, errorCode)
}

func BadRequestError(c *gin.Context, msg string) {
	wrapResponse(c, http.StatusBadRequest, msg, nil, InvalidRequest)
}

func Unauthorized(c *gin.Context, errorCode ErrorCode) {
	wrapResponse(c, http.StatusUnauthorized, "Unauthorized", nil, errorCode)
}

func Forbidden(c *gin.Context, msg string) {
	wrapResponse(c, http.StatusForbidden, msg, nil, UserNotAllowed)
}

func NotFound(c *gin.Context, msg string) {
	wrapResponse(c, http.StatusNotFound, msg, nil, ResourceNotFound)
}

func Conflict(c *gin.Context, msg string) {
	wrapResponse(c, http.StatusConflict, msg, nil, ResourceConflict)
}
