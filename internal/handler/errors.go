package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/pkg/db"
)

// respondError maps store errors onto HTTP statuses.
func respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		resputil.NotFound(c, "Not found")
	case errors.Is(err, db.ErrForbidden):
		resputil.Forbidden(c, "Forbidden")
	case errors.Is(err, db.ErrConflict):
		resputil.Conflict(c, err.Error())
	case errors.Is(err, db.ErrInvalid):
		resputil.BadRequestError(c, err.Error())
	default:
		klog.Errorf("%s: %v", op, err)
		resputil.Error(c, "Internal server error", resputil.NotSpecified)
	}
}

// uintParam reads a numeric path parameter, replying 400 when it is not one.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		resputil.BadRequestError(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
