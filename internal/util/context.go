package util

import (
	"github.com/gin-gonic/gin"

	"github.com/gitmesh/gitmesh/dao/model"
)

const (
	UserIDKey   = "x-user-id"
	UsernameKey = "x-user-name"
	UserKey     = "x-user"
)

func SetUserContext(c *gin.Context, user *model.User) {
	c.Set(UserIDKey, user.ID)
	c.Set(UsernameKey, user.Username)
	c.Set(UserKey, user)
}

// GetUserID is 0 for anonymous requests.
func GetUserID(c *gin.Context) uint {
	return c.GetUint(UserIDKey)
}

func GetUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}
