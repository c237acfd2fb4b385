package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/db"
	"github.com/gitmesh/gitmesh/pkg/db/user"
)

// SessionAuth resolves the session user from the cookie or the Bearer header.
type SessionAuth struct {
	tokenMgr   *util.TokenManager
	users      user.DBService
	cookieName string
}

func NewSessionAuth(tokenMgr *util.TokenManager, users user.DBService, cookieName string) *SessionAuth {
	return &SessionAuth{tokenMgr: tokenMgr, users: users, cookieName: cookieName}
}

var errNoToken = errors.New("no session token")

func (a *SessionAuth) token(c *gin.Context) (string, error) {
	if cookie, err := c.Cookie(a.cookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	authHeader := c.Request.Header.Get("Authorization")
	t := strings.Split(authHeader, " ")
	if len(t) == 2 && t[0] == "Bearer" && t[1] != "" {
		return t[1], nil
	}
	return "", errNoToken
}

// resolve loads the user behind the request token. Deleted users fail.
func (a *SessionAuth) resolve(c *gin.Context) (*model.User, resputil.ErrorCode, error) {
	raw, err := a.token(c)
	if err != nil {
		return nil, resputil.TokenInvalid, err
	}
	msg, err := a.tokenMgr.CheckToken(raw)
	if err != nil {
		if errors.Is(err, util.ErrTokenExpired) {
			return nil, resputil.TokenExpired, err
		}
		return nil, resputil.TokenInvalid, err
	}
	u, err := a.users.GetByID(c, msg.UserID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			klog.Errorf("load session user %d: %v", msg.UserID, err)
		}
		return nil, resputil.TokenInvalid, err
	}
	return u, resputil.OK, nil
}

// Protected rejects requests without a valid session.
func (a *SessionAuth) Protected() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, code, err := a.resolve(c)
		if err != nil {
			resputil.HTTPError(c, http.StatusUnauthorized, "Unauthorized", code)
			c.Abort()
			return
		}
		util.SetUserContext(c, u)
		c.Next()
	}
}

// Optional records the session user when there is one and never rejects.
func (a *SessionAuth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u, _, err := a.resolve(c); err == nil {
			util.SetUserContext(c, u)
		}
		c.Next()
	}
}
