package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/internal/payload"
	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/config"
	"github.com/gitmesh/gitmesh/pkg/crypto"
	"github.com/gitmesh/gitmesh/pkg/db"
	"github.com/gitmesh/gitmesh/pkg/db/user"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAuthMgr)
}

type AuthMgr struct {
	name      string
	tokenMgr  *util.TokenManager
	tokenConf *config.TokenConf
	users     user.DBService
	custody   bool
	keyGen    func() (string, string, error)
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name:      "auth",
		tokenMgr:  conf.TokenMgr,
		tokenConf: config.NewTokenConf(conf.Config),
		users:     conf.Users,
		custody:   conf.Config.Auth.ServerKeyCustody,
		keyGen:    conf.keyGen(),
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/register", mgr.Register)
	g.POST("/login", mgr.Login)
	g.POST("/logout", mgr.Logout)
	g.GET("/session", mgr.Session)
}

func (mgr *AuthMgr) RegisterProtected(_ *gin.RouterGroup) {}

type (
	RegisterReq struct {
		Username    string `json:"username" binding:"required,min=3"`
		Password    string `json:"password" binding:"required,min=8"`
		DisplayName string `json:"displayName" binding:"required,min=2"`
		// PublicKey is required when the server does not hold private keys
		PublicKey string `json:"publicKey"`
	}

	LoginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	LoginResp struct {
		*payload.UserResp
		Token string `json:"token"`
	}
)

// Register godoc
// @Summary 注册用户
// @Description 创建用户并生成 RSA 密钥对，不会建立会话
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body RegisterReq true "注册信息"
// @Success 201 {object} resputil.Response[payload.UserResp]
// @Failure 400 {object} resputil.Response[any] "请求参数错误"
// @Failure 409 {object} resputil.Response[any] "用户名已存在"
// @Router /api/auth/register [post]
func (mgr *AuthMgr) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	_, err := mgr.users.GetByUsername(c, req.Username)
	switch {
	case err == nil:
		resputil.Conflict(c, "Username already exists")
		return
	case !errors.Is(err, db.ErrNotFound):
		respondError(c, "lookup username", err)
		return
	}

	u, err := mgr.newUser(c, &req)
	if err != nil {
		respondError(c, "register user", err)
		return
	}
	klog.Infof("user %s registered", u.Username)
	resputil.Created(c, payload.NewUserResp(u))
}

func (mgr *AuthMgr) newUser(ctx context.Context, req *RegisterReq) (*model.User, error) {
	hash, err := user.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		StorageLimit: model.DefaultStorageLimit,
	}
	if mgr.custody {
		pub, priv, err := mgr.keyGen()
		if err != nil {
			return nil, err
		}
		u.PublicKey = pub
		u.PrivateKey = &priv
	} else {
		if _, err := crypto.ParsePublicKey(req.PublicKey); err != nil {
			return nil, fmt.Errorf("public key: %v: %w", err, db.ErrInvalid)
		}
		u.PublicKey = req.PublicKey
	}
	if err := mgr.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login godoc
// @Summary 用户登录
// @Description 校验用户名密码，写入会话 Cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body LoginReq true "登录信息"
// @Success 200 {object} resputil.Response[LoginResp]
// @Failure 400 {object} resputil.Response[any] "请求参数错误"
// @Failure 401 {object} resputil.Response[any] "用户名或密码错误"
// @Router /api/auth/login [post]
func (mgr *AuthMgr) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	u, err := mgr.users.GetByUsername(c, req.Username)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		respondError(c, "lookup username", err)
		return
	}
	if u == nil || !user.CheckPassword(u.PasswordHash, req.Password) {
		klog.Infof("invalid credentials for %s", req.Username)
		resputil.HTTPError(c, http.StatusUnauthorized, "Invalid credentials", resputil.InvalidCredentials)
		return
	}

	token, err := mgr.tokenMgr.CreateToken(&util.JWTMessage{UserID: u.ID, Username: u.Username})
	if err != nil {
		respondError(c, "create token", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(mgr.tokenConf.CookieName, token, int(mgr.tokenMgr.TTL().Seconds()), "/", "",
		mgr.tokenConf.CookieSecure, true)
	resputil.Success(c, LoginResp{UserResp: payload.NewUserResp(u), Token: token})
}

// Logout godoc
// @Summary 退出登录
// @Tags Auth
// @Produce json
// @Success 200 {object} resputil.Response[any]
// @Router /api/auth/logout [post]
func (mgr *AuthMgr) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(mgr.tokenConf.CookieName, "", -1, "/", "", mgr.tokenConf.CookieSecure, true)
	resputil.Success(c, nil)
}

// Session godoc
// @Summary 当前会话
// @Tags Auth
// @Produce json
// @Success 200 {object} resputil.Response[payload.UserResp]
// @Failure 401 {object} resputil.Response[any] "未登录"
// @Router /api/auth/session [get]
func (mgr *AuthMgr) Session(c *gin.Context) {
	u, ok := util.GetUser(c)
	if !ok {
		resputil.Unauthorized(c, resputil.TokenInvalid)
		return
	}
	resputil.Success(c, payload.NewUserResp(u))
}
