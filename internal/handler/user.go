package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gitmesh/gitmesh/internal/payload"
	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/db/user"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUserMgr)
}

type UserMgr struct {
	name  string
	users user.DBService
}

func NewUserMgr(conf *RegisterConfig) Manager {
	return &UserMgr{
		name:  "users",
		users: conf.Users,
	}
}

func (mgr *UserMgr) GetName() string { return mgr.name }

func (mgr *UserMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("/:id", mgr.GetUser)
}

func (mgr *UserMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/current", mgr.GetCurrentUser)
	g.PUT("/current", mgr.UpdateCurrentUser)
}

type UpdateUserReq struct {
	DisplayName *string `json:"displayName" binding:"omitempty,min=2"`
	AvatarURL   *string `json:"avatarUrl" binding:"omitempty,url"`
}

// GetUser godoc
// @Summary 获取用户信息
// @Tags User
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} resputil.Response[payload.UserResp]
// @Failure 404 {object} resputil.Response[any] "用户不存在"
// @Router /api/users/{id} [get]
func (mgr *UserMgr) GetUser(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	u, err := mgr.users.GetByID(c, id)
	if err != nil {
		respondError(c, "get user", err)
		return
	}
	resputil.Success(c, payload.NewUserResp(u))
}

// GetCurrentUser godoc
// @Summary 获取当前登录用户
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[payload.UserResp]
// @Failure 401 {object} resputil.Response[any] "未登录"
// @Router /api/users/current [get]
func (mgr *UserMgr) GetCurrentUser(c *gin.Context) {
	u, _ := util.GetUser(c)
	resputil.Success(c, payload.NewUserResp(u))
}

// UpdateCurrentUser godoc
// @Summary 修改当前用户的昵称和头像
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body UpdateUserReq true "修改内容"
// @Success 200 {object} resputil.Response[payload.UserResp]
// @Failure 400 {object} resputil.Response[any] "请求参数错误"
// @Router /api/users/current [put]
func (mgr *UserMgr) UpdateCurrentUser(c *gin.Context) {
	var req UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	u, err := mgr.users.Update(c, util.GetUserID(c), user.Patch{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		respondError(c, "update user", err)
		return
	}
	resputil.Success(c, payload.NewUserResp(u))
}
