package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/internal/payload"
	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/db/activity"
	"github.com/gitmesh/gitmesh/pkg/db/repository"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewActivityMgr)
}

type ActivityMgr struct {
	name       string
	activities activity.DBService
	repos      repository.DBService
}

func NewActivityMgr(conf *RegisterConfig) Manager {
	return &ActivityMgr{
		name:       "activities",
		activities: conf.Activities,
		repos:      conf.Repositories,
	}
}

func (mgr *ActivityMgr) GetName() string { return mgr.name }

func (mgr *ActivityMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("/user/:userId", mgr.ListUserActivities)
	g.GET("/repository/:id", mgr.ListRepositoryActivities)
}

func (mgr *ActivityMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("", mgr.CreateActivity)
}

type (
	ListActivitiesReq struct {
		Limit int `form:"limit" binding:"omitempty,min=1"`
	}

	CreateActivityReq struct {
		Type         string          `json:"type" binding:"required"`
		RepositoryID *uint           `json:"repositoryId"`
		Payload      json.RawMessage `json:"payload"`
	}

	ActivityResp struct {
		model.Activity
		User *payload.UserResp `json:"user,omitempty"`
	}
)

func newActivityResp(a model.Activity, _ int) ActivityResp {
	return ActivityResp{Activity: a, User: payload.NewUserResp(a.User)}
}

// ListUserActivities godoc
// @Summary 用户动态
// @Tags Activity
// @Produce json
// @Param userId path int true "用户ID"
// @Param limit query int false "条数，默认 10，最多 100"
// @Success 200 {object} resputil.Response[[]ActivityResp]
// @Router /api/activities/user/{userId} [get]
func (mgr *ActivityMgr) ListUserActivities(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	var req ListActivitiesReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	activities, err := mgr.activities.ListByUser(c, userID, req.Limit)
	if err != nil {
		respondError(c, "list user activities", err)
		return
	}
	resputil.Success(c, lo.Map(activities, newActivityResp))
}

// ListRepositoryActivities godoc
// @Summary 仓库动态
// @Tags Activity
// @Produce json
// @Param id path int true "仓库ID"
// @Param limit query int false "条数，默认 10，最多 100"
// @Success 200 {object} resputil.Response[[]ActivityResp]
// @Router /api/activities/repository/{id} [get]
func (mgr *ActivityMgr) ListRepositoryActivities(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req ListActivitiesReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if _, err := mgr.repos.Get(c, id, util.GetUserID(c)); err != nil {
		respondError(c, "get repository", err)
		return
	}
	activities, err := mgr.activities.ListByRepository(c, id, req.Limit)
	if err != nil {
		respondError(c, "list repository activities", err)
		return
	}
	resputil.Success(c, lo.Map(activities, newActivityResp))
}

// CreateActivity godoc
// @Summary 记录动态
// @Tags Activity
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body CreateActivityReq true "动态"
// @Success 201 {object} resputil.Response[model.Activity]
// @Router /api/activities [post]
func (mgr *ActivityMgr) CreateActivity(c *gin.Context) {
	var req CreateActivityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	userID := util.GetUserID(c)
	if req.RepositoryID != nil {
		if _, err := mgr.repos.Get(c, *req.RepositoryID, userID); err != nil {
			respondError(c, "get repository", err)
			return
		}
	}
	a := &model.Activity{
		UserID:       userID,
		RepositoryID: req.RepositoryID,
		Type:         req.Type,
		Payload:      datatypes.JSON(req.Payload),
	}
	if err := mgr.activities.Create(c, a); err != nil {
		respondError(c, "create activity", err)
		return
	}
	resputil.Created(c, a)
}
