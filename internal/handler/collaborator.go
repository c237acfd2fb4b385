package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/internal/payload"
	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/internal/util"
)

type (
	AddCollaboratorReq struct {
		UserID     uint             `json:"userId" binding:"required"`
		Permission model.Permission `json:"permission" binding:"required,oneof=read write admin"`
	}

	CollaboratorResp struct {
		model.Collaborator
		User *payload.UserResp `json:"user,omitempty"`
	}
)

func newCollaboratorResp(c model.Collaborator, _ int) CollaboratorResp {
	return CollaboratorResp{Collaborator: c, User: payload.NewUserResp(c.User)}
}

// ListCollaborators godoc
// @Summary 仓库协作者列表
// @Tags Repository
// @Produce json
// @Param id path int true "仓库ID"
// @Success 200 {object} resputil.Response[[]CollaboratorResp]
// @Router /api/repositories/{id}/collaborators [get]
func (mgr *RepositoryMgr) ListCollaborators(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := mgr.repos.Get(c, id, util.GetUserID(c)); err != nil {
		respondError(c, "get repository", err)
		return
	}
	collaborators, err := mgr.collaborators.List(c, id)
	if err != nil {
		respondError(c, "list collaborators", err)
		return
	}
	resputil.Success(c, lo.Map(collaborators, newCollaboratorResp))
}

// AddCollaborator godoc
// @Summary 添加或修改协作者
// @Description 同一用户重复添加时更新权限
// @Tags Repository
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "仓库ID"
// @Param data body AddCollaboratorReq true "协作者"
// @Success 201 {object} resputil.Response[CollaboratorResp]
// @Failure 403 {object} resputil.Response[any] "不是所有者"
// @Failure 404 {object} resputil.Response[any] "用户不存在"
// @Router /api/repositories/{id}/collaborators [post]
func (mgr *RepositoryMgr) AddCollaborator(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req AddCollaboratorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	repo, err := mgr.repos.GetOwned(c, id, util.GetUserID(c))
	if err != nil {
		respondError(c, "get repository", err)
		return
	}
	collaborator, err := mgr.collaborators.Add(c, repo, req.UserID, req.Permission)
	if err != nil {
		respondError(c, "add collaborator", err)
		return
	}
	resputil.Created(c, newCollaboratorResp(*collaborator, 0))
}

// RemoveCollaborator godoc
// @Summary 移除协作者
// @Tags Repository
// @Produce json
// @Security Bearer
// @Param id path int true "仓库ID"
// @Param userId path int true "用户ID"
// @Success 200 {object} resputil.Response[any]
// @Router /api/repositories/{id}/collaborators/{userId} [delete]
func (mgr *RepositoryMgr) RemoveCollaborator(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	if _, err := mgr.repos.GetOwned(c, id, util.GetUserID(c)); err != nil {
		respondError(c, "get repository", err)
		return
	}
	if err := mgr.collaborators.Remove(c, id, userID); err != nil {
		respondError(c, "remove collaborator", err)
		return
	}
	resputil.Success(c, nil)
}
