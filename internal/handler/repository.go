package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/internal/payload"
	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/db/collaborator"
	"github.com/gitmesh/gitmesh/pkg/db/peer"
	"github.com/gitmesh/gitmesh/pkg/db/repository"
	"github.com/gitmesh/gitmesh/pkg/db/tag"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewRepositoryMgr)
}

// RepositoryMgr serves repositories and their collaborators, tags and shares.
type RepositoryMgr struct {
	name          string
	repos         repository.DBService
	collaborators collaborator.DBService
	tags          tag.DBService
	peers         peer.DBService
}

func NewRepositoryMgr(conf *RegisterConfig) Manager {
	return &RepositoryMgr{
		name:          "repositories",
		repos:         conf.Repositories,
		collaborators: conf.Collaborators,
		tags:          conf.Tags,
		peers:         conf.Peers,
	}
}

func (mgr *RepositoryMgr) GetName() string { return mgr.name }

func (mgr *RepositoryMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("", mgr.ListRepositories)
	g.GET("/user/:userId", mgr.ListUserRepositories)
	g.GET("/:id", mgr.GetRepository)
	g.GET("/:id/collaborators", mgr.ListCollaborators)
	g.GET("/:id/tags", mgr.ListRepositoryTags)
	g.GET("/:id/peers", mgr.ListShares)
}

func (mgr *RepositoryMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("", mgr.CreateRepository)
	g.PUT("/:id", mgr.UpdateRepository)
	g.DELETE("/:id", mgr.DeleteRepository)

	g.POST("/:id/collaborators", mgr.AddCollaborator)
	g.DELETE("/:id/collaborators/:userId", mgr.RemoveCollaborator)

	g.POST("/:id/tags", mgr.AddRepositoryTag)
	g.DELETE("/:id/tags/:tagId", mgr.RemoveRepositoryTag)

	g.DELETE("/:id/peers/:peerId", mgr.Unshare)
}

type (
	ListRepositoriesReq struct {
		Search string `form:"search"`
	}

	CreateRepositoryReq struct {
		Name        string  `json:"name" binding:"required"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"isPublic"`
		Language    *string `json:"language"`
	}

	// UpdateRepositoryReq leaves out owner, path and counters on purpose.
	UpdateRepositoryReq struct {
		Name        *string `json:"name" binding:"omitempty,min=1"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"isPublic"`
		Language    *string `json:"language"`
	}
)

// ListRepositories godoc
// @Summary 仓库列表
// @Description 匿名用户只能看到公开仓库，登录用户还能看到自己的私有仓库
// @Tags Repository
// @Produce json
// @Param search query string false "按名称或描述模糊搜索"
// @Success 200 {object} resputil.Response[[]payload.RepositoryResp]
// @Router /api/repositories [get]
func (mgr *RepositoryMgr) ListRepositories(c *gin.Context) {
	var req ListRepositoriesReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	repos, err := mgr.repos.List(c, req.Search, util.GetUserID(c))
	if err != nil {
		respondError(c, "list repositories", err)
		return
	}
	resputil.Success(c, payload.NewRepositoryResps(repos))
}

// ListUserRepositories godoc
// @Summary 某个用户的仓库
// @Tags Repository
// @Produce json
// @Param userId path int true "用户ID"
// @Success 200 {object} resputil.Response[[]payload.RepositoryResp]
// @Router /api/repositories/user/{userId} [get]
func (mgr *RepositoryMgr) ListUserRepositories(c *gin.Context) {
	ownerID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	repos, err := mgr.repos.ListByOwner(c, ownerID, util.GetUserID(c))
	if err != nil {
		respondError(c, "list user repositories", err)
		return
	}
	resputil.Success(c, payload.NewRepositoryResps(repos))
}

// GetRepository godoc
// @Summary 仓库详情
// @Tags Repository
// @Produce json
// @Param id path int true "仓库ID"
// @Success 200 {object} resputil.Response[payload.RepositoryResp]
// @Failure 403 {object} resputil.Response[any] "私有仓库"
// @Failure 404 {object} resputil.Response[any] "仓库不存在"
// @Router /api/repositories/{id} [get]
func (mgr *RepositoryMgr) GetRepository(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	repo, err := mgr.repos.Get(c, id, util.GetUserID(c))
	if err != nil {
		respondError(c, "get repository", err)
		return
	}
	resputil.Success(c, payload.NewRepositoryResp(repo))
}

// CreateRepository godoc
// @Summary 创建仓库
// @Tags Repository
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body CreateRepositoryReq true "仓库信息"
// @Success 201 {object} resputil.Response[payload.RepositoryResp]
// @Failure 400 {object} resputil.Response[any] "请求参数错误"
// @Router /api/repositories [post]
func (mgr *RepositoryMgr) CreateRepository(c *gin.Context) {
	var req CreateRepositoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	ownerID := util.GetUserID(c)
	repo, err := mgr.repos.Create(c, ownerID, repository.CreateReq{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    lo.FromPtrOr(req.IsPublic, true),
		Language:    req.Language,
	})
	if err != nil {
		respondError(c, "create repository", err)
		return
	}
	klog.Infof("repository %d (%s) created by user %d", repo.ID, repo.Name, ownerID)
	resputil.Created(c, payload.NewRepositoryResp(repo))
}

// UpdateRepository godoc
// @Summary 修改仓库
// @Description 只有仓库所有者可以修改名称、描述、可见性和语言
// @Tags Repository
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "仓库ID"
// @Param data body UpdateRepositoryReq true "修改内容"
// @Success 200 {object} resputil.Response[payload.RepositoryResp]
// @Failure 403 {object} resputil.Response[any] "不是所有者"
// @Router /api/repositories/{id} [put]
func (mgr *RepositoryMgr) UpdateRepository(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateRepositoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	repo, err := mgr.repos.Update(c, id, util.GetUserID(c), repository.Patch{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Language:    req.Language,
	})
	if err != nil {
		respondError(c, "update repository", err)
		return
	}
	resputil.Success(c, payload.NewRepositoryResp(repo))
}

// DeleteRepository godoc
// @Summary 删除仓库
// @Tags Repository
// @Produce json
// @Security Bearer
// @Param id path int true "仓库ID"
// @Success 200 {object} resputil.Response[any]
// @Failure 403 {object} resputil.Response[any] "不是所有者"
// @Router /api/repositories/{id} [delete]
func (mgr *RepositoryMgr) DeleteRepository(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := mgr.repos.Delete(c, id, util.GetUserID(c)); err != nil {
		respondError(c, "delete repository", err)
		return
	}
	klog.Infof("repository %d deleted by user %d", id, util.GetUserID(c))
	resputil.Success(c, nil)
}
