package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/db/tag"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewTagMgr)
}

type TagMgr struct {
	name string
	tags tag.DBService
}

func NewTagMgr(conf *RegisterConfig) Manager {
	return &TagMgr{
		name: "tags",
		tags: conf.Tags,
	}
}

func (mgr *TagMgr) GetName() string { return mgr.name }

func (mgr *TagMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("", mgr.ListTags)
}

func (mgr *TagMgr) RegisterProtected(_ *gin.RouterGroup) {}

type (
	AddTagReq struct {
		TagName string `json:"tagName" binding:"required"`
	}

	AddTagResp struct {
		Tag     *model.Tag           `json:"tag"`
		RepoTag *model.RepositoryTag `json:"repoTag"`
	}
)

// ListTags godoc
// @Summary 所有标签
// @Tags Tag
// @Produce json
// @Success 200 {object} resputil.Response[[]model.Tag]
// @Router /api/tags [get]
func (mgr *TagMgr) ListTags(c *gin.Context) {
	tags, err := mgr.tags.ListAll(c)
	if err != nil {
		respondError(c, "list tags", err)
		return
	}
	resputil.Success(c, tags)
}

// ListRepositoryTags godoc
// @Summary 仓库标签
// @Tags Tag
// @Produce json
// @Param id path int true "仓库ID"
// @Success 200 {object} resputil.Response[[]model.Tag]
// @Router /api/repositories/{id}/tags [get]
func (mgr *RepositoryMgr) ListRepositoryTags(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := mgr.repos.Get(c, id, util.GetUserID(c)); err != nil {
		respondError(c, "get repository", err)
		return
	}
	tags, err := mgr.tags.ListByRepository(c, id)
	if err != nil {
		respondError(c, "list repository tags", err)
		return
	}
	resputil.Success(c, tags)
}

// AddRepositoryTag godoc
// @Summary 给仓库打标签
// @Description 标签不存在时创建；重复添加不会产生第二条关联
// @Tags Tag
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "仓库ID"
// @Param data body AddTagReq true "标签名"
// @Success 201 {object} resputil.Response[AddTagResp]
// @Router /api/repositories/{id}/tags [post]
func (mgr *RepositoryMgr) AddRepositoryTag(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req AddTagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if _, err := mgr.repos.GetOwned(c, id, util.GetUserID(c)); err != nil {
		respondError(c, "get repository", err)
		return
	}
	t, repoTag, err := mgr.tags.Add(c, id, req.TagName)
	if err != nil {
		respondError(c, "add tag", err)
		return
	}
	resputil.Created(c, AddTagResp{Tag: t, RepoTag: repoTag})
}

// RemoveRepositoryTag godoc
// @Summary 移除仓库标签
// @Tags Tag
// @Produce json
// @Security Bearer
// @Param id path int true "仓库ID"
// @Param tagId path int true "标签ID"
// @Success 200 {object} resputil.Response[any]
// @Router /api/repositories/{id}/tags/{tagId} [delete]
func (mgr *RepositoryMgr) RemoveRepositoryTag(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := uintParam(c, "tagId")
	if !ok {
		return
	}
	if _, err := mgr.repos.GetOwned(c, id, util.GetUserID(c)); err != nil {
		respondError(c, "get repository", err)
		return
	}
	if err := mgr.tags.Remove(c, id, tagID); err != nil {
		respondError(c, "remove tag", err)
		return
	}
	resputil.Success(c, nil)
}
