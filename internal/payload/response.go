package payload

// 定义返回值时，优先在使用到该返回值的 /internal/handler/xxx.go 中直接定义
// 当某个返回值的结构体通用时，从 /internal/handler/xxx.go 中提升至此文件中

import (
	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/crypto"
)

type (
	// UserResp is the only shape in which a user leaves the server.
	UserResp struct {
		model.User
		KeyFingerprint string `json:"keyFingerprint"`
	}

	RepositoryResp struct {
		model.Repository
		Owner *UserResp `json:"owner,omitempty"`
	}
)

func NewUserResp(u *model.User) *UserResp {
	if u == nil {
		return nil
	}
	return &UserResp{User: *u, KeyFingerprint: crypto.Fingerprint(u.PublicKey)}
}

func NewRepositoryResp(r *model.Repository) RepositoryResp {
	return RepositoryResp{Repository: *r, Owner: NewUserResp(r.Owner)}
}

func NewRepositoryResps(repos []model.Repository) []RepositoryResp {
	out := make([]RepositoryResp, 0, len(repos))
	for i := range repos {
		out = append(out, NewRepositoryResp(&repos[i]))
	}
	return out
}
