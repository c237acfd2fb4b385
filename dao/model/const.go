// Constants mapped to database columns.
package model

// Collaborator permission on a repository
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

func (p Permission) IsValid() bool {
	switch p {
	case PermissionRead, PermissionWrite, PermissionAdmin:
		return true
	}
	return false
}

// Activity types written by the server itself
const (
	ActivityCreateRepository = "create_repository"
)

const (
	DefaultStorageLimit int64 = 2_000_000_000 // 2GB
)
