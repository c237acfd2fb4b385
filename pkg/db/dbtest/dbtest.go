// Package dbtest opens a migrated throwaway SQLite database for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db/orm"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := orm.OpenSQLite(filepath.Join(t.TempDir(), "gitmesh.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := orm.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t testing.TB, gdb *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		PasswordHash: "x",
		DisplayName:  username,
		PublicKey:    fmt.Sprintf("key-of-%s", username),
		StorageLimit: model.DefaultStorageLimit,
	}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}
