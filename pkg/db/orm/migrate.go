package orm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/dao/model"
)

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202501150001",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.User{},
					&model.Repository{},
					&model.Collaborator{},
					&model.Tag{},
					&model.RepositoryTag{},
					&model.Peer{},
					&model.SharedRepository{},
					&model.Activity{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"activities",
					"shared_repositories",
					"peers",
					"repository_tags",
					"tags",
					"collaborators",
					"repositories",
					"users",
				)
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}
	klog.Info("database migration success")
	return nil
}
