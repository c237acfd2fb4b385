package tag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
	"github.com/gitmesh/gitmesh/pkg/db/dbtest"
)

func TestAddTagIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	owner := dbtest.CreateUser(t, gdb, "alex")
	repo := model.Repository{Name: "r", OwnerID: owner.ID, IsPublic: true, LocalPath: "/repos/r"}
	require.NoError(t, gdb.Create(&repo).Error)
	svc := NewDBService(gdb)

	tag1, link1, err := svc.Add(ctx, repo.ID, "p2p")
	require.NoError(t, err)
	tag2, link2, err := svc.Add(ctx, repo.ID, "p2p")
	require.NoError(t, err)
	assert.Equal(t, tag1.ID, tag2.ID)
	assert.Equal(t, link1.ID, link2.ID)

	var n int64
	require.NoError(t, gdb.Model(&model.RepositoryTag{}).Where("repository_id = ?", repo.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	_, _, err = svc.Add(ctx, repo.ID, "git")
	require.NoError(t, err)
	tags, err := svc.ListByRepository(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "git", tags[0].Name)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Remove(ctx, repo.ID, tag1.ID))
	assert.ErrorIs(t, svc.Remove(ctx, repo.ID, tag1.ID), db.ErrNotFound)
	// the tag itself survives
	all, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, _, err = svc.Add(ctx, repo.ID, " ")
	assert.ErrorIs(t, err, db.ErrInvalid)
}

func TestFirstOrCreateDuplicateKeepsTransactionUsable(t *testing.T) {
	gdb := dbtest.Open(t)
	require.NoError(t, gdb.Create(&model.Tag{Name: "winner"}).Error)

	err := gdb.Transaction(func(tx *gorm.DB) error {
		var got model.Tag
		// the insert of "winner" stands in for a concurrent request creating it first
		err := firstOrCreate(tx, &got, func() error {
			if err := tx.Create(&model.Tag{Name: "partial"}).Error; err != nil {
				return err
			}
			return tx.Create(&model.Tag{Name: "winner"}).Error
		}, "name = ?", "ghost")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		return tx.Create(&model.Tag{Name: "after"}).Error
	})
	require.NoError(t, err)

	var names []string
	require.NoError(t, gdb.Model(&model.Tag{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"after", "winner"}, names)
}
