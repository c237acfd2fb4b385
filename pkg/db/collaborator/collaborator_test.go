package collaborator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
	"github.com/gitmesh/gitmesh/pkg/db/dbtest"
)

func TestAddCollaborator(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	alex := dbtest.CreateUser(t, gdb, "alex")
	lisa := dbtest.CreateUser(t, gdb, "lisa")
	repo := model.Repository{Name: "r", OwnerID: alex.ID, IsPublic: true, LocalPath: "/repos/r"}
	require.NoError(t, gdb.Create(&repo).Error)
	svc := NewDBService(gdb)

	c, err := svc.Add(ctx, &repo, lisa.ID, model.PermissionRead)
	require.NoError(t, err)
	require.NotNil(t, c.User)
	assert.Equal(t, "lisa", c.User.Username)

	c2, err := svc.Add(ctx, &repo, lisa.ID, model.PermissionAdmin)
	require.NoError(t, err)
	assert.Equal(t, c.ID, c2.ID)
	assert.Equal(t, model.PermissionAdmin, c2.Permission)

	list, err := svc.List(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.PermissionAdmin, list[0].Permission)

	_, err = svc.Add(ctx, &repo, alex.ID, model.PermissionRead)
	assert.ErrorIs(t, err, db.ErrInvalid)
	_, err = svc.Add(ctx, &repo, lisa.ID, model.Permission("owner"))
	assert.ErrorIs(t, err, db.ErrInvalid)
	_, err = svc.Add(ctx, &repo, 999, model.PermissionRead)
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, svc.Remove(ctx, repo.ID, lisa.ID))
	assert.ErrorIs(t, svc.Remove(ctx, repo.ID, lisa.ID), db.ErrNotFound)
}
