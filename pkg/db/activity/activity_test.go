package activity

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
	"github.com/gitmesh/gitmesh/pkg/db/dbtest"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 5, NormalizeLimit(5))
	assert.Equal(t, MaxLimit, NormalizeLimit(1000))
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	alex := dbtest.CreateUser(t, gdb, "alex")
	repo := model.Repository{Name: "r", OwnerID: alex.ID, IsPublic: true, LocalPath: "/repos/r"}
	require.NoError(t, gdb.Create(&repo).Error)
	svc := NewDBService(gdb)

	for i := range 12 {
		require.NoError(t, svc.Create(ctx, &model.Activity{
			UserID:       alex.ID,
			RepositoryID: &repo.ID,
			Type:         "commit",
			Payload:      []byte(fmt.Sprintf(`{"n":%d}`, i)),
		}))
	}

	list, err := svc.ListByUser(ctx, alex.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, DefaultLimit)
	assert.JSONEq(t, `{"n":11}`, string(list[0].Payload))
	require.NotNil(t, list[0].User)
	require.NotNil(t, list[0].Repository)

	list, err = svc.ListByRepository(ctx, repo.ID, 3)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	assert.ErrorIs(t, svc.Create(ctx, &model.Activity{UserID: alex.ID}), db.ErrInvalid)
	assert.ErrorIs(t, svc.Create(ctx, &model.Activity{UserID: 999, Type: "commit"}), db.ErrNotFound)
}
