package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndRemove(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Create("/repos/1_1700000000000"))
	dir, err := s.Dir("/repos/1_1700000000000")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(root, "repos", "1_1700000000000"), dir)

	err = s.Create("/repos/1_1700000000000")
	assert.ErrorIs(t, err, ErrExist)

	require.NoError(t, s.Remove("/repos/1_1700000000000"))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	// already gone
	assert.NoError(t, s.Remove("/repos/1_1700000000000"))
}

func TestDirStaysUnderRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	require.NoError(t, err)

	dir, err := s.Dir("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), dir)

	_, err = s.Dir("/")
	assert.Error(t, err)
	_, err = s.Dir("")
	assert.Error(t, err)
}
