package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/flowlab-edu/flowlab/pkg/adapters/file"
	"github.com/flowlab-edu/flowlab/pkg/domain"
	"github.com/flowlab-edu/flowlab/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	session := domain.NewSession("s1")
	session.Source.Text = "flowchart TD\n    a --> b"
	require.NoError(t, store.Save(ctx, "s1", session))
	require.NoError(t, store.Save(ctx, "s1", session)) // overwrite path

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, ".json", filepath.Ext(e.Name()), "unexpected leftover: %s", e.Name())
	}
}

func TestFileStore_EmptySessionID(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", domain.NewSession("")))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
}
