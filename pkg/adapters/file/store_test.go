package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports/tests"
)

func TestStoreContract(t *testing.T) {
	tests.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestSaveCreatesDirectoryAndFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "sessions")
	store := file.New(base)

	require.NoError(t, store.Save(context.Background(), "abc", domain.NewSession("0")))

	data, err := os.ReadFile(filepath.Join(base, "abc.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"position": "0"`)
}

func TestListIgnoresForeignFiles(t *testing.T) {
	base := t.TempDir()
	store := file.New(base)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "real", domain.NewSession("0")))
	require.NoError(t, os.WriteFile(filepath.Join(base, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "tmp-real-123.json"), []byte("{}"), 0o644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, ids)
}

func TestEmptySessionIDRejected(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", domain.NewSession("0")))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ""))
}
