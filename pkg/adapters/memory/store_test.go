package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports/tests"
)

func TestStoreContract(t *testing.T) {
	tests.RunSessionStoreContract(t, memory.NewStore())
}

func TestSaveSnapshotsTheSession(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	sess := domain.NewSession("0")
	require.NoError(t, store.Save(ctx, "snap", sess))

	// Mutations after Save must not leak into the stored snapshot.
	sess.Push("0.9")
	sess.Variables["late"] = true

	loaded, err := store.Load(ctx, "snap")
	require.NoError(t, err)
	assert.Equal(t, "0", loaded.Position)
	assert.NotContains(t, loaded.Variables, "late")
}
