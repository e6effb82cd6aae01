// Package tests provides reusable contract suites for ports implementations.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract verifies the SessionStore behavior every adapter
// must honor: round-trip fidelity, isolation, not-found semantics, delete
// and listing.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing returns ErrSessionNotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("save and load round-trip", func(t *testing.T) {
		sess := domain.NewSession("0")
		sess.Push("0.1")
		sess.Variables["user"] = "alice"
		sess.RecordStep("0.1", map[string]any{"x": "1"}, "ok", time.Now())
		sess.SetShortcut(domain.NewJumpShortcut("home", "0"))

		require.NoError(t, store.Save(ctx, "contract-rt", sess))

		loaded, err := store.Load(ctx, "contract-rt")
		require.NoError(t, err)
		assert.Equal(t, "0.1", loaded.Position)
		assert.Equal(t, []string{"0", "0.1"}, loaded.Stack)
		assert.Equal(t, "alice", loaded.Variables["user"])
		assert.Equal(t, 1, loaded.StepCount)
		assert.Len(t, loaded.History, 1)
		sc, ok := loaded.Shortcut("home")
		assert.True(t, ok)
		assert.Equal(t, "0", sc.Target)
	})

	t.Run("loaded session is isolated from the store", func(t *testing.T) {
		sess := domain.NewSession("0")
		require.NoError(t, store.Save(ctx, "contract-iso", sess))

		first, err := store.Load(ctx, "contract-iso")
		require.NoError(t, err)
		first.Variables["mutated"] = true

		second, err := store.Load(ctx, "contract-iso")
		require.NoError(t, err)
		assert.NotContains(t, second.Variables, "mutated")
	})

	t.Run("delete removes the session", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "contract-del", domain.NewSession("0")))
		require.NoError(t, store.Delete(ctx, "contract-del"))
		_, err := store.Load(ctx, "contract-del")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("list contains saved sessions", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "contract-list", domain.NewSession("0")))
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, "contract-list")
	})
}
