package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store "github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports/tests"
)

func newTestStore(t *testing.T, opts ...store.Option) (*store.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return store.NewFromClient(client, opts...), mr
}

func TestStoreContract(t *testing.T) {
	s, _ := newTestStore(t)
	tests.RunSessionStoreContract(t, s)
}

func TestSaveUsesConfiguredPrefix(t *testing.T) {
	s, mr := newTestStore(t, store.WithPrefix("custom:"))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "abc", domain.NewSession("0")))
	assert.True(t, mr.Exists("custom:abc"))
	assert.True(t, mr.Exists("custom:index"))
}

func TestSessionsExpireWithTTL(t *testing.T) {
	s, mr := newTestStore(t, store.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "ephemeral", domain.NewSession("0")))
	_, err := s.Load(ctx, "ephemeral")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = s.Load(ctx, "ephemeral")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCorruptPayloadSurfacesError(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	mr.Set("lattice:session:bad", "{not json")
	_, err := s.Load(ctx, "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
