package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
)

func TestRedactionMasksMatchingVariables(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := middleware.NewRedactionMiddleware([]string{"(?i)password", "token"})(inner)

	sess := domain.NewSession("0")
	sess.Variables["Password"] = "hunter2"
	sess.Variables["api_token"] = "abc"
	sess.Variables["color"] = "teal"
	sess.Variables["profile"] = map[string]any{"token": "nested", "name": "ada"}

	require.NoError(t, store.Save(ctx, "s1", sess))

	raw, err := inner.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "***", raw.Variables["Password"])
	assert.Equal(t, "***", raw.Variables["api_token"])
	assert.Equal(t, "teal", raw.Variables["color"])
	profile := raw.Variables["profile"].(map[string]any)
	assert.Equal(t, "***", profile["token"])
	assert.Equal(t, "ada", profile["name"])
}

func TestRedactionLeavesInMemorySessionIntact(t *testing.T) {
	ctx := context.Background()
	store := middleware.NewRedactionMiddleware([]string{"token"})(memory.NewStore())

	sess := domain.NewSession("0")
	sess.Variables["token"] = "abc"
	require.NoError(t, store.Save(ctx, "s1", sess))

	assert.Equal(t, "abc", sess.Variables["token"])
}

func TestRedactionMasksStepResults(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := middleware.NewRedactionMiddleware([]string{"step1_result"})(inner)

	sess := domain.NewSession("0")
	sess.StepResults["step1_result"] = "secret"
	sess.StepResults["step2_result"] = "public"

	require.NoError(t, store.Save(ctx, "s1", sess))

	raw, err := inner.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "***", raw.StepResults["step1_result"])
	assert.Equal(t, "public", raw.StepResults["step2_result"])
}
