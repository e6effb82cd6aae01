package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/runner"
)

// scriptShell is a minimal dispatch surface that records inputs and exits on
// "exit".
type scriptShell struct {
	inputs []string
}

func (s *scriptShell) NewSession() *domain.Session {
	return domain.NewSession("0")
}

func (s *scriptShell) Dispatch(ctx context.Context, sess *domain.Session, input string) *domain.Response {
	s.inputs = append(s.inputs, input)
	if input == "exit" {
		return &domain.Response{Kind: domain.ResponseExit, Content: "Goodbye.", Position: sess.Position}
	}
	sess.RecordStep(sess.Position, nil, input, time.Now())
	return &domain.Response{Kind: domain.ResponseResult, Content: "ran: " + input, Position: sess.Position}
}

func TestRunLoopDispatchesUntilExit(t *testing.T) {
	shell := &scriptShell{}
	var out bytes.Buffer
	r := runner.NewRunner()
	r.Input = strings.NewReader("hello\nexit\n")
	r.Output = &out

	require.NoError(t, r.Run(context.Background(), shell, ""))

	// The initial "" dispatch renders the starting menu, then the script.
	assert.Equal(t, []string{"", "hello", "exit"}, shell.inputs)
	assert.Contains(t, out.String(), "ran: hello")
	assert.Contains(t, out.String(), "Goodbye.")
}

func TestRunLoopStopsOnEOF(t *testing.T) {
	shell := &scriptShell{}
	r := runner.NewRunner()
	r.Input = strings.NewReader("hello\n")
	r.Output = &bytes.Buffer{}

	require.NoError(t, r.Run(context.Background(), shell, ""))
	assert.Equal(t, []string{"", "hello"}, shell.inputs)
}

func TestRunLoopPersistsSession(t *testing.T) {
	shell := &scriptShell{}
	store := memory.NewStore()
	r := runner.NewRunner()
	r.Store = store
	r.Input = strings.NewReader("hello\nexit\n")
	r.Output = &bytes.Buffer{}

	require.NoError(t, r.Run(context.Background(), shell, "durable"))

	sess, err := store.Load(context.Background(), "durable")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.StepCount)
}

func TestRunLoopResumesExistingSession(t *testing.T) {
	shell := &scriptShell{}
	store := memory.NewStore()
	ctx := context.Background()

	prior := domain.NewSession("0")
	prior.Push("0.2")
	require.NoError(t, store.Save(ctx, "resumable", prior))

	var out bytes.Buffer
	r := runner.NewRunner()
	r.Store = store
	r.Input = strings.NewReader("exit\n")
	r.Output = &out

	require.NoError(t, r.Run(ctx, shell, "resumable"))
	assert.Contains(t, out.String(), "Resumed session resumable at 0.2")
}

func TestSessionManagerEphemeralWithoutStore(t *testing.T) {
	sm := runner.NewSessionManager(nil)
	sess, resumed, err := sm.LoadOrStart(context.Background(), &scriptShell{}, "any")
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, "0", sess.Position)
	assert.NoError(t, sm.Save(context.Background(), "any", sess))
}

func TestSessionManagerReservesNewID(t *testing.T) {
	store := memory.NewStore()
	sm := runner.NewSessionManager(store)
	ctx := context.Background()

	_, resumed, err := sm.LoadOrStart(ctx, &scriptShell{}, "fresh")
	require.NoError(t, err)
	assert.False(t, resumed)

	// The ID is reserved immediately, before any command runs.
	_, err = store.Load(ctx, "fresh")
	assert.NoError(t, err)
}
