package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/domain"
)

func lastOutcome(t *testing.T, resp *domain.Response) runtime.StepOutcome {
	t.Helper()
	res, ok := resp.Data.(*runtime.ChainResult)
	require.True(t, ok, "expected chain result data, got %T", resp.Data)
	last, ok := res.Last()
	require.True(t, ok)
	return last
}

func TestChainSequencingThreadsLastResult(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `chain count () -> echo {"value": "$last_result"}`)
	require.Equal(t, domain.ResponseResult, resp.Kind)
	assert.Equal(t, 1, lastOutcome(t, resp).Result)

	// Step results accumulate with strictly increasing indices.
	assert.Equal(t, 2, sess.StepCount)
	v, ok := sess.Lookup("step1_result")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestChainAndRunsBothSteps(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `chain echo {"value": "a"} and echo {"value": "b"}`)
	require.Equal(t, domain.ResponseResult, resp.Kind)
	assert.Equal(t, "b", lastOutcome(t, resp).Result)
	assert.Equal(t, 2, f.countOf("echo"))
}

func TestChainOrShortCircuitsAfterSuccess(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `chain fail () or echo {"value": "rescue"} or count ()`)
	require.Equal(t, domain.ResponseResult, resp.Kind)

	assert.Equal(t, "rescue", lastOutcome(t, resp).Result)
	assert.Equal(t, 1, f.countOf("fail"))
	assert.Equal(t, 1, f.countOf("echo"))
	assert.Equal(t, 0, f.countOf("count"), "third alternative must be skipped")

	res := resp.Data.(*runtime.ChainResult)
	require.Len(t, res.Outcomes, 3)
	assert.False(t, res.Outcomes[0].OK)
	assert.True(t, res.Outcomes[1].OK)
	assert.True(t, res.Outcomes[2].Skipped)
}

func TestChainIfThenElseAreExclusive(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	// counter == 0 so check 1 is true: then-branch runs, else skipped.
	resp := f.dispatch(sess, `chain if check {"limit": 1} then echo {"value": "yes"} else count ()`)
	require.Equal(t, domain.ResponseResult, resp.Kind)
	assert.Equal(t, "yes", lastOutcome(t, resp).Result)
	assert.Equal(t, 0, f.countOf("count"))

	// counter == 0, check 0 is false: else-branch runs.
	resp = f.dispatch(sess, `chain if check {"limit": 0} then echo {"value": "yes"} else count ()`)
	assert.Equal(t, 1, lastOutcome(t, resp).Result)
	assert.Equal(t, 1, f.countOf("count"))
	assert.Equal(t, 1, f.countOf("echo"))
}

func TestChainFailedConditionIsFalse(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `chain if fail () then echo {"value": "yes"} else echo {"value": "no"}`)
	assert.Equal(t, "no", lastOutcome(t, resp).Result)
}

func TestChainWhileRunsBodyPerIteration(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	f.dispatch(sess, `chain while check {"limit": 3} x count ()`)

	assert.Equal(t, 3, f.counter)
	assert.Equal(t, 3, f.countOf("count"))
	// Condition runs once more than the body: 3 true + 1 final false.
	assert.Equal(t, 4, f.countOf("check"))
}

func TestChainWhileFalseConditionSkipsBody(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	f.dispatch(sess, `chain while check {"limit": 0} x count ()`)

	assert.Equal(t, 0, f.countOf("count"))
	assert.Equal(t, 1, f.countOf("check"))
}

func TestChainWhileIterationGuard(t *testing.T) {
	f := newFixture(t, runtime.WithMaxLoopIterations(5))
	sess := f.engine.NewSession()

	// echo "t" is always truthy: the guard must stop the loop.
	resp := f.dispatch(sess, `chain while echo {"value": "t"} x count ()`)

	assert.Equal(t, 5, f.countOf("count"))
	last := lastOutcome(t, resp)
	assert.True(t, domain.IsErrorResult(last.Result), "guard must surface a loop-limit error result")
}

func TestChainWhileContinuesPastLoopAfterGuard(t *testing.T) {
	f := newFixture(t, runtime.WithMaxLoopIterations(2))
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `chain while echo {"value": "t"} x count () -> echo {"value": "after"}`)

	assert.Equal(t, 2, f.countOf("count"))
	assert.Equal(t, "after", lastOutcome(t, resp).Result)
}

func TestUnitArgsInvokeWithZeroArguments(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	// "()" forces a zero-argument call; "{}" passes an empty object.
	resp := f.dispatch(sess, `chain probe ()`)
	assert.Equal(t, 0, lastOutcome(t, resp).Result)

	resp = f.dispatch(sess, `chain probe {}`)
	assert.Equal(t, 1, lastOutcome(t, resp).Result)
}

func TestChainContinuesPastUngatedFailure(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `chain fail () -> echo {"value": "still here"}`)
	assert.Equal(t, "still here", lastOutcome(t, resp).Result)

	res := resp.Data.(*runtime.ChainResult)
	assert.False(t, res.Outcomes[0].OK)
	assert.True(t, domain.IsErrorResult(res.Outcomes[0].Result))
}

func TestChainMenuTargetNavigates(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	f.dispatch(sess, `chain tools`)
	assert.Equal(t, "0.1", sess.Position)
	assert.Equal(t, []string{"0", "0.1"}, sess.Stack)
}

func TestChainResolutionFailureDoesNotMutateSession(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `chain nonsense_target_xyz`)
	last := lastOutcome(t, resp)
	assert.False(t, last.OK)
	assert.True(t, domain.IsErrorResult(last.Result))
	assert.Equal(t, 0, sess.StepCount)
	assert.Equal(t, "0", sess.Position)
}

func TestChainParseErrorResponse(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `chain echo {"value": "x"`)
	assert.Equal(t, domain.ResponseError, resp.Kind)
	assert.Contains(t, resp.Content, "Error")
}
