package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/internal/chain"
	"github.com/aretw0/lattice/pkg/domain"
)

func TestScanTokenizesQuoteAware(t *testing.T) {
	toks, err := chain.Scan(`a {"msg": "x -> y and z"} -> b ()`)
	require.NoError(t, err)
	require.Len(t, toks, 5)
	assert.Equal(t, chain.TokenWord, toks[0].Type)
	assert.Equal(t, chain.TokenJSON, toks[1].Type)
	assert.Equal(t, `{"msg": "x -> y and z"}`, toks[1].Text)
	assert.Equal(t, chain.TokenArrow, toks[2].Type)
	assert.Equal(t, chain.TokenWord, toks[3].Type)
	assert.Equal(t, chain.TokenUnit, toks[4].Type)
}

func TestScanRejectsUnbalancedInput(t *testing.T) {
	for _, input := range []string{
		`a {"msg": "x`,
		`a {"msg": 1`,
		`a )`,
		`a (b)`,
	} {
		_, err := chain.Scan(input)
		require.Error(t, err, "input %q", input)
		var perr *domain.ParseError
		assert.ErrorAs(t, err, &perr)
	}
}

func TestParseSimpleSequence(t *testing.T) {
	plan, err := chain.Parse(`a {"k": 1} -> b () -> c`)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)

	assert.Equal(t, "a", plan.Steps[0].Target)
	require.NotNil(t, plan.Steps[0].Args)
	assert.Equal(t, domain.KindObject, plan.Steps[0].Args.Kind)
	assert.Equal(t, 0, plan.Steps[0].Segment)

	assert.Equal(t, domain.KindUnit, plan.Steps[1].Args.Kind)
	assert.Equal(t, 1, plan.Steps[1].Segment)

	assert.Nil(t, plan.Steps[2].Args)
	assert.Equal(t, 2, plan.Steps[2].Segment)
}

func TestParseAndOrStructure(t *testing.T) {
	plan, err := chain.Parse(`a and b or c`)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)

	assert.Equal(t, chain.OpNone, plan.Steps[0].Operator)
	assert.Equal(t, chain.OpAnd, plan.Steps[1].Operator)
	assert.Equal(t, chain.OpOr, plan.Steps[2].Operator)

	// "or" creates a group; "and"-joined steps share the alternative.
	group := plan.Steps[0].Group
	require.GreaterOrEqual(t, group, 0)
	assert.Equal(t, group, plan.Steps[1].Group)
	assert.Equal(t, group, plan.Steps[2].Group)
	assert.Equal(t, 0, plan.Steps[0].Alt)
	assert.Equal(t, 0, plan.Steps[1].Alt)
	assert.Equal(t, 1, plan.Steps[2].Alt)
}

func TestParseIfThenElse(t *testing.T) {
	plan, err := chain.Parse(`if cond {"k": 1} then a else b`)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)

	assert.Equal(t, chain.RoleCondition, plan.Steps[0].Role)
	assert.Equal(t, chain.BranchThen, plan.Steps[1].Branch)
	assert.Equal(t, 0, plan.Steps[1].CondRef)
	assert.Equal(t, chain.BranchElse, plan.Steps[2].Branch)
	assert.Equal(t, 0, plan.Steps[2].CondRef)
}

func TestParseWhile(t *testing.T) {
	plan, err := chain.Parse(`while cond x body ()`)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)

	assert.Equal(t, chain.RoleWhileCondition, plan.Steps[0].Role)
	assert.True(t, plan.Steps[1].WhileBody)
	assert.Equal(t, 0, plan.Steps[1].CondRef)
}

func TestParseControlFlowAfterArrow(t *testing.T) {
	plan, err := chain.Parse(`setup -> if cond then work else cleanup -> done`)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 5)
	assert.Equal(t, chain.RoleCondition, plan.Steps[1].Role)
	assert.Equal(t, 2, plan.Steps[4].Segment)
	assert.Equal(t, chain.BranchNone, plan.Steps[4].Branch)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"":                "empty chain",
		"a ->":            "trailing",
		"-> a":            "empty segment",
		"if cond a":       "then",
		"while cond body": "without matching 'x'",
		"a then b":        "then",
		"a else b":        "else",
		"a b":             "expected 'and', 'or' or '->'",
		`a {"k": }`:       "argument",
		"if and then b":   "keyword",
	}
	for input, want := range cases {
		_, err := chain.Parse(input)
		require.Error(t, err, "input %q", input)
		assert.Contains(t, err.Error(), want, "input %q", input)
	}
}

// The two front ends must produce structurally identical plans for the
// documented grammar.
func TestStrictAndFallbackParity(t *testing.T) {
	inputs := []string{
		`a`,
		`a {"k": 1}`,
		`a () -> b {"k": "$last_result"} -> c`,
		`a and b`,
		`a or b or c`,
		`a and b or c and d`,
		`if cond then a`,
		`if cond {"k": 1} then a {"x": 2} else b ()`,
		`while cond x body`,
		`setup -> while cond x a and b -> done`,
	}
	for _, input := range inputs {
		strict, err := chain.ParseStrict(input)
		require.NoError(t, err, "strict %q", input)
		fallback, err := chain.ParseFallback(input)
		require.NoError(t, err, "fallback %q", input)
		assert.Equal(t, strict.Steps, fallback.Steps, "plans diverge for %q", input)
	}
}

func TestParseVariableRefArgs(t *testing.T) {
	plan, err := chain.Parse(`a {"v": "$x", "t": "pre {$y} post"}`)
	require.NoError(t, err)
	args := plan.Steps[0].Args
	require.NotNil(t, args)
	assert.Equal(t, domain.KindVariableRef, args.Fields["v"].Kind)
	assert.Equal(t, "x", args.Fields["v"].Ref)
	assert.Equal(t, domain.KindTemplate, args.Fields["t"].Kind)
}
