package chain

import (
	"github.com/aretw0/lattice/pkg/domain"
)

// ParseFallback is the manual front end. It tokenizes with the same
// quote/brace-aware scanner, then builds the plan by flat splitting: first
// on top-level "->", then on "or" (lower precedence), then on "and". It
// produces structurally identical plans to ParseStrict for the supported
// subset and exists as the fallback path for inputs the grammar rejects.
func ParseFallback(input string) (*Plan, error) {
	toks, err := Scan(input)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, &domain.ParseError{Input: input, Pos: 0, Msg: "empty chain"}
	}

	b := &fallbackBuilder{input: input, plan: &Plan{Source: input}}
	for segIdx, seg := range splitOn(toks, "->") {
		if len(seg) == 0 {
			return nil, &domain.ParseError{Input: input, Pos: 0, Msg: "empty segment"}
		}
		if err := b.buildSegment(segIdx, seg); err != nil {
			return nil, err
		}
	}
	return b.plan, nil
}

type fallbackBuilder struct {
	input     string
	plan      *Plan
	nextGroup int
}

func (b *fallbackBuilder) errorf(pos int, msg string) error {
	return &domain.ParseError{Input: b.input, Pos: pos, Msg: msg}
}

func (b *fallbackBuilder) buildSegment(seg int, toks []Token) error {
	switch first := toks[0]; {
	case first.Type == TokenWord && first.Text == kwIf:
		return b.buildIf(seg, toks)
	case first.Type == TokenWord && first.Text == kwWhile:
		return b.buildWhile(seg, toks)
	default:
		return b.buildGroup(seg, toks, BranchNone, false, -1)
	}
}

func (b *fallbackBuilder) buildIf(seg int, toks []Token) error {
	rest := toks[1:]
	thenIdx := indexOfWord(rest, kwThen)
	if thenIdx < 0 {
		return b.errorf(toks[0].Pos, "'if' without matching 'then'")
	}
	condIdx := len(b.plan.Steps)
	cond, err := b.singleAtom(rest[:thenIdx])
	if err != nil {
		return err
	}
	cond.Role = RoleCondition
	cond.Segment = seg
	b.plan.Steps = append(b.plan.Steps, cond)

	branches := rest[thenIdx+1:]
	elseIdx := indexOfWord(branches, kwElse)
	thenToks := branches
	var elseToks []Token
	if elseIdx >= 0 {
		thenToks = branches[:elseIdx]
		elseToks = branches[elseIdx+1:]
	}
	if err := b.buildGroup(seg, thenToks, BranchThen, false, condIdx); err != nil {
		return err
	}
	if elseIdx >= 0 {
		return b.buildGroup(seg, elseToks, BranchElse, false, condIdx)
	}
	return nil
}

func (b *fallbackBuilder) buildWhile(seg int, toks []Token) error {
	rest := toks[1:]
	loopIdx := indexOfWord(rest, kwLoop)
	if loopIdx < 0 {
		return b.errorf(toks[0].Pos, "'while' without matching 'x'")
	}
	condIdx := len(b.plan.Steps)
	cond, err := b.singleAtom(rest[:loopIdx])
	if err != nil {
		return err
	}
	cond.Role = RoleWhileCondition
	cond.Segment = seg
	b.plan.Steps = append(b.plan.Steps, cond)

	return b.buildGroup(seg, rest[loopIdx+1:], BranchNone, true, condIdx)
}

func (b *fallbackBuilder) buildGroup(seg int, toks []Token, branch Branch, whileBody bool, condRef int) error {
	if len(toks) == 0 {
		return b.errorf(0, "expected target")
	}
	alternatives := splitOn(toks, kwOr)
	groupID := -1
	if len(alternatives) > 1 {
		groupID = b.nextGroup
		b.nextGroup++
	}
	for alt, altToks := range alternatives {
		runs := splitOn(altToks, kwAnd)
		for runIdx, atomToks := range runs {
			step, err := b.singleAtom(atomToks)
			if err != nil {
				return err
			}
			switch {
			case alt == 0 && runIdx == 0:
				step.Operator = OpNone
			case runIdx == 0:
				step.Operator = OpOr
			default:
				step.Operator = OpAnd
			}
			step.Branch = branch
			step.WhileBody = whileBody
			step.CondRef = condRef
			step.Segment = seg
			step.Group = groupID
			step.Alt = alt
			b.plan.Steps = append(b.plan.Steps, step)
		}
	}
	return nil
}

// singleAtom parses exactly one "target [args]" pair from a token run.
func (b *fallbackBuilder) singleAtom(toks []Token) (Step, error) {
	if len(toks) == 0 {
		return Step{}, b.errorf(0, "expected target")
	}
	tok := toks[0]
	if tok.Type != TokenWord {
		return Step{}, b.errorf(tok.Pos, "expected target, got "+tok.Text)
	}
	if isReserved(tok.Text) {
		return Step{}, b.errorf(tok.Pos, "unexpected keyword "+tok.Text)
	}
	step := Step{Target: tok.Text, CondRef: -1, Group: -1}
	rest := toks[1:]
	if len(rest) > 0 {
		switch rest[0].Type {
		case TokenJSON:
			v, err := domain.ParseValue(rest[0].Text)
			if err != nil {
				return Step{}, b.errorf(rest[0].Pos, "invalid argument literal: "+err.Error())
			}
			step.Args = &v
			rest = rest[1:]
		case TokenUnit:
			u := domain.Unit()
			step.Args = &u
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		return Step{}, b.errorf(rest[0].Pos, "unexpected token "+rest[0].Text)
	}
	return step, nil
}

// splitOn splits a token run on a separator word (or the arrow token when
// sep is "->"), never looking inside JSON literals since those are single
// tokens already.
func splitOn(toks []Token, sep string) [][]Token {
	var out [][]Token
	start := 0
	for i, tok := range toks {
		isSep := false
		if sep == "->" {
			isSep = tok.Type == TokenArrow
		} else {
			isSep = tok.Type == TokenWord && tok.Text == sep
		}
		if isSep {
			out = append(out, toks[start:i])
			start = i + 1
		}
	}
	out = append(out, toks[start:])
	return out
}

func indexOfWord(toks []Token, word string) int {
	for i, tok := range toks {
		if tok.Type == TokenWord && tok.Text == word {
			return i
		}
	}
	return -1
}
