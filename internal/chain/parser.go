package chain

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// Parse builds an execution plan for a chain command. The strict grammar
// parser is the primary front end; when it rejects the input, the manual
// fallback scanner gets a chance (it covers the same documented subset but
// is more permissive about token shapes). If both reject, the strict error
// is reported since it carries positions.
func Parse(input string) (*Plan, error) {
	plan, err := ParseStrict(input)
	if err == nil {
		return plan, nil
	}
	if fbPlan, fbErr := ParseFallback(input); fbErr == nil {
		return fbPlan, nil
	}
	return nil, err
}

// ParseStrict is the grammar-driven front end. It tokenizes, splits on
// top-level "->" into segments, detects control keywords positionally and
// produces a fully annotated plan. Malformed JSON, unbalanced quotes or
// braces and dangling "then"/"else"/"x" are rejected before any execution.
func ParseStrict(input string) (*Plan, error) {
	toks, err := Scan(input)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, &domain.ParseError{Input: input, Pos: 0, Msg: "empty chain"}
	}
	p := &parser{input: input, toks: toks, plan: &Plan{Source: input}}
	seg := 0
	for {
		if err := p.parseSegment(seg); err != nil {
			return nil, err
		}
		if p.atEnd() {
			break
		}
		// parseSegment only stops mid-stream at an arrow.
		p.pos++
		seg++
		if p.atEnd() {
			return nil, &domain.ParseError{Input: input, Pos: len(input), Msg: "trailing '->'"}
		}
	}
	return p.plan, nil
}

type parser struct {
	input     string
	toks      []Token
	pos       int
	plan      *Plan
	nextGroup int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() (Token, bool) {
	if p.atEnd() {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) peekWord() (string, bool) {
	tok, ok := p.peek()
	if !ok || tok.Type != TokenWord {
		return "", false
	}
	return tok.Text, true
}

func (p *parser) peekArrow() bool {
	tok, ok := p.peek()
	return ok && tok.Type == TokenArrow
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &domain.ParseError{Input: p.input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseSegment(seg int) error {
	if p.atEnd() || p.peekArrow() {
		tok, _ := p.peek()
		return p.errorf(tok.Pos, "empty segment")
	}
	word, ok := p.peekWord()
	switch {
	case ok && word == kwIf:
		return p.parseIf(seg)
	case ok && word == kwWhile:
		return p.parseWhile(seg)
	default:
		return p.parseGroup(seg, BranchNone, false, -1, nil)
	}
}

func (p *parser) parseIf(seg int) error {
	p.pos++ // "if"
	condIdx := len(p.plan.Steps)
	cond, err := p.parseAtom(seg)
	if err != nil {
		return err
	}
	cond.Role = RoleCondition
	p.plan.Steps = append(p.plan.Steps, cond)

	word, ok := p.peekWord()
	if !ok || word != kwThen {
		tok, _ := p.peek()
		pos := len(p.input)
		if ok || tok.Text != "" {
			pos = tok.Pos
		}
		return p.errorf(pos, "'if' without matching 'then'")
	}
	p.pos++ // "then"

	if err := p.parseGroup(seg, BranchThen, false, condIdx, map[string]bool{kwElse: true}); err != nil {
		return err
	}

	if word, ok := p.peekWord(); ok && word == kwElse {
		p.pos++ // "else"
		if err := p.parseGroup(seg, BranchElse, false, condIdx, nil); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseWhile(seg int) error {
	p.pos++ // "while"
	condIdx := len(p.plan.Steps)
	cond, err := p.parseAtom(seg)
	if err != nil {
		return err
	}
	cond.Role = RoleWhileCondition
	p.plan.Steps = append(p.plan.Steps, cond)

	word, ok := p.peekWord()
	if !ok || word != kwLoop {
		tok, _ := p.peek()
		pos := len(p.input)
		if ok || tok.Text != "" {
			pos = tok.Pos
		}
		return p.errorf(pos, "'while' without matching 'x'")
	}
	p.pos++ // "x"

	return p.parseGroup(seg, BranchNone, true, condIdx, nil)
}

// parseGroup parses a run of atoms joined by "and"/"or". "or" has lower
// precedence: the group splits into or-alternatives, each of which may be an
// "and"-joined run. Stops at end of input, a top-level arrow, or any word in
// stops (consumed by the caller).
func (p *parser) parseGroup(seg int, branch Branch, whileBody bool, condRef int, stops map[string]bool) error {
	groupID := -1
	alt := 0
	op := OpNone
	firstIdx := len(p.plan.Steps)

	for {
		step, err := p.parseAtom(seg)
		if err != nil {
			return err
		}
		step.Operator = op
		step.Branch = branch
		step.WhileBody = whileBody
		step.CondRef = condRef
		step.Group = groupID
		step.Alt = alt
		p.plan.Steps = append(p.plan.Steps, step)

		if p.atEnd() || p.peekArrow() {
			return nil
		}
		tok, _ := p.peek()
		word, ok := p.peekWord()
		if !ok {
			return p.errorf(tok.Pos, "expected 'and', 'or' or '->', got %q", tok.Text)
		}
		if stops[word] {
			return nil
		}
		switch word {
		case kwAnd:
			p.pos++
			op = OpAnd
		case kwOr:
			p.pos++
			if groupID == -1 {
				groupID = p.nextGroup
				p.nextGroup++
				for j := firstIdx; j < len(p.plan.Steps); j++ {
					p.plan.Steps[j].Group = groupID
				}
			}
			alt++
			op = OpOr
		case kwThen:
			return p.errorf(tok.Pos, "'then' without matching 'if'")
		case kwElse:
			return p.errorf(tok.Pos, "'else' without matching 'if'")
		case kwLoop:
			return p.errorf(tok.Pos, "'x' without matching 'while'")
		case kwIf, kwWhile:
			return p.errorf(tok.Pos, "%q must start its own segment", word)
		default:
			return p.errorf(tok.Pos, "expected 'and', 'or' or '->' before %q", word)
		}
	}
}

// parseAtom parses one "target [args]" pair.
func (p *parser) parseAtom(seg int) (Step, error) {
	tok, ok := p.peek()
	if !ok {
		return Step{}, p.errorf(len(p.input), "expected target")
	}
	if tok.Type != TokenWord {
		return Step{}, p.errorf(tok.Pos, "expected target, got %q", tok.Text)
	}
	if isReserved(tok.Text) {
		return Step{}, p.errorf(tok.Pos, "unexpected keyword %q", tok.Text)
	}
	p.pos++

	step := Step{Target: tok.Text, CondRef: -1, Segment: seg, Group: -1}
	if next, ok := p.peek(); ok {
		switch next.Type {
		case TokenJSON:
			v, err := domain.ParseValue(next.Text)
			if err != nil {
				return Step{}, p.errorf(next.Pos, "invalid argument literal: %v", err)
			}
			step.Args = &v
			p.pos++
		case TokenUnit:
			u := domain.Unit()
			step.Args = &u
			p.pos++
		}
	}
	return step, nil
}
