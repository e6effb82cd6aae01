package chain

import "github.com/aretw0/lattice/pkg/domain"

// Operator joins a step to its predecessor within a segment.
type Operator int

const (
	OpNone Operator = iota
	OpAnd
	OpOr
)

// Branch marks conditional membership.
type Branch int

const (
	BranchNone Branch = iota
	BranchThen
	BranchElse
)

// Role marks condition steps.
type Role int

const (
	RoleNone Role = iota
	RoleCondition
	RoleWhileCondition
)

// Step is one element of an execution plan.
//
// Invariant: every step with Branch != BranchNone or WhileBody set has a
// valid CondRef pointing to an earlier step whose Role is a condition role.
type Step struct {
	// Target is a coordinate, alias or "$variable" reference.
	Target string

	// Args is the parsed argument literal. nil means no argument token was
	// written, which invokes with zero arguments like the "()" sentinel.
	Args *domain.Value

	Operator Operator
	Branch   Branch

	// WhileBody marks steps belonging to a while loop body.
	WhileBody bool

	Role Role

	// CondRef is the index of the owning condition step, or -1.
	CondRef int

	// Segment is the index of the "->"-delimited group this step belongs to.
	Segment int

	// Group identifies the or-group this step belongs to, or -1. Steps in
	// one group share short-circuit state.
	Group int

	// Alt is the or-alternative index within the group. "and"-joined steps
	// share their alternative.
	Alt int
}

// Plan is the flat, ordered instruction list produced by parsing a chain
// command.
type Plan struct {
	Source string
	Steps  []Step
}

// Conditions returns the indices of condition steps, for diagnostics.
func (p *Plan) Conditions() []int {
	var out []int
	for i, s := range p.Steps {
		if s.Role != RoleNone {
			out = append(out, i)
		}
	}
	return out
}

// lastBodyStep reports the index of the final while-body step owned by the
// condition at condRef, or -1.
func (p *Plan) lastBodyStep(condRef int) int {
	last := -1
	for i, s := range p.Steps {
		if s.WhileBody && s.CondRef == condRef {
			last = i
		}
	}
	return last
}
