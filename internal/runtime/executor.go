package runtime

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aretw0/lattice/internal/chain"
	"github.com/aretw0/lattice/internal/metrics"
	"github.com/aretw0/lattice/pkg/domain"
)

// DefaultMaxLoopIterations bounds while loops. The chain language itself has
// no iteration limit, so the engine enforces a configurable guard instead of
// assuming all conditions terminate.
const DefaultMaxLoopIterations = 10000

// ErrLoopLimit is reported when a while loop exceeds the iteration guard.
var ErrLoopLimit = errors.New("while loop exceeded the iteration limit")

// StepOutcome is the observable result of one plan step execution.
type StepOutcome struct {
	Index   int    `json:"index"`
	Target  string `json:"target"`
	Result  any    `json:"result,omitempty"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
}

// ChainResult collects the outcomes of a chain execution, in execution
// order. Loop bodies appear once per iteration.
type ChainResult struct {
	Outcomes []StepOutcome `json:"outcomes"`
}

// Last returns the final executed (non-skipped) outcome.
func (r *ChainResult) Last() (StepOutcome, bool) {
	for i := len(r.Outcomes) - 1; i >= 0; i-- {
		if !r.Outcomes[i].Skipped {
			return r.Outcomes[i], true
		}
	}
	return StepOutcome{}, false
}

// Executor walks an execution plan with a single cursor, maintaining
// control-flow state: last condition results, or-group short-circuiting and
// the while-loop back-jump. Steps execute strictly sequentially; each
// invocation completes before the next begins.
type Executor struct {
	resolver *Resolver
	invoker  *Invoker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	maxLoop  int
}

// NewExecutor creates an executor. maxLoop <= 0 selects the default guard.
func NewExecutor(resolver *Resolver, invoker *Invoker, logger *slog.Logger, m *metrics.Metrics, maxLoop int) *Executor {
	if maxLoop <= 0 {
		maxLoop = DefaultMaxLoopIterations
	}
	return &Executor{
		resolver: resolver,
		invoker:  invoker,
		logger:   logger,
		metrics:  m,
		maxLoop:  maxLoop,
	}
}

// Run executes the plan against the session. Session mutations from
// completed steps persist even when a later step fails; partial progress is
// never rolled back.
func (e *Executor) Run(ctx context.Context, sess *domain.Session, plan *chain.Plan) *ChainResult {
	e.metrics.IncChains()

	res := &ChainResult{}
	condResult := make(map[int]bool)
	groupSuccessAlt := make(map[int]int) // group id -> alt index of first success
	iterations := make(map[int]int)      // condition index -> completed iterations

	i := 0
	for i < len(plan.Steps) {
		step := plan.Steps[i]

		if e.skip(step, condResult, groupSuccessAlt) {
			res.Outcomes = append(res.Outcomes, StepOutcome{Index: i, Target: step.Target, Skipped: true})
			i++
			continue
		}

		result, ok := e.Invoke(ctx, sess, step.Target, step.Args)
		res.Outcomes = append(res.Outcomes, StepOutcome{Index: i, Target: step.Target, Result: result, OK: ok})

		if step.Role != chain.RoleNone {
			condResult[i] = Truthy(result, ok)
		}
		if step.Group >= 0 && ok {
			if _, done := groupSuccessAlt[step.Group]; !done {
				groupSuccessAlt[step.Group] = step.Alt
			}
		}

		// End of a live while body: jump back to the condition, which is
		// re-executed each iteration.
		if step.WhileBody && condResult[step.CondRef] && e.lastBodyStep(plan, i, step.CondRef) {
			iterations[step.CondRef]++
			if iterations[step.CondRef] >= e.maxLoop {
				e.logger.Warn("while loop aborted by iteration guard",
					"condition", plan.Steps[step.CondRef].Target, "iterations", iterations[step.CondRef])
				e.metrics.IncLoopLimits()
				res.Outcomes = append(res.Outcomes, StepOutcome{
					Index:  step.CondRef,
					Target: plan.Steps[step.CondRef].Target,
					Result: domain.ErrorResult(plan.Steps[step.CondRef].Target, nil, ErrLoopLimit),
				})
				i++
				continue
			}
			e.resetLoopGroups(plan, step.CondRef, groupSuccessAlt)
			i = step.CondRef
			continue
		}

		i++
	}
	return res
}

// skip applies the control-flow gating rules for a step.
func (e *Executor) skip(step chain.Step, condResult map[int]bool, groupSuccessAlt map[int]int) bool {
	switch step.Branch {
	case chain.BranchThen:
		if !condResult[step.CondRef] {
			return true
		}
	case chain.BranchElse:
		if condResult[step.CondRef] {
			return true
		}
	}
	if step.WhileBody && !condResult[step.CondRef] {
		return true
	}
	if step.Group >= 0 {
		if alt, done := groupSuccessAlt[step.Group]; done && step.Alt > alt {
			return true
		}
	}
	return false
}

// lastBodyStep reports whether i is the final body step of the loop owned
// by condRef.
func (e *Executor) lastBodyStep(plan *chain.Plan, i, condRef int) bool {
	for j := i + 1; j < len(plan.Steps); j++ {
		if plan.Steps[j].WhileBody && plan.Steps[j].CondRef == condRef {
			return false
		}
	}
	return true
}

// resetLoopGroups clears or-group short-circuit state for groups inside a
// loop body so each iteration evaluates its alternatives afresh.
func (e *Executor) resetLoopGroups(plan *chain.Plan, condRef int, groupSuccessAlt map[int]int) {
	for _, s := range plan.Steps {
		if s.WhileBody && s.CondRef == condRef && s.Group >= 0 {
			delete(groupSuccessAlt, s.Group)
		}
	}
}

// Invoke resolves a single target and dispatches it to the invoker.
// "$variable" targets resolve through the session first. Resolution
// failures do not mutate session state. Pathway replay reuses this entry
// point so replayed steps behave exactly like typed ones.
func (e *Executor) Invoke(ctx context.Context, sess *domain.Session, target string, args *domain.Value) (any, bool) {
	typed := target
	if strings.HasPrefix(target, "$") {
		if v, found := sess.Lookup(target[1:]); found {
			target = domain.Stringify(v)
		}
	}

	node, err := e.resolver.ResolveNode(sess, target)
	if err != nil {
		e.logger.Debug("step target did not resolve", "target", typed, "err", err)
		e.metrics.IncResolutionErrors()
		return domain.ErrorResult(typed, rawArgs(args), err), false
	}

	return e.invoker.Invoke(ctx, sess, node, args)
}
