package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/lattice/internal/chain"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/metrics"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// maxAliasDepth bounds transitive alias expansion at dispatch time. Cycles
// are rejected at definition time; the depth guard covers aliases defined
// before their dependencies changed.
const maxAliasDepth = 16

// Engine is the command dispatcher: it classifies one line of input,
// resolves it against the tree and the session, executes it and shapes a
// structured response. It never panics across the boundary and never
// returns a raw error; failures become error responses and the session
// stays usable.
type Engine struct {
	tree     *Tree
	resolver *Resolver
	invoker  *Invoker
	executor *Executor
	pathways *Pathways
	registry ports.CallableRegistry
	logger   *slog.Logger
	metrics  *metrics.Metrics

	root       string
	systemBase string
	maxLoop    int
	now        func() time.Time
}

// NewEngine builds an engine over a tree loader and a callable registry.
func NewEngine(loader ports.TreeLoader, registry ports.CallableRegistry, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: registry,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	tree, err := NewTree(loader)
	if err != nil {
		return nil, err
	}
	e.tree = tree
	e.resolver = NewResolver(tree, e.systemBase)

	e.invoker = NewInvoker(tree, registry, e.logger, e.metrics)
	e.invoker.now = e.now

	e.pathways = NewPathways(tree, e.logger)
	e.pathways.now = e.now
	e.invoker.template = e.pathways.Lookup
	e.invoker.replay = e.pathways.Replay

	e.executor = NewExecutor(e.resolver, e.invoker, e.logger, e.metrics, e.maxLoop)
	e.pathways.exec = e.executor.Invoke

	if e.root == "" {
		e.root = defaultRoot(tree)
	}
	if _, ok := tree.Node(e.root); !ok {
		return nil, fmt.Errorf("root coordinate %q does not exist", e.root)
	}
	return e, nil
}

// defaultRoot picks "0" when present, otherwise the first coordinate.
func defaultRoot(tree *Tree) string {
	if _, ok := tree.Node("0"); ok {
		return "0"
	}
	coords := tree.Coordinates()
	if len(coords) > 0 {
		return coords[0]
	}
	return ""
}

// NewSession creates a session positioned at the engine's root.
func (e *Engine) NewSession() *domain.Session {
	return domain.NewSession(e.root)
}

// Tree exposes the indexed tree for introspection hosts.
func (e *Engine) Tree() *Tree { return e.tree }

// Nodes returns every node in the tree, sorted by coordinate.
func (e *Engine) Nodes() []*domain.Node { return e.tree.Nodes() }

// Pathways exposes the crystallized templates for introspection hosts.
func (e *Engine) Pathways() *Pathways { return e.pathways }

// Dispatch executes one line of input against the session and returns the
// response. The session is mutated in place; the caller owns persistence.
func (e *Engine) Dispatch(ctx context.Context, sess *domain.Session, input string) *domain.Response {
	input = strings.TrimSpace(input)
	first, rest := splitCommand(input)

	switch first {
	case "", "menu":
		return e.menuResponse(sess)
	case "back":
		if _, ok := sess.Back(); !ok {
			return e.infoResponse(sess, "Already at the starting position.")
		}
		return e.menuResponse(sess)
	case "exit":
		return &domain.Response{Kind: domain.ResponseExit, Content: "Bye.", Position: sess.Position}
	case "build_pathway":
		sess.Recording = true
		sess.PathwayBuffer = nil
		return e.infoResponse(sess, "Recording started. Finish with `save_emergent_pathway <name>`.")
	case "save_emergent_pathway":
		return e.savePathway(sess, rest)
	case "shortcut":
		return e.defineShortcut(sess, rest)
	}

	// Everything past this point executes steps and is captured when a
	// pathway recording is active. The position recorded is the position
	// the command ran from.
	if sess.Recording {
		sess.PathwayBuffer = append(sess.PathwayBuffer, domain.RecordedCommand{
			Raw:      input,
			Position: sess.Position,
			At:       e.now(),
		})
	}

	switch {
	case first == "jump":
		return e.jump(ctx, sess, rest)
	case first == "chain":
		return e.chain(ctx, sess, rest)
	case isDigits(first):
		return e.selectOption(ctx, sess, first, rest)
	default:
		return e.alias(ctx, sess, first, rest, 0)
	}
}

// splitCommand separates the command word from its remainder.
func splitCommand(input string) (first, rest string) {
	if i := strings.IndexAny(input, " \t"); i >= 0 {
		return input[:i], strings.TrimSpace(input[i+1:])
	}
	return input, ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// menuResponse renders the current node as a markdown menu.
func (e *Engine) menuResponse(sess *domain.Session) *domain.Response {
	node, ok := e.tree.Node(sess.Position)
	if !ok {
		return e.errorResponse(sess, sess.Position, nil,
			&domain.ResolutionError{Token: sess.Position, Candidate: sess.Position})
	}
	return &domain.Response{
		Kind:     domain.ResponseMenu,
		Content:  renderMenu(node),
		Data:     node,
		Position: sess.Position,
	}
}

func renderMenu(node *domain.Node) string {
	var sb strings.Builder
	title := node.Prompt
	if title == "" {
		title = node.Name
	}
	if title == "" {
		title = node.Coordinate
	}
	fmt.Fprintf(&sb, "## %s\n", title)
	fmt.Fprintf(&sb, "\n`%s`\n", node.Coordinate)
	if node.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", node.Description)
	}
	if len(node.Options) > 0 {
		sb.WriteString("\n")
		for _, opt := range node.Options {
			label := opt.Label
			if label == "" {
				label = opt.Target
			}
			fmt.Fprintf(&sb, "%s. %s\n", opt.Key, label)
		}
	}
	return sb.String()
}

// jump executes `jump <token> [args]`: resolve one target and invoke it.
func (e *Engine) jump(ctx context.Context, sess *domain.Session, rest string) *domain.Response {
	token, argText := splitCommand(rest)
	if token == "" {
		return e.errorResponse(sess, "jump", nil, fmt.Errorf("jump requires a target"))
	}
	args, err := parseArgText(argText)
	if err != nil {
		e.metrics.IncParseErrors()
		return e.errorResponse(sess, token, argText, err)
	}
	result, _ := e.executor.Invoke(ctx, sess, token, args)
	return e.resultResponse(sess, result)
}

// selectOption executes `<digit> [args]` against the current menu node.
func (e *Engine) selectOption(ctx context.Context, sess *domain.Session, key, argText string) *domain.Response {
	node, ok := e.tree.Node(sess.Position)
	if !ok || node.IsCallable() {
		return e.errorResponse(sess, key, nil, fmt.Errorf("no menu at %q", sess.Position))
	}
	target, ok := node.OptionTarget(key)
	if !ok {
		return e.errorResponse(sess, key, nil, fmt.Errorf("option %q not on this menu", key))
	}
	args, err := parseArgText(argText)
	if err != nil {
		e.metrics.IncParseErrors()
		return e.errorResponse(sess, target, argText, err)
	}
	result, _ := e.executor.Invoke(ctx, sess, target, args)
	return e.resultResponse(sess, result)
}

// chain parses and executes a chain expression.
func (e *Engine) chain(ctx context.Context, sess *domain.Session, expr string) *domain.Response {
	plan, err := chain.Parse(expr)
	if err != nil {
		e.metrics.IncParseErrors()
		return e.errorResponse(sess, "chain", expr, err)
	}
	res := e.executor.Run(ctx, sess, plan)
	last, _ := res.Last()
	return &domain.Response{
		Kind:     domain.ResponseResult,
		Content:  renderResult(last.Result),
		Data:     res,
		Position: sess.Position,
	}
}

// alias executes `<alias> [args]`. Jump aliases invoke their target; chain
// aliases bind their parameters as session variables, expand and run.
func (e *Engine) alias(ctx context.Context, sess *domain.Session, name, argText string, depth int) *domain.Response {
	if depth >= maxAliasDepth {
		return e.errorResponse(sess, name, nil, &domain.AliasCycleError{Name: name})
	}
	sc, ok := sess.Shortcut(name)
	if !ok {
		e.metrics.IncResolutionErrors()
		return e.errorResponse(sess, name, nil,
			fmt.Errorf("unknown command %q (expected menu, back, exit, jump, chain, shortcut, a digit or an alias)", name))
	}

	args, err := parseArgText(argText)
	if err != nil {
		e.metrics.IncParseErrors()
		return e.errorResponse(sess, name, argText, err)
	}

	if sc.Kind == domain.ShortcutJump {
		result, _ := e.executor.Invoke(ctx, sess, sc.Target, args)
		return e.resultResponse(sess, result)
	}

	// Chain alias: bind supplied arguments to the template's parameters.
	if args != nil && args.Kind == domain.KindObject {
		for _, key := range args.Keys {
			sess.Variables[key] = args.Fields[key].Resolve(sess.Lookup)
		}
	}
	expanded := sc.Substitute(sess.Lookup)

	first, rest := splitCommand(expanded)
	switch {
	case first == "chain":
		return e.chain(ctx, sess, rest)
	case first == "jump":
		return e.jump(ctx, sess, rest)
	default:
		if _, isAlias := sess.Shortcut(first); isAlias {
			return e.alias(ctx, sess, first, rest, depth+1)
		}
		return e.chain(ctx, sess, expanded)
	}
}

// defineShortcut handles both alias forms:
//
//	shortcut <alias> <coordinate>
//	shortcut <alias> "<chain template>"
func (e *Engine) defineShortcut(sess *domain.Session, rest string) *domain.Response {
	toks, err := chain.Scan(rest)
	if err != nil {
		e.metrics.IncParseErrors()
		return e.errorResponse(sess, "shortcut", rest, err)
	}
	if len(toks) != 2 || toks[0].Type != chain.TokenWord {
		return e.errorResponse(sess, "shortcut", rest,
			fmt.Errorf(`usage: shortcut <alias> <coordinate> | shortcut <alias> "<chain template>"`))
	}
	name := toks[0].Text

	var sc domain.Shortcut
	switch toks[1].Type {
	case chain.TokenJSON:
		var template string
		if err := json.Unmarshal([]byte(toks[1].Text), &template); err != nil {
			return e.errorResponse(sess, "shortcut", rest, fmt.Errorf("chain template must be a quoted string: %w", err))
		}
		sc = domain.NewChainShortcut(name, template)
	case chain.TokenWord:
		sc = domain.NewJumpShortcut(name, toks[1].Text)
	default:
		return e.errorResponse(sess, "shortcut", rest, fmt.Errorf("invalid shortcut target"))
	}

	if err := e.checkAliasCycle(sess, sc); err != nil {
		return e.errorResponse(sess, "shortcut", rest, err)
	}
	sess.SetShortcut(sc)

	if sc.Kind == domain.ShortcutChain && len(sc.Params) > 0 {
		return e.infoResponse(sess, fmt.Sprintf("Shortcut `%s` saved (args: $%s).",
			name, strings.Join(sc.Params, ", $")))
	}
	return e.infoResponse(sess, fmt.Sprintf("Shortcut `%s` saved.", name))
}

// checkAliasCycle rejects a definition that would reference itself, directly
// or through other aliases.
func (e *Engine) checkAliasCycle(sess *domain.Session, sc domain.Shortcut) error {
	seen := map[string]bool{sc.Name: true}
	var visit func(ref domain.Shortcut, via string) error
	visit = func(ref domain.Shortcut, via string) error {
		for _, next := range aliasRefs(ref) {
			if next == sc.Name {
				return &domain.AliasCycleError{Name: sc.Name, Via: via}
			}
			if seen[next] {
				continue
			}
			seen[next] = true
			if target, ok := sess.Shortcut(next); ok {
				if err := visit(target, next); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return visit(sc, sc.Name)
}

// aliasRefs lists the tokens of a shortcut body that could name another
// alias.
func aliasRefs(sc domain.Shortcut) []string {
	if sc.Kind == domain.ShortcutJump {
		return []string{sc.Target}
	}
	toks, err := chain.Scan(sc.Template)
	if err != nil {
		return nil
	}
	var out []string
	for _, t := range toks {
		if t.Type == chain.TokenWord {
			out = append(out, t.Text)
		}
	}
	return out
}

// savePathway ends a recording and crystallizes it under the given name.
func (e *Engine) savePathway(sess *domain.Session, name string) *domain.Response {
	if !sess.Recording {
		return e.errorResponse(sess, "save_emergent_pathway", name,
			fmt.Errorf("no recording in progress; start one with `build_pathway`"))
	}
	sess.Recording = false
	buffer := sess.PathwayBuffer
	sess.PathwayBuffer = nil

	steps, err := e.bufferSteps(sess, buffer)
	if err != nil {
		return e.errorResponse(sess, "save_emergent_pathway", name, err)
	}
	tmpl, err := e.pathways.Crystallize(sess, name, steps)
	if err != nil {
		return e.errorResponse(sess, "save_emergent_pathway", name, err)
	}

	msg := fmt.Sprintf("Pathway `%s` crystallized at `%s` (%s, %d steps).",
		tmpl.Name, tmpl.Coordinate, tmpl.Kind, len(tmpl.Steps))
	if len(tmpl.Entry) > 0 {
		msg += fmt.Sprintf(" Entry args: %s.", strings.Join(tmpl.Entry, ", "))
	}
	return &domain.Response{
		Kind:     domain.ResponseInfo,
		Content:  msg,
		Data:     tmpl,
		Position: sess.Position,
	}
}

// bufferSteps normalizes recorded raw commands into pathway steps. Menu
// option digits resolve against the node the command ran from. Chains with
// control flow cannot crystallize into a linear template.
func (e *Engine) bufferSteps(sess *domain.Session, buffer []domain.RecordedCommand) ([]PathwayStep, error) {
	var steps []PathwayStep
	for _, rc := range buffer {
		first, rest := splitCommand(rc.Raw)
		switch {
		case first == "jump":
			token, argText := splitCommand(rest)
			args, err := parseArgText(argText)
			if err != nil {
				return nil, fmt.Errorf("recorded command %q: %w", rc.Raw, err)
			}
			steps = append(steps, PathwayStep{Target: token, Args: args})
		case first == "chain":
			plan, err := chain.Parse(rest)
			if err != nil {
				return nil, fmt.Errorf("recorded command %q: %w", rc.Raw, err)
			}
			for _, st := range plan.Steps {
				if st.Role != chain.RoleNone || st.Branch != chain.BranchNone || st.WhileBody || st.Group >= 0 {
					return nil, fmt.Errorf("recorded chain %q uses control flow and cannot crystallize", rc.Raw)
				}
				steps = append(steps, PathwayStep{Target: st.Target, Args: st.Args})
			}
		case isDigits(first):
			node, ok := e.tree.Node(rc.Position)
			if !ok {
				return nil, fmt.Errorf("recorded position %q no longer exists", rc.Position)
			}
			target, ok := node.OptionTarget(first)
			if !ok {
				return nil, fmt.Errorf("recorded option %q not on menu %q", first, rc.Position)
			}
			args, err := parseArgText(rest)
			if err != nil {
				return nil, fmt.Errorf("recorded command %q: %w", rc.Raw, err)
			}
			steps = append(steps, PathwayStep{Target: target, Args: args})
		default:
			sc, ok := sess.Shortcut(first)
			if !ok {
				return nil, fmt.Errorf("recorded command %q did not execute a step", rc.Raw)
			}
			if sc.Kind == domain.ShortcutJump {
				args, err := parseArgText(rest)
				if err != nil {
					return nil, fmt.Errorf("recorded command %q: %w", rc.Raw, err)
				}
				steps = append(steps, PathwayStep{Target: sc.Target, Args: args})
				continue
			}
			expanded := sc.Substitute(sess.Lookup)
			inner, err := e.bufferSteps(sess, []domain.RecordedCommand{{Raw: expanded, Position: rc.Position}})
			if err != nil {
				return nil, err
			}
			steps = append(steps, inner...)
		}
	}
	return steps, nil
}

// parseArgText parses an optional argument literal.
func parseArgText(argText string) (*domain.Value, error) {
	if argText == "" {
		return nil, nil
	}
	v, err := domain.ParseValue(argText)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (e *Engine) resultResponse(sess *domain.Session, result any) *domain.Response {
	// A pure navigation result renders as the menu it landed on.
	if m, ok := result.(map[string]any); ok && len(m) == 1 {
		if pos, ok := m["position"].(string); ok && pos == sess.Position {
			return e.menuResponse(sess)
		}
	}
	kind := domain.ResponseResult
	if domain.IsErrorResult(result) {
		kind = domain.ResponseError
	}
	return &domain.Response{
		Kind:     kind,
		Content:  renderResult(result),
		Data:     result,
		Position: sess.Position,
	}
}

func (e *Engine) infoResponse(sess *domain.Session, msg string) *domain.Response {
	return &domain.Response{Kind: domain.ResponseInfo, Content: msg, Position: sess.Position}
}

func (e *Engine) errorResponse(sess *domain.Session, target string, args any, err error) *domain.Response {
	e.logger.Debug("command failed", "target", target, "err", err)
	return &domain.Response{
		Kind:     domain.ResponseError,
		Content:  fmt.Sprintf("**Error:** %s", err.Error()),
		Data:     domain.ErrorResult(target, args, err),
		Position: sess.Position,
	}
}

// renderResult shapes a step result as markdown for text hosts.
func renderResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "_no result_"
	case string:
		return v
	}
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return "```json\n" + string(b) + "\n```"
}
