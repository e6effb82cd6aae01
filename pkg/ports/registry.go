package ports

import "context"

// SignatureKind describes a callable's calling convention. It is declared
// once at registration time; the invoker never inspects callables at runtime.
type SignatureKind int

const (
	// SignatureNullary calls with no arguments.
	SignatureNullary SignatureKind = iota
	// SignatureUnaryUnwrap calls with the value of a single named key when
	// the argument object contains exactly that key, otherwise with the
	// whole argument object positionally.
	SignatureUnaryUnwrap
	// SignatureUnaryWhole always calls with the whole argument object.
	SignatureUnaryWhole
	// SignatureKeyword spreads the argument object as keyword parameters.
	SignatureKeyword
)

// Signature is the explicit calling convention of a registered callable.
type Signature struct {
	Kind SignatureKind

	// Param is the unwrap key for SignatureUnaryUnwrap.
	Param string

	// Params lists the accepted keyword names for SignatureKeyword.
	Params []string
}

// Call is the shaped argument set handed to a callable.
type Call struct {
	// Positional holds zero or one values for nullary/unary conventions.
	Positional []any

	// Keyword holds the spread arguments for the keyword convention.
	Keyword map[string]any
}

// CallableFunc is a registered operation. Blocking callables must honor ctx;
// the executor awaits each call before starting the next step, so chain
// ordering is always program order.
type CallableFunc func(ctx context.Context, call Call) (any, error)

// CallableRegistry resolves callable names to implementations.
type CallableRegistry interface {
	// Resolve returns the callable and its declared signature.
	Resolve(name string) (CallableFunc, Signature, bool)
}
