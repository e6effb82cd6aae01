package chain

// TokenType classifies lexer output.
type TokenType int

const (
	// TokenWord is a bare word: a target, alias, keyword or variable.
	TokenWord TokenType = iota
	// TokenJSON is a balanced JSON literal ({...}, [...] or a quoted string).
	TokenJSON
	// TokenUnit is the literal two-character token "()".
	TokenUnit
	// TokenArrow is the segment separator "->".
	TokenArrow
)

// Token is one lexical unit of a chain command.
type Token struct {
	Type TokenType
	Text string
	Pos  int // byte offset in the source command
}

// Keyword words are recognized positionally by the parser, not by the lexer,
// since condition and body text may itself contain braces or operators.
const (
	kwIf    = "if"
	kwThen  = "then"
	kwElse  = "else"
	kwWhile = "while"
	kwLoop  = "x"
	kwAnd   = "and"
	kwOr    = "or"
)

func isReserved(word string) bool {
	switch word {
	case kwIf, kwThen, kwElse, kwWhile, kwLoop, kwAnd, kwOr:
		return true
	}
	return false
}
