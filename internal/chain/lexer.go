package chain

import (
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Scan tokenizes a chain command. The scanner is quote- and brace-aware: it
// never splits inside a quoted string or a JSON literal, so arguments like
// {"msg": "a -> b and c"} survive intact. Unbalanced quotes or braces are
// parse errors.
func Scan(input string) ([]Token, error) {
	var toks []Token
	i := 0
	n := len(input)
	for i < n {
		switch c := input[i]; {
		case c == ' ' || c == '\t':
			i++
		case c == '{' || c == '[':
			end, err := scanBalanced(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Type: TokenJSON, Text: input[i:end], Pos: i})
			i = end
		case c == '"':
			end, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Type: TokenJSON, Text: input[i:end], Pos: i})
			i = end
		case c == '(':
			if i+1 < n && input[i+1] == ')' {
				toks = append(toks, Token{Type: TokenUnit, Text: "()", Pos: i})
				i += 2
				continue
			}
			return nil, &domain.ParseError{Input: input, Pos: i, Msg: "unexpected '('"}
		case c == ')':
			return nil, &domain.ParseError{Input: input, Pos: i, Msg: "unexpected ')'"}
		default:
			start := i
			for i < n && !strings.ContainsRune(" \t{[(\"", rune(input[i])) {
				i++
			}
			word := input[start:i]
			if word == "->" {
				toks = append(toks, Token{Type: TokenArrow, Text: word, Pos: start})
			} else {
				toks = append(toks, Token{Type: TokenWord, Text: word, Pos: start})
			}
		}
	}
	return toks, nil
}

// scanBalanced consumes a {...} or [...] literal starting at pos, honoring
// nesting and embedded strings. Returns the index just past the closer.
func scanBalanced(input string, pos int) (int, error) {
	depth := 0
	i := pos
	for i < len(input) {
		switch input[i] {
		case '{', '[':
			depth++
			i++
		case '}', ']':
			depth--
			i++
			if depth == 0 {
				return i, nil
			}
			if depth < 0 {
				return 0, &domain.ParseError{Input: input, Pos: i - 1, Msg: "unbalanced brackets"}
			}
		case '"':
			end, err := scanString(input, i)
			if err != nil {
				return 0, err
			}
			i = end
		default:
			i++
		}
	}
	return 0, &domain.ParseError{Input: input, Pos: pos, Msg: "unbalanced brackets"}
}

// scanString consumes a double-quoted string starting at pos, honoring
// backslash escapes. Returns the index just past the closing quote.
func scanString(input string, pos int) (int, error) {
	i := pos + 1
	for i < len(input) {
		switch input[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1, nil
		default:
			i++
		}
	}
	return 0, &domain.ParseError{Input: input, Pos: pos, Msg: "unterminated string"}
}
