// expand.go implements the Expander: a token-driven rewriter over a
// mutable working buffer. It re-tokenizes its input via Tokenizer, walks
// tokens left to right, and rewrites the buffer in place whenever a
// macro reference or stringify (#) is found, restarting the scan from the
// unchanged prefix so the replacement is itself rescanned: a cursor into
// an ever-mutating input string, not a recursive AST walk. Paste (##),
// __LINE__/__FILE__ and adjacent string literals are resolved straight
// into the output as the scan passes them, without a rescan.
package cpp

import (
	"strconv"
	"strings"
)

// Expander rewrites one logical line's worth of input text against a
// MacroTable, expanding macros to a fixed point.
type Expander struct {
	macros *MacroTable
}

// NewExpander returns an Expander backed by macros.
func NewExpander(macros *MacroTable) *Expander {
	return &Expander{macros: macros}
}

// ProcessInput rewrites input to a fixed point. On a complete result,
// remaining is empty, chunk holds the fully expanded line plus a
// trailing newline, and complete is true. If a function-like macro call
// is left open (its closing ')' is on a later logical line), complete
// is false: chunk holds everything already resolved (no trailing
// newline) and remaining holds the unresolved suffix, which the caller
// is expected to prepend to the next logical line's text and feed back
// in.
func (e *Expander) ProcessInput(input string, lineNumber int, filename string) (remaining, chunk string, complete bool, err error) {
	var buf strings.Builder
	cursor := 0
	tok := NewTokenizer(input)

	for {
		t, ok := tok.Next()
		if !ok {
			break
		}
		text := t.Text(input)

		switch {
		case t.Kind == TokIdentifier && text == "__LINE__":
			buf.WriteString(input[cursor:t.Begin])
			buf.WriteString(strconv.Itoa(lineNumber))
			cursor = t.End

		case t.Kind == TokIdentifier && text == "__FILE__":
			buf.WriteString(input[cursor:t.Begin])
			buf.WriteByte('"')
			buf.WriteString(filename)
			buf.WriteByte('"')
			cursor = t.End

		case t.Kind == TokIdentifier:
			m, defined := e.macros.Get(text)
			if !defined {
				buf.WriteString(input[cursor:t.End])
				cursor = t.End
				break
			}

			switch m.Kind {
			case MacroObject:
				input = input[:t.Begin] + m.Replacement + input[t.End:]
				tok = NewTokenizer(input)
				tok.SetCursor(cursor)

			case MacroFunction:
				if t.End < len(input) && input[t.End] == '(' {
					consumed, args, ok := gatherMacroArgs(input[t.End:])
					if !ok {
						return input[cursor:], buf.String(), false, nil
					}
					if len(args) != len(m.Params) {
						return "", "", true, &MacroArityError{Name: m.Name, Expected: len(m.Params), Got: len(args)}
					}
					substituted := substituteParams(m.Replacement, m.Params, args)
					input = input[:t.Begin] + substituted + input[t.End+consumed:]
					tok = NewTokenizer(input)
					tok.SetCursor(cursor)
				} else {
					buf.WriteString(input[cursor:t.End])
					cursor = t.End
				}
			}

		case t.Kind == TokPunctuator && text == "#":
			n, ok := tok.Next()
			if !ok {
				buf.WriteString(input[cursor:t.End])
				cursor = t.End
				break
			}
			inner := n.Text(input)
			if m, defined := e.macros.Get(inner); defined && m.Kind == MacroObject {
				inner = m.Replacement
			}
			literal := "\"" + inner + "\""
			input = input[:t.Begin] + literal + input[n.End:]
			tok = NewTokenizer(input)
			tok.SetCursor(cursor)

		case t.Kind == TokPunctuator && text == "##":
			n, ok := tok.Next()
			if !ok {
				buf.WriteString(input[cursor:t.End])
				cursor = t.End
				break
			}
			trimTrailingSpace(&buf)
			pasted := n.Text(input)
			if m, defined := e.macros.Get(pasted); defined && m.Kind == MacroObject {
				pasted = m.Replacement
			}
			buf.WriteString(pasted)
			cursor = n.End

		case t.Kind == TokString && endsWithQuote(buf.String()):
			merged := buf.String()
			merged = merged[:strings.LastIndexByte(merged, '"')]
			buf.Reset()
			buf.WriteString(merged)
			buf.WriteString(text[1:]) // drop the new literal's opening quote
			cursor = t.End

		default:
			buf.WriteString(input[cursor:t.End])
			cursor = t.End
		}
	}

	return "", buf.String() + "\n", true, nil
}

// trimTrailingSpace trims trailing plain whitespace from buf in place.
func trimTrailingSpace(buf *strings.Builder) {
	s := strings.TrimRight(buf.String(), " \t")
	buf.Reset()
	buf.WriteString(s)
}

// endsWithQuote reports whether s, after trailing whitespace, ends with
// a double quote, the adjacent string literal splice condition. It does
// not check whether that quote is escaped.
func endsWithQuote(s string) bool {
	s = strings.TrimRight(s, " \t")
	return strings.HasSuffix(s, "\"") && len(s) > 0
}

// gatherMacroArgs scans the text immediately following a function-like
// macro name, which must begin with '('. It tracks parenthesis depth: a
// ',' at depth 1 separates arguments and the matching ')' ends the
// list. Argument text is the substring of s from just after its opening
// delimiter to the end of its last token: leading whitespace is kept,
// trailing whitespace is not. An empty last argument is not counted, so
// "()" yields zero arguments. Returns the byte count consumed (including the closing ')') and the
// argument slices, or ok=false if end of input is reached at depth > 0
// (an unterminated argument list, possibly recoverable by feeding the
// caller more input from a later line).
func gatherMacroArgs(s string) (consumed int, args []string, ok bool) {
	tok := NewTokenizer(s)
	depth := 0
	argBegin, argEnd := 0, 0

	for {
		t, more := tok.Next()
		if !more {
			return 0, nil, false
		}
		text := t.Text(s)

		if text == "(" {
			if depth == 0 {
				argBegin = t.End
			}
			depth++
		} else if text == ")" {
			depth--
		}

		if depth < 1 {
			if argEnd > argBegin {
				args = append(args, s[argBegin:argEnd])
			}
			return t.End, args, true
		} else if text == "," && depth == 1 {
			args = append(args, s[argBegin:argEnd])
			argBegin = t.End
			argEnd = t.End
		} else {
			argEnd = t.End
		}
	}
}

// substituteParams splices argument text for each parameter-name token
// in replacement (whole-token match only). Non-parameter tokens,
// including punctuation and surrounding whitespace, pass through
// untouched; expansion of the spliced-in result happens when the
// substitution is rescanned by the caller, not here.
func substituteParams(replacement string, params map[string]int, args []string) string {
	if len(params) == 0 {
		return replacement
	}

	var out strings.Builder
	cursor := 0
	tok := NewTokenizer(replacement)

	for {
		t, ok := tok.Next()
		if !ok {
			break
		}
		if t.Kind != TokIdentifier {
			continue
		}
		idx, isParam := params[t.Text(replacement)]
		if !isParam {
			continue
		}
		out.WriteString(replacement[cursor:t.Begin])
		if idx < len(args) {
			out.WriteString(args[idx])
		}
		cursor = t.End
	}
	out.WriteString(replacement[cursor:])
	return out.String()
}
