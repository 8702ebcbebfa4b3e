// engine.go implements the Engine/Driver and the directive dispatch
// table: the per-source-unit loop that folds lines, recognizes
// directive lines, maintains a per-file ConditionalStack, and feeds
// active content to the Expander.
package cpp

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	directiveLineRe    = regexp.MustCompile(`^\s*#`)
	directiveGrammarRe = regexp.MustCompile(`^\s*#\s*([A-Za-z_][A-Za-z0-9_]*)\s*(.*)$`)
)

// Options configures a new Engine. Defines and Undefines are applied in
// order, Defines first, mirroring the CLI's -D/-U processing order.
type Options struct {
	IncludePaths []string
	Defines      []string
	Undefines    []string
	DiagWriter   io.Writer
}

// Engine owns one run's MacroTable, Expander, and IncludeResolver, and
// accumulates output for one top-level source file (and everything it
// transitively #includes) into a single append-only buffer.
type Engine struct {
	macros   *MacroTable
	expander *Expander
	resolver *IncludeResolver
	output   strings.Builder
	errOut   io.Writer
}

// NewEngine builds an Engine and seeds its MacroTable from opts.
func NewEngine(opts Options) *Engine {
	macros := NewMacroTable()
	for _, d := range opts.Defines {
		macros.DefineFromArg(d)
	}
	for _, u := range opts.Undefines {
		macros.Undef(u)
	}

	diag := opts.DiagWriter
	if diag == nil {
		diag = io.Discard
	}

	return &Engine{
		macros:   macros,
		expander: NewExpander(macros),
		resolver: NewIncludeResolver(opts.IncludePaths),
		errOut:   diag,
	}
}

// PreprocessFile preprocesses path (and everything it transitively
// #includes) and returns the accumulated output.
func (e *Engine) PreprocessFile(path string) (string, error) {
	e.output.Reset()
	if err := e.processFile(path); err != nil {
		return "", err
	}
	return e.output.String(), nil
}

func (e *Engine) processFile(path string) error {
	skip, err := e.resolver.Enter(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}
	defer e.resolver.Leave(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return e.processSource(string(data), path)
}

// processSource runs the driver loop over one source unit's text, with
// its own ConditionalStack (conditionals do not cross file boundaries,
// though the MacroTable does).
func (e *Engine) processSource(source, filename string) error {
	cond := NewConditionalStack()
	reader := NewLineReader(source)
	pending := ""

	for {
		ll, ok := reader.Next()
		if !ok {
			break
		}
		loc := SourceLoc{File: filename, Line: ll.LineNumber}
		text := ll.Text

		if directiveLineRe.MatchString(text) {
			m := directiveGrammarRe.FindStringSubmatch(text)
			if m == nil {
				return &MalformedDirectiveError{Line: text, Loc: loc}
			}
			if err := e.runDirective(m[1], strings.TrimSpace(m[2]), cond, loc, filename); err != nil {
				return err
			}
			continue
		}

		if !cond.Active() {
			continue
		}

		input := pending + text
		remaining, chunk, complete, err := e.expander.ProcessInput(input, ll.LineNumber, filename)
		if err != nil {
			return err
		}
		e.output.WriteString(chunk)
		if complete {
			pending = ""
		} else {
			pending = remaining
		}
	}

	if pending != "" {
		return &UnterminatedArgListError{Name: leadingIdentifier(pending)}
	}
	if !cond.Balanced() {
		return &UnbalancedConditionalError{Message: "unterminated #if at end of file", Loc: SourceLoc{File: filename, Line: 0}}
	}
	return nil
}

// runDirective dispatches one directive. Branch directives
// (if/ifdef/ifndef/elif/else/endif) are always honored, since they are
// what makes an inactive frame active again; every other directive is
// skipped while the enclosing frame is inactive.
func (e *Engine) runDirective(name, rest string, cond *ConditionalStack, loc SourceLoc, filename string) error {
	switch name {
	case "ifdef":
		cond.PushIf(e.macros.IsDefined(rest))
		return nil
	case "ifndef":
		cond.PushIf(!e.macros.IsDefined(rest))
		return nil
	case "if":
		cond.PushIf(e.macros.EvalCondition(rest))
		return nil
	case "elif":
		if !cond.Elif(e.macros.EvalCondition(rest)) {
			return &UnbalancedConditionalError{Message: "#elif with no matching #if", Loc: loc}
		}
		return nil
	case "else":
		if !cond.Else() {
			return &UnbalancedConditionalError{Message: "#else with no matching #if", Loc: loc}
		}
		return nil
	case "endif":
		if !cond.Endif() {
			return &UnbalancedConditionalError{Message: "#endif with no matching #if", Loc: loc}
		}
		return nil
	}

	if !cond.Active() {
		return nil
	}

	switch name {
	case "include":
		return e.runInclude(rest, loc, filename)
	case "define":
		e.macros.Define(rest)
	case "undef":
		e.macros.Undef(strings.TrimSpace(rest))
	case "error":
		return &DirectiveError{Message: rest, Loc: loc}
	case "warning":
		fmt.Fprintf(e.errOut, "%s:%d: warning: %s\n", loc.File, loc.Line, rest)
	case "pragma":
		// #pragma once is recognized structurally for include-cycle
		// housekeeping; every other #pragma is passed through verbatim as
		// inert text, since this engine does not evaluate pragma semantics.
		if strings.TrimSpace(rest) == "once" {
			e.resolver.MarkPragmaOnce(filename)
		} else {
			e.output.WriteString("#pragma " + rest + "\n")
		}
	default:
		return &UnknownDirectiveError{Name: name, Loc: loc}
	}
	return nil
}

func (e *Engine) runInclude(rest string, loc SourceLoc, filename string) error {
	name, kind, err := parseIncludeTarget(rest)
	if err != nil {
		return &MalformedDirectiveError{Line: "#include " + rest, Loc: loc}
	}
	resolved, err := e.resolver.Resolve(name, kind, filename)
	if err != nil {
		return err
	}
	return e.processFile(resolved)
}

// leadingIdentifier recovers the macro name that was left suspended
// mid-call, for UnterminatedArgListError's diagnostic.
func leadingIdentifier(s string) string {
	tok := NewTokenizer(s)
	if t, ok := tok.Next(); ok && t.Kind == TokIdentifier {
		return t.Text(s)
	}
	return "<unknown>"
}
