// macrotable.go implements the MacroTable: storage, define/undef/lookup,
// and a minimal #if/#elif condition evaluator.
package cpp

import (
	"strconv"
	"strings"
)

// MacroKind distinguishes object-like from function-like macros.
type MacroKind int

const (
	MacroObject MacroKind = iota
	MacroFunction
)

// Macro is a tagged-variant macro definition. Params is nil for
// object-like macros; for function-like macros it maps parameter name
// to positional index.
type Macro struct {
	Name        string
	Kind        MacroKind
	Replacement string
	Params      map[string]int
}

// MacroTable maps identifiers to macro definitions. Insertion order is
// irrelevant; a duplicate define silently overwrites.
type MacroTable struct {
	macros map[string]Macro
}

// NewMacroTable returns an empty MacroTable.
func NewMacroTable() *MacroTable {
	return &MacroTable{macros: make(map[string]Macro)}
}

// identHead/identTail implement the identifier grammar
// [A-Za-z_][A-Za-z0-9_]*
func identHead(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func identTail(c byte) bool {
	return identHead(c) || (c >= '0' && c <= '9')
}

// Define parses a #define body: if the identifier is immediately
// followed by '(' with no intervening whitespace, it is function-like
// and the parenthesized, comma-separated names become its parameter
// list; otherwise the macro is object-like and everything after the
// name (left-trimmed) is replacement text.
func (mt *MacroTable) Define(line string) {
	line = strings.TrimLeft(line, " \t")
	i := 0
	for i < len(line) && identTail(line[i]) {
		i++
	}
	if i == 0 {
		return
	}
	name := line[:i]

	if i < len(line) && line[i] == '(' {
		mt.defineFunction(name, line[i+1:])
		return
	}

	mt.macros[name] = Macro{
		Name:        name,
		Kind:        MacroObject,
		Replacement: strings.TrimLeft(line[i:], " \t"),
	}
}

func (mt *MacroTable) defineFunction(name, rest string) {
	closeIdx := strings.IndexByte(rest, ')')
	if closeIdx < 0 {
		// Malformed function-like definition; treat the whole remainder
		// as an argless parameter list with no body rather than panic.
		mt.macros[name] = Macro{Name: name, Kind: MacroFunction, Params: map[string]int{}}
		return
	}

	paramList := rest[:closeIdx]
	params := make(map[string]int)
	if strings.TrimSpace(paramList) != "" {
		for idx, p := range strings.Split(paramList, ",") {
			params[strings.TrimSpace(p)] = idx
		}
	}

	replacement := strings.TrimLeft(rest[closeIdx+1:], " \t")

	mt.macros[name] = Macro{
		Name:        name,
		Kind:        MacroFunction,
		Replacement: replacement,
		Params:      params,
	}
}

// DefineFromArg handles the CLI -D form: "NAME" or "NAME=VALUE". The
// '=' becomes a space and Define runs on the result.
func (mt *MacroTable) DefineFromArg(arg string) {
	if idx := strings.IndexByte(arg, '='); idx >= 0 {
		mt.Define(arg[:idx] + " " + arg[idx+1:])
		return
	}
	mt.Define(arg)
}

// Undef removes a macro; an absent name is a no-op.
func (mt *MacroTable) Undef(name string) {
	delete(mt.macros, strings.TrimSpace(name))
}

// IsDefined reports whether name has a current definition, including
// the built-in __LINE__/__FILE__ macros the Expander resolves directly.
func (mt *MacroTable) IsDefined(name string) bool {
	if name == "__LINE__" || name == "__FILE__" {
		return true
	}
	_, ok := mt.macros[name]
	return ok
}

// Get returns the macro definition for name, or ok=false if undefined.
// __LINE__/__FILE__ are not returned here: they have no stored
// replacement text and are resolved structurally by the Expander.
func (mt *MacroTable) Get(name string) (Macro, bool) {
	m, ok := mt.macros[name]
	return m, ok
}

// EvalCondition implements minimal #if/#elif semantics: if expr parses
// as a signed integer, truthy iff non-zero; otherwise (richer expression
// evaluation is out of scope for this engine) it is treated as true.
func (mt *MacroTable) EvalCondition(expr string) bool {
	expr = strings.TrimSpace(expr)
	if n, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return n != 0
	}
	return true
}
