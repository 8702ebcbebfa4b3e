// include.go implements #include resolution: search-path ordering,
// circular-include detection, and #pragma once bookkeeping.
package cpp

import (
	"fmt"
	"os"
	"path/filepath"
)

// IncludeKind distinguishes a quoted #include "name" from an angled
// #include <name>.
type IncludeKind int

const (
	IncludeQuoted IncludeKind = iota
	IncludeAngled
)

// SourceLoc names a diagnostic's origin: a file and a logical line
// number within it.
type SourceLoc struct {
	File string
	Line int
}

// defaultIncludeRoots are appended after the user's -I paths, in order.
var defaultIncludeRoots = []string{"/usr/include", "/usr/local/include"}

// IncludeResolver locates #include targets and guards against cycles
// and repeat inclusion of a #pragma once file.
type IncludeResolver struct {
	searchPaths []string
	stack       []string
	pragmaOnce  map[string]bool
}

// NewIncludeResolver builds a resolver whose search order is userPaths
// (as given, typically in -I argument order) followed by the default
// system roots.
func NewIncludeResolver(userPaths []string) *IncludeResolver {
	paths := make([]string, 0, len(userPaths)+len(defaultIncludeRoots))
	paths = append(paths, userPaths...)
	paths = append(paths, defaultIncludeRoots...)
	return &IncludeResolver{searchPaths: paths, pragmaOnce: make(map[string]bool)}
}

// Resolve finds the first regular file matching name along the search
// path. For a quoted include, the directory of currentFile (if any) is
// tried first, matching conventional cpp quoted-include semantics.
func (r *IncludeResolver) Resolve(name string, kind IncludeKind, currentFile string) (string, error) {
	var candidates []string
	if kind == IncludeQuoted && currentFile != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(currentFile), name))
	}
	for _, dir := range r.searchPaths {
		candidates = append(candidates, filepath.Join(dir, name))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, nil
		}
	}
	return "", &IncludeNotFoundError{Name: name, Kind: kind}
}

// Enter pushes path onto the include stack, failing with
// CircularIncludeError if it is already being processed, and reports
// skip=true if the file carries #pragma once and has already been
// included once before (in which case its contents must not be
// reprocessed).
func (r *IncludeResolver) Enter(path string) (skip bool, err error) {
	resolved, statErr := filepath.Abs(path)
	if statErr != nil {
		resolved = path
	}
	for _, p := range r.stack {
		if p == resolved {
			return false, &CircularIncludeError{Path: resolved, Stack: append([]string(nil), r.stack...)}
		}
	}
	if r.pragmaOnce[resolved] {
		return true, nil
	}
	r.stack = append(r.stack, resolved)
	return false, nil
}

// Leave pops path off the include stack once its contents have been
// fully processed.
func (r *IncludeResolver) Leave(path string) {
	if len(r.stack) == 0 {
		return
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// MarkPragmaOnce records that path declared #pragma once, so a later
// Enter for the same path is skipped rather than reprocessed.
func (r *IncludeResolver) MarkPragmaOnce(path string) {
	resolved, err := filepath.Abs(path)
	if err != nil {
		resolved = path
	}
	r.pragmaOnce[resolved] = true
}

// parseIncludeTarget extracts the target name and kind from an
// #include directive's rest text, e.g. `"header.h"` or `<header.h>`.
func parseIncludeTarget(rest string) (name string, kind IncludeKind, err error) {
	if len(rest) >= 2 && rest[0] == '"' && rest[len(rest)-1] == '"' {
		return rest[1 : len(rest)-1], IncludeQuoted, nil
	}
	if len(rest) >= 2 && rest[0] == '<' && rest[len(rest)-1] == '>' {
		return rest[1 : len(rest)-1], IncludeAngled, nil
	}
	return "", 0, fmt.Errorf("malformed include target: %q", rest)
}
