package dom

import (
	"fmt"
	"sync"

	"github.com/andybalholm/cascadia"
)

var (
	selectorMu    sync.RWMutex
	selectorCache = make(map[string]cascadia.Selector)
)

// CompileSelector parses a CSS selector, caching compiled selectors
// process-wide. Selector strings used for field discovery and validator
// matching repeat heavily, so the cache pays for itself quickly.
func CompileSelector(expr string) (cascadia.Selector, error) {
	if expr == "" {
		return nil, fmt.Errorf("dom: selector is required")
	}

	selectorMu.RLock()
	sel, ok := selectorCache[expr]
	selectorMu.RUnlock()
	if ok {
		return sel, nil
	}

	sel, err := cascadia.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("dom: compile selector %q: %w", expr, err)
	}

	selectorMu.Lock()
	selectorCache[expr] = sel
	selectorMu.Unlock()
	return sel, nil
}

// MustCompileSelector panics on a malformed selector. Useful for init-time
// registration of built-in validators.
func MustCompileSelector(expr string) cascadia.Selector {
	sel, err := CompileSelector(expr)
	if err != nil {
		panic(err)
	}
	return sel
}
