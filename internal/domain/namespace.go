package domain

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// NamespaceCompanionFile marks original metadata files imported with an image
	NamespaceCompanionFile = "openmicroscopy.org/omero/import/companionFile"
	// NamespacePublished marks the boolean annotation holding the published flag
	NamespacePublished = "openmicroscopy.org/omero/published"
	// NamespaceFLIM prefixes lifetime-analysis result files
	NamespaceFLIM = "openmicroscopy.org/omero/flim"
	// NamespaceEditor prefixes protocol and experiment files written by the editor
	NamespaceEditor = "openmicroscopy.org/omero/editor"
)

// DefaultExcludedNamespaces are never shown to the reconciliation flow
var DefaultExcludedNamespaces = []string{
	NamespaceCompanionFile,
	NamespaceFLIM + "/**",
	NamespaceEditor + "/**",
}

// NamespaceFilter is a denylist of annotation namespaces.
// Patterns use doublestar glob syntax with '/' as separator.
type NamespaceFilter struct {
	patterns []string
}

// NewNamespaceFilter validates the patterns and builds a filter
func NewNamespaceFilter(patterns ...string) (*NamespaceFilter, error) {
	f := &NamespaceFilter{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid namespace pattern: %s", p)
		}
		f.patterns = append(f.patterns, p)
	}
	return f, nil
}

// DefaultNamespaceFilter returns a filter holding DefaultExcludedNamespaces plus extra patterns
func DefaultNamespaceFilter(extra ...string) (*NamespaceFilter, error) {
	patterns := append(append([]string{}, DefaultExcludedNamespaces...), extra...)
	return NewNamespaceFilter(patterns...)
}

// MustDefaultNamespaceFilter is DefaultNamespaceFilter for patterns known to
// be valid; it panics otherwise
func MustDefaultNamespaceFilter(extra ...string) *NamespaceFilter {
	f, err := DefaultNamespaceFilter(extra...)
	if err != nil {
		panic(err)
	}
	return f
}

// Excluded reports whether annotations in the namespace must be hidden.
// The empty namespace is never excluded.
func (f *NamespaceFilter) Excluded(namespace string) bool {
	if f == nil || namespace == "" {
		return false
	}
	for _, p := range f.patterns {
		if ok, _ := doublestar.Match(p, namespace); ok {
			return true
		}
	}
	return false
}

// Patterns returns the deny patterns
func (f *NamespaceFilter) Patterns() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.patterns...)
}
