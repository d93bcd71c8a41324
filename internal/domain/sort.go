package domain

import (
	"slices"
	"strings"
	"unicode"
)

// Less orders two annotations; it must be a strict weak ordering
type Less func(a, b *Annotation) bool

// NaturalCompare compares strings case-insensitively, treating runs of digits
// as numbers so that "tag2" sorts before "tag10"
func NaturalCompare(a, b string) int {
	ra, rb := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na := strings.TrimLeft(string(ra[si:i]), "0")
			nb := strings.TrimLeft(string(rb[sj:j]), "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		if ra[i] != rb[j] {
			if ra[i] < rb[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(ra)-i < len(rb)-j:
		return -1
	case len(ra)-i > len(rb)-j:
		return 1
	}
	return 0
}

// ByDisplayValue is the default ordering: natural order of DisplayValue
func ByDisplayValue(a, b *Annotation) bool {
	return NaturalCompare(a.DisplayValue(), b.DisplayValue()) < 0
}

// sortAnnotations sorts in place; equal elements keep insertion order
func sortAnnotations(annotations []*Annotation, less Less) {
	if less == nil {
		less = ByDisplayValue
	}
	slices.SortStableFunc(annotations, func(a, b *Annotation) int {
		if less(a, b) {
			return -1
		}
		if less(b, a) {
			return 1
		}
		return 0
	})
}
