package notes

import "sort"

// Set is a set of note names. The zero value is not usable; use NewSet.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

func (s Set) Remove(names ...string) {
	for _, n := range names {
		delete(s, n)
	}
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Set) Clear() {
	for n := range s {
		delete(s, n)
	}
}

// Equal reports whether both sets hold exactly the same names
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// Sorted returns the names ordered by pitch, unknown names last
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		a, aok := Number(out[i])
		b, bok := Number(out[j])
		if aok != bok {
			return aok
		}
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}
