package scope

import uat "github.com/chimerakang/uat-go"

// Set is an ordered collection of distinct scopes.
type Set []Scope

// ValidateSet checks the shape of every entry and removes duplicates, keeping
// the first occurrence.
func ValidateSet(scopes []string) (Set, error) {
	out := make(Set, 0, len(scopes))
	seen := make(map[Scope]bool, len(scopes))
	for _, raw := range scopes {
		s, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// FromStrings converts scopes without validating them. Malformed entries never
// cover anything.
func FromStrings(scopes []string) Set {
	out := make(Set, len(scopes))
	for i, s := range scopes {
		out[i] = Scope(s)
	}
	return out
}

// Add appends s unless it is already present.
func (ss *Set) Add(s Scope) error {
	if ss.Contains(s) {
		return uat.Invalid("scope", "'%s' already exists", s)
	}
	*ss = append(*ss, s)
	return nil
}

// Remove deletes s if present and reports whether it was.
func (ss *Set) Remove(s Scope) bool {
	for i, x := range *ss {
		if x == s {
			*ss = append((*ss)[:i], (*ss)[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether s is an exact member.
func (ss Set) Contains(s Scope) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// Covers reports whether any member grants s.
func (ss Set) Covers(s Scope) bool {
	for _, x := range ss {
		if x.Covers(s) {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every scope in ss is granted by allowed, and returns
// the ones that are not.
func (ss Set) SubsetOf(allowed Set) (bool, Set) {
	var missing Set
	for _, s := range ss {
		if !allowed.Covers(s) {
			missing = append(missing, s)
		}
	}
	return len(missing) == 0, missing
}

// Strings returns the scopes as plain strings for the wire.
func (ss Set) Strings() []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
