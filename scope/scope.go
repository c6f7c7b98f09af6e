// Package scope defines the UAT scope vocabulary.
//
// A scope is a string "<prefix>:<action>" where the prefix comes from a fixed
// catalog keyed by resource type. Configuration scopes and token scopes must be
// expressed in the same vocabulary because Cloud Manager only accepts tokens
// whose scopes are a subset of the configuration's.
package scope

import (
	"slices"
	"strings"

	uat "github.com/chimerakang/uat-go"
)

// Scope is a single capability grant, e.g. "tableau:projects:read".
type Scope string

// Encode builds the scope string for a resource type and action. Unknown
// resource types fall back to the generic "tableau:<type>" prefix.
func Encode(resourceType, action string) (Scope, error) {
	if action == "" {
		return "", uat.Invalid("action", "must not be empty")
	}
	if resourceType == "" {
		return "", uat.Invalid("resourceType", "must not be empty")
	}
	return Scope(Prefix(resourceType) + ":" + action), nil
}

// EncodeStrict is like Encode but requires resourceType to be in the catalog
// and action to be in its vocabulary.
func EncodeStrict(resourceType, action string) (Scope, error) {
	if err := CheckAction(resourceType, action); err != nil {
		return "", err
	}
	return Encode(resourceType, action)
}

// CheckAction validates action against the vocabulary of resourceType.
func CheckAction(resourceType, action string) error {
	d, ok := catalog[resourceType]
	if !ok {
		return uat.Invalid("resourceType", "%q is not in the catalog", resourceType)
	}
	for _, a := range d.Actions {
		if a == action {
			return nil
		}
	}
	return uat.Invalid("action", "%q is not allowed for %s (allowed: %s)",
		action, resourceType, strings.Join(d.Actions, ", "))
}

// Parse validates the shape of s: at least two colon-separated segments,
// none of them empty.
func Parse(s string) (Scope, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || slices.Contains(parts, "") {
		return "", uat.Invalid("scope", "%q is not of the form <prefix>:<action>", s)
	}
	return Scope(s), nil
}

// Prefix returns everything before the last colon.
func (s Scope) Prefix() string {
	i := strings.LastIndexByte(string(s), ':')
	if i < 0 {
		return ""
	}
	return string(s[:i])
}

// Action returns everything after the last colon.
func (s Scope) Action() string {
	i := strings.LastIndexByte(string(s), ':')
	return string(s[i+1:])
}

// Covers reports whether s grants other. A "*" action covers every action
// under the same prefix.
func (s Scope) Covers(other Scope) bool {
	if s == other {
		return true
	}
	return s.Action() == ActionAll && s.Prefix() != "" && s.Prefix() == other.Prefix()
}

func (s Scope) String() string { return string(s) }
