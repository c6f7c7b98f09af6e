// Package resource holds the in-memory inventory of tenants, sites and content
// objects that a UAT configuration is scoped to.
package resource

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/scope"
)

// Kind enumerates the resource kinds tracked by an Inventory.
type Kind int

const (
	KindTenant Kind = iota
	KindSite
	KindProject
	KindWorkbook
	KindDatasource
	KindFlow
)

var kindNames = [...]string{"tenant", "site", "project", "workbook", "datasource", "flow"}

// Kinds returns every kind in inventory order.
func Kinds() []Kind {
	return []Kind{KindTenant, KindSite, KindProject, KindWorkbook, KindDatasource, KindFlow}
}

// String returns the scope-catalog resource type for k.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Title returns the display name for k.
func (k Kind) Title() string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseKind maps a resource type name to its Kind.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// Entry is an item stored in a List.
type Entry interface {
	// IDs returns the identifiers of the entry. The first is its key; an entry
	// collides with another when any identifier matches.
	IDs() []string

	// ScopeString returns the scope granted for this entry, possibly empty.
	ScopeString() string
}

// Resource is a tenant or content object identified by its LUID.
type Resource struct {
	LUID  string `json:"luid" yaml:"luid"`
	Scope string `json:"scope" yaml:"scope"`
}

func (r Resource) IDs() []string { return []string{r.LUID} }
func (r Resource) ScopeString() string { return r.Scope }

// Site is a content-API site, addressed by its content URL and its LUID.
type Site struct {
	SiteID   string `json:"siteId" yaml:"siteId"`
	SiteLUID string `json:"siteLuid" yaml:"siteLuid"`
	Scope    string `json:"scope" yaml:"scope"`
}

func (s Site) IDs() []string { return []string{s.SiteID, s.SiteLUID} }
func (s Site) ScopeString() string { return s.Scope }

// List is an ordered collection of entries of one kind with unique identifiers.
type List[T Entry] struct {
	kind  Kind
	items []T
}

// NewList creates an empty list for kind.
func NewList[T Entry](kind Kind) *List[T] {
	return &List[T]{kind: kind}
}

// Kind returns the kind of entries held.
func (l *List[T]) Kind() Kind { return l.kind }

// Add appends item. Every identifier must be non-empty, and none may collide
// with an existing entry.
func (l *List[T]) Add(item T) error {
	ids := item.IDs()
	for _, id := range ids {
		if id == "" {
			return uat.Invalid(l.kind.String(), "please enter %s identifiers", l.kind.Title())
		}
	}
	for _, existing := range l.items {
		for _, a := range existing.IDs() {
			for _, b := range ids {
				if a == b {
					return uat.Invalid(l.kind.String(), "%s '%s' already exists", l.kind.Title(), ids[0])
				}
			}
		}
	}
	l.items = append(l.items, item)
	return nil
}

// Delete removes the entry whose key is key and reports whether one was removed.
func (l *List[T]) Delete(key string) bool {
	for i, it := range l.items {
		if it.IDs()[0] == key {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every entry.
func (l *List[T]) Clear() { l.items = nil }

// Keys returns the key of every entry in insertion order.
func (l *List[T]) Keys() []string {
	out := make([]string, len(l.items))
	for i, it := range l.items {
		out[i] = it.IDs()[0]
	}
	return out
}

// Items returns a copy of the entries.
func (l *List[T]) Items() []T {
	return append([]T(nil), l.items...)
}

// Len returns the number of entries.
func (l *List[T]) Len() int { return len(l.items) }

// Inventory groups one list per kind.
type Inventory struct {
	Sites     *List[Site]
	resources map[Kind]*List[Resource]
}

// NewInventory creates an empty Inventory.
func NewInventory() *Inventory {
	inv := &Inventory{
		Sites:     NewList[Site](KindSite),
		resources: make(map[Kind]*List[Resource]),
	}
	for _, k := range Kinds() {
		if k != KindSite {
			inv.resources[k] = NewList[Resource](k)
		}
	}
	return inv
}

// Resources returns the list for kind, or nil for KindSite.
func (inv *Inventory) Resources(kind Kind) *List[Resource] {
	return inv.resources[kind]
}

// Clear empties every list.
func (inv *Inventory) Clear() {
	inv.Sites.Clear()
	for _, l := range inv.resources {
		l.Clear()
	}
}

// SummaryRow describes one inventory entry.
type SummaryRow struct {
	Kind       Kind
	Identifier string
	LUID       string
	Scope      string
}

// Summary lists every entry in kind order.
func (inv *Inventory) Summary() []SummaryRow {
	var rows []SummaryRow
	for _, k := range Kinds() {
		if k == KindSite {
			for _, s := range inv.Sites.items {
				rows = append(rows, SummaryRow{Kind: k, Identifier: s.SiteID, LUID: s.SiteLUID, Scope: s.Scope})
			}
			continue
		}
		for _, r := range inv.resources[k].items {
			rows = append(rows, SummaryRow{Kind: k, Identifier: k.Title(), LUID: r.LUID, Scope: r.Scope})
		}
	}
	return rows
}

// ResourceIDs returns the distinct LUIDs of every entry in kind order, for use
// as a configuration's resource IDs.
func (inv *Inventory) ResourceIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range inv.Summary() {
		if row.LUID == "" || seen[row.LUID] {
			continue
		}
		seen[row.LUID] = true
		out = append(out, row.LUID)
	}
	return out
}

// Scopes returns the distinct non-empty scopes of every entry.
func (inv *Inventory) Scopes() (scope.Set, error) {
	var raw []string
	for _, row := range inv.Summary() {
		if row.Scope != "" {
			raw = append(raw, row.Scope)
		}
	}
	return scope.ValidateSet(raw)
}

// inventoryFile is the YAML form of an Inventory.
type inventoryFile struct {
	Sites     []Site                `yaml:"sites"`
	Resources map[string][]Resource `yaml:"resources"`
}

// ParseInventory reads an inventory from YAML of the form
//
//	sites:
//	  - siteId: acme
//	    siteLuid: 9a1f...
//	    scope: tableau:sites:read
//	resources:
//	  project:
//	    - luid: 4c2e...
//	      scope: tableau:projects:*
//
// Entries are added in file order and validated as by List.Add.
func ParseInventory(data []byte) (*Inventory, error) {
	var f inventoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("uat/resource: parse inventory: %w", err)
	}
	for name := range f.Resources {
		if _, ok := ParseKind(name); !ok {
			return nil, uat.Invalid("resources", "unknown resource kind %q", name)
		}
	}
	inv := NewInventory()
	for _, s := range f.Sites {
		if err := inv.Sites.Add(s); err != nil {
			return nil, err
		}
	}
	for _, k := range Kinds() {
		items, ok := f.Resources[k.String()]
		if !ok {
			continue
		}
		if k == KindSite {
			return nil, uat.Invalid("resources", "sites are listed under 'sites'")
		}
		for _, r := range items {
			if err := inv.resources[k].Add(r); err != nil {
				return nil, err
			}
		}
	}
	return inv, nil
}
