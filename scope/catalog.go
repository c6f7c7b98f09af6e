package scope

import "sort"

// Action vocabulary shared across resource types.
const (
	ActionRead     = "read"
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionDownload = "download"
	ActionRun      = "run"
	ActionAll      = "*"
)

// Definition describes one resource type in the catalog.
type Definition struct {
	Prefix      string
	Description string
	Actions     []string
}

var crud = []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionAll}

// catalog is read-only reference data keyed by resource type.
var catalog = map[string]Definition{
	"tenant": {
		Prefix:      "tableau:tenants",
		Description: "Cloud Manager tenant administration",
		Actions:     []string{ActionRead, ActionUpdate, ActionAll},
	},
	"site": {
		Prefix:      "tableau:sites",
		Description: "Site settings and membership",
		Actions:     crud,
	},
	"content": {
		Prefix:      "tableau:content",
		Description: "Browse and search all site content",
		Actions:     []string{ActionRead, ActionAll},
	},
	"project": {
		Prefix:      "tableau:projects",
		Description: "Projects and their permissions",
		Actions:     crud,
	},
	"workbook": {
		Prefix:      "tableau:workbooks",
		Description: "Workbooks, revisions and extracts",
		Actions:     []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionDownload, ActionAll},
	},
	"datasource": {
		Prefix:      "tableau:datasources",
		Description: "Published data sources and connections",
		Actions:     []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionDownload, ActionAll},
	},
	"flow": {
		Prefix:      "tableau:flows",
		Description: "Prep flows and flow runs",
		Actions:     []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionRun, ActionAll},
	},
	"view": {
		Prefix:      "tableau:views",
		Description: "Views, images and embedding",
		Actions:     []string{ActionRead, ActionDownload, "embed", ActionAll},
	},
	"user": {
		Prefix:      "tableau:users",
		Description: "Site users",
		Actions:     crud,
	},
	"group": {
		Prefix:      "tableau:groups",
		Description: "Groups and group membership",
		Actions:     crud,
	},
	"metric": {
		Prefix:      "tableau:metrics",
		Description: "Pulse metrics and definitions",
		Actions:     crud,
	},
}

// Lookup returns the catalog definition for resourceType.
func Lookup(resourceType string) (Definition, bool) {
	d, ok := catalog[resourceType]
	return d, ok
}

// ResourceTypes returns the catalog resource types in sorted order.
func ResourceTypes() []string {
	out := make([]string, 0, len(catalog))
	for k := range catalog {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Prefix returns the scope prefix for resourceType, falling back to
// "tableau:<resourceType>" for types outside the catalog.
func Prefix(resourceType string) string {
	if d, ok := catalog[resourceType]; ok {
		return d.Prefix
	}
	return "tableau:" + resourceType
}

// Describe returns the catalog description for resourceType, or "N/A".
func Describe(resourceType string) string {
	if d, ok := catalog[resourceType]; ok {
		return d.Description
	}
	return "N/A"
}

// Actions returns the action vocabulary for resourceType, or nil if unknown.
func Actions(resourceType string) []string {
	d, ok := catalog[resourceType]
	if !ok {
		return nil
	}
	return append([]string(nil), d.Actions...)
}
