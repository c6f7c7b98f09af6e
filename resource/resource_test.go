package resource

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	uat "github.com/chimerakang/uat-go"
)

func TestList_Add(t *testing.T) {
	l := NewList[Resource](KindProject)

	if err := l.Add(Resource{LUID: "p1", Scope: "tableau:projects:read"}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	err := l.Add(Resource{LUID: "p1", Scope: "tableau:projects:update"})
	if !errors.Is(err, uat.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Project 'p1' already exists") {
		t.Errorf("error = %q", err)
	}
	if err := l.Add(Resource{}); !errors.Is(err, uat.ErrValidation) {
		t.Errorf("expected validation error for empty LUID, got %v", err)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestList_SiteCollidesOnEitherID(t *testing.T) {
	l := NewList[Site](KindSite)
	if err := l.Add(Site{SiteID: "a", SiteLUID: "luid-a"}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	for _, s := range []Site{
		{SiteID: "a", SiteLUID: "luid-b"},
		{SiteID: "b", SiteLUID: "luid-a"},
		{SiteID: "b"},
	} {
		if err := l.Add(s); err == nil {
			t.Errorf("Add(%+v) should fail", s)
		}
	}
	if err := l.Add(Site{SiteID: "b", SiteLUID: "luid-b"}); err != nil {
		t.Errorf("Add() error: %v", err)
	}
}

func TestList_DeleteAndClear(t *testing.T) {
	l := NewList[Resource](KindFlow)
	for _, id := range []string{"f1", "f2", "f3"} {
		_ = l.Add(Resource{LUID: id})
	}

	if !l.Delete("f2") {
		t.Error("Delete(f2) = false")
	}
	if l.Delete("missing") {
		t.Error("Delete(missing) = true")
	}
	if diff := cmp.Diff([]string{"f1", "f3"}, l.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	items := l.Items()
	items[0].LUID = "changed"
	if l.Keys()[0] != "f1" {
		t.Error("Items() must return a copy")
	}

	l.Clear()
	if l.Len() != 0 {
		t.Errorf("Len() = %d after Clear", l.Len())
	}
}

func TestKind(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if KindDatasource.Title() != "Datasource" {
		t.Errorf("Title() = %q", KindDatasource.Title())
	}
	if _, ok := ParseKind("metric"); ok {
		t.Error("metric is not an inventory kind")
	}
}

func TestInventory(t *testing.T) {
	inv := NewInventory()
	if inv.Resources(KindSite) != nil {
		t.Error("sites are held in inv.Sites")
	}
	_ = inv.Resources(KindTenant).Add(Resource{LUID: "tenant-1", Scope: "tableau:tenants:read"})
	_ = inv.Sites.Add(Site{SiteID: "mysite", SiteLUID: "site-luid", Scope: "tableau:sites:read"})
	_ = inv.Resources(KindProject).Add(Resource{LUID: "proj-1", Scope: "tableau:projects:read"})
	_ = inv.Resources(KindWorkbook).Add(Resource{LUID: "wb-1", Scope: "tableau:projects:read"})

	want := []SummaryRow{
		{Kind: KindTenant, Identifier: "Tenant", LUID: "tenant-1", Scope: "tableau:tenants:read"},
		{Kind: KindSite, Identifier: "mysite", LUID: "site-luid", Scope: "tableau:sites:read"},
		{Kind: KindProject, Identifier: "Project", LUID: "proj-1", Scope: "tableau:projects:read"},
		{Kind: KindWorkbook, Identifier: "Workbook", LUID: "wb-1", Scope: "tableau:projects:read"},
	}
	if diff := cmp.Diff(want, inv.Summary()); diff != "" {
		t.Errorf("Summary() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"tenant-1", "site-luid", "proj-1", "wb-1"}, inv.ResourceIDs()); diff != "" {
		t.Errorf("ResourceIDs() mismatch (-want +got):\n%s", diff)
	}

	scopes, err := inv.Scopes()
	if err != nil {
		t.Fatalf("Scopes() error: %v", err)
	}
	wantScopes := []string{"tableau:tenants:read", "tableau:sites:read", "tableau:projects:read"}
	if diff := cmp.Diff(wantScopes, scopes.Strings()); diff != "" {
		t.Errorf("Scopes() mismatch (-want +got):\n%s", diff)
	}

	inv.Clear()
	if len(inv.Summary()) != 0 || inv.ResourceIDs() != nil {
		t.Error("inventory should be empty after Clear")
	}
}

func TestInventory_MalformedScope(t *testing.T) {
	inv := NewInventory()
	_ = inv.Resources(KindProject).Add(Resource{LUID: "p", Scope: "bogus"})
	if _, err := inv.Scopes(); !errors.Is(err, uat.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseInventory(t *testing.T) {
	data := []byte(`
sites:
  - siteId: acme
    siteLuid: site-luid
    scope: tableau:sites:read
resources:
  tenant:
    - luid: tenant-1
  project:
    - luid: proj-1
      scope: tableau:projects:*
`)
	inv, err := ParseInventory(data)
	if err != nil {
		t.Fatalf("ParseInventory() error: %v", err)
	}
	if diff := cmp.Diff([]string{"tenant-1", "site-luid", "proj-1"}, inv.ResourceIDs()); diff != "" {
		t.Errorf("ResourceIDs mismatch (-want +got):\n%s", diff)
	}
	scopes, err := inv.Scopes()
	if err != nil {
		t.Fatalf("Scopes() error: %v", err)
	}
	if diff := cmp.Diff([]string{"tableau:sites:read", "tableau:projects:*"}, scopes.Strings()); diff != "" {
		t.Errorf("Scopes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInventory_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown kind":  "resources:\n  dashboard:\n    - luid: d1\n",
		"site in map":   "resources:\n  site:\n    - luid: s1\n",
		"duplicate":     "resources:\n  flow:\n    - luid: f1\n    - luid: f1\n",
		"empty luid":    "resources:\n  workbook:\n    - scope: tableau:workbooks:read\n",
		"not yaml list": "sites: 3\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseInventory([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
