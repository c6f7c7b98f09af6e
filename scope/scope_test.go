package scope_test

import (
	"errors"
	"testing"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/scope"
	"github.com/google/go-cmp/cmp"
)

func TestEncode_KnownResource(t *testing.T) {
	got, err := scope.Encode("project", "read")
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	want := scope.Scope(scope.Prefix("project") + ":read")
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
	if got != "tableau:projects:read" {
		t.Errorf("Encode() = %q, want %q", got, "tableau:projects:read")
	}
}

func TestEncode_UnknownResourceFallsBack(t *testing.T) {
	got, err := scope.Encode("dashboard", "read")
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if got != "tableau:dashboard:read" {
		t.Errorf("Encode() = %q, want %q", got, "tableau:dashboard:read")
	}
}

func TestEncode_FreeFormResourceAndAction(t *testing.T) {
	tests := []struct {
		resourceType, action string
		want                 scope.Scope
	}{
		{"data source", "read", "tableau:data source:read"},
		{"résumé", "read", "tableau:résumé:read"},
		{"projet", "read all", "tableau:projet:read all"},
	}
	for _, tt := range tests {
		got, err := scope.Encode(tt.resourceType, tt.action)
		if err != nil {
			t.Errorf("Encode(%q, %q) error: %v", tt.resourceType, tt.action, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Encode(%q, %q) = %q, want %q", tt.resourceType, tt.action, got, tt.want)
		}
	}
}

func TestEncode_EmptyAction(t *testing.T) {
	_, err := scope.Encode("project", "")
	if !errors.Is(err, uat.ErrValidation) {
		t.Fatalf("Encode() error = %v, want ErrValidation", err)
	}
}

func TestEncodeStrict(t *testing.T) {
	if _, err := scope.EncodeStrict("flow", "run"); err != nil {
		t.Errorf("EncodeStrict(flow, run) error: %v", err)
	}
	if _, err := scope.EncodeStrict("project", "run"); !errors.Is(err, uat.ErrValidation) {
		t.Errorf("EncodeStrict(project, run) error = %v, want ErrValidation", err)
	}
	if _, err := scope.EncodeStrict("dashboard", "read"); !errors.Is(err, uat.ErrValidation) {
		t.Errorf("EncodeStrict(dashboard, read) error = %v, want ErrValidation", err)
	}
}

func TestDescribe(t *testing.T) {
	if d := scope.Describe("workbook"); d == "N/A" || d == "" {
		t.Errorf("Describe(workbook) = %q", d)
	}
	if d := scope.Describe("dashboard"); d != "N/A" {
		t.Errorf("Describe(dashboard) = %q, want N/A", d)
	}
}

func TestCatalogPrefixesAreUnique(t *testing.T) {
	seen := map[string]string{}
	for _, rt := range scope.ResourceTypes() {
		p := scope.Prefix(rt)
		if other, ok := seen[p]; ok {
			t.Errorf("prefix %q shared by %s and %s", p, other, rt)
		}
		seen[p] = rt
	}
}

func TestValidateSet_Dedupes(t *testing.T) {
	set, err := scope.ValidateSet([]string{
		"tableau:projects:read",
		"tableau:workbooks:*",
		"tableau:projects:read",
	})
	if err != nil {
		t.Fatalf("ValidateSet() error: %v", err)
	}
	want := []string{"tableau:projects:read", "tableau:workbooks:*"}
	if diff := cmp.Diff(want, set.Strings()); diff != "" {
		t.Errorf("ValidateSet() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateSet_RejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "projects", "tableau::read", "tableau:projects:", ":read", "a:b::c"} {
		if _, err := scope.ValidateSet([]string{"tableau:content:read", bad}); !errors.Is(err, uat.ErrValidation) {
			t.Errorf("ValidateSet(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestValidateSet_AcceptsAnyNonEmptySegments(t *testing.T) {
	in := []string{"tableau:résumé:read", "tableau:data source:read", "a:b"}
	set, err := scope.ValidateSet(in)
	if err != nil {
		t.Fatalf("ValidateSet() error: %v", err)
	}
	if diff := cmp.Diff(in, set.Strings()); diff != "" {
		t.Errorf("ValidateSet() mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_AddRejectsDuplicate(t *testing.T) {
	var set scope.Set
	if err := set.Add("tableau:sites:read"); err != nil {
		t.Fatal(err)
	}
	if err := set.Add("tableau:sites:read"); !errors.Is(err, uat.ErrValidation) {
		t.Errorf("Add() duplicate error = %v, want ErrValidation", err)
	}
	if !set.Remove("tableau:sites:read") || len(set) != 0 {
		t.Errorf("Remove() left %v", set)
	}
}

func TestSet_SubsetOf(t *testing.T) {
	allowed := scope.Set{"tableau:projects:*", "tableau:content:read"}

	ok, missing := scope.Set{"tableau:projects:read", "tableau:content:read"}.SubsetOf(allowed)
	if !ok || len(missing) != 0 {
		t.Errorf("SubsetOf() = %v, missing %v", ok, missing)
	}

	ok, missing = scope.Set{"tableau:workbooks:read"}.SubsetOf(allowed)
	if ok || len(missing) != 1 || missing[0] != "tableau:workbooks:read" {
		t.Errorf("SubsetOf() = %v, missing %v", ok, missing)
	}
}

func TestScope_Parts(t *testing.T) {
	s := scope.Scope("tableau:datasources:download")
	if s.Prefix() != "tableau:datasources" {
		t.Errorf("Prefix() = %q", s.Prefix())
	}
	if s.Action() != "download" {
		t.Errorf("Action() = %q", s.Action())
	}
}
