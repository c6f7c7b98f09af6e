package controlplane

import "testing"

func TestDecodeConfigurations_IDShapes(t *testing.T) {
	body := []byte(`[
		{"name":"nested","id":{"configId":"c-1"}},
		{"name":"flat-config","configId":"c-2"},
		{"name":"flat-id","id":"c-3"},
		{"name":"none"}
	]`)

	got, err := decodeConfigurations(body)
	if err != nil {
		t.Fatalf("decodeConfigurations() error: %v", err)
	}
	want := []string{"c-1", "c-2", "c-3", ""}
	if len(got) != len(want) {
		t.Fatalf("got %d configurations, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("%s: ID = %q, want %q", got[i].Name, got[i].ID, id)
		}
	}
}

func TestDecodeConfigurations_Wrapped(t *testing.T) {
	got, err := decodeConfigurations([]byte(`{"configurations":[{"name":"a","configId":"x"}]}`))
	if err != nil {
		t.Fatalf("decodeConfigurations() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "x" {
		t.Errorf("got %+v", got)
	}
}

func TestDecodeConfigurations_Malformed(t *testing.T) {
	if _, err := decodeConfigurations([]byte(`"nope"`)); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
