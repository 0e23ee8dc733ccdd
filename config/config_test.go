package config

import (
	"reflect"
	"testing"
)

func TestSplitIDs(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "", want: nil},
		{raw: "a", want: []string{"a"}},
		{raw: "a,b,c", want: []string{"a", "b", "c"}},
		{raw: " a , ,b, ", want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := splitIDs(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitIDs(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := Config{AdminIDs: []string{"root", "mod"}}
	if !cfg.IsAdmin("root") || !cfg.IsAdmin("mod") {
		t.Error("listed admins were not recognized")
	}
	if cfg.IsAdmin("player") || cfg.IsAdmin("") {
		t.Error("non-admins were recognized as admins")
	}
}
