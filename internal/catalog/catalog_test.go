package catalog

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		code   string
		wantOK bool
		want   string
	}{
		{"es", true, "Spanish"},
		{"EN", true, "English"},
		{"  fr ", true, "French"},
		{"xx", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			l, ok := Lookup(tt.code)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.code, ok, tt.wantOK)
			}
			if ok && l.Name != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.code, l.Name, tt.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		query  string
		wantOK bool
		want   string
	}{
		{"es", true, "es"},
		{"Spanish", true, "es"},
		{"spanish", true, "es"},
		{"Español", true, "es"},
		{"español", true, "es"},
		{"spanis", true, "es"},    // one edit away
		{"germn", true, "de"},     // one edit away
		{"portugese", true, "pt"}, // common misspelling, two edits
		{"klingon", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			l, ok := Match(tt.query)
			if ok != tt.wantOK {
				t.Fatalf("Match(%q) ok = %v, want %v", tt.query, ok, tt.wantOK)
			}
			if ok && l.Code != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.query, l.Code, tt.want)
			}
		})
	}
}

func TestAll_UniqueCodesAndStableOrder(t *testing.T) {
	all := All()
	if len(all) == 0 {
		t.Fatal("catalog is empty")
	}
	seen := make(map[string]bool)
	for _, l := range all {
		if seen[l.Code] {
			t.Errorf("duplicate code %q", l.Code)
		}
		seen[l.Code] = true
		if l.Name == "" || l.NativeName == "" {
			t.Errorf("language %q has empty names", l.Code)
		}
	}
	if all[0].Code != "en" {
		t.Errorf("expected English first in display order, got %q", all[0].Code)
	}

	// Callers must not be able to mutate the catalog through All
	all[0].Name = "mutated"
	if fresh := All(); fresh[0].Name == "mutated" {
		t.Error("All returns a shared slice")
	}
}

func TestDefault(t *testing.T) {
	if d := Default(); d.Code != "en" {
		t.Errorf("default language = %q, want en", d.Code)
	}
}
