package policy

import (
	"testing"
)

func TestScopeDetectorDetect(t *testing.T) {
	d := NewScopeDetector(nil)

	tests := []struct {
		name string
		body string
		want map[string]bool
	}{
		{"nothing", "Fix a typo in the README", map[string]bool{"db": false, "api": false, "ui": false}},
		{"database", "Adds a migration and CREATE TABLE users", map[string]bool{"db": true, "api": false, "ui": false}},
		{"api route", "POST /api/orders now validates input", map[string]bool{"db": false, "api": true, "ui": false}},
		{"ui japanese", "コンポーネント追加", map[string]bool{"db": false, "api": false, "ui": true}},
		{"case insensitive", "new ENDPOINT for reports", map[string]bool{"db": false, "api": true, "ui": false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.body)
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("Detect()[%s] = %v, want %v", id, got[id], want)
				}
			}
		})
	}
}

func TestScopeDetectorApplies(t *testing.T) {
	d := NewScopeDetector(nil)
	detected := map[string]bool{"db": true, "api": false, "ui": false}

	tests := []struct {
		appliesTo string
		want      bool
	}{
		{"", true},
		{"DB変更がある場合", true},
		{"API変更がある場合", false},
		{"only when the change touches db", true},
		{"only for api changes", false},
		{"db and ui changes", false},
		{"rapid prototypes", true},
		{"always", true},
	}

	for _, tt := range tests {
		t.Run(tt.appliesTo, func(t *testing.T) {
			if got := d.Applies(tt.appliesTo, detected); got != tt.want {
				t.Errorf("Applies(%q) = %v, want %v", tt.appliesTo, got, tt.want)
			}
		})
	}
}
