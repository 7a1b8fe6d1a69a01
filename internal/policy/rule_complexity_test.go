package policy

import (
	"testing"
)

func TestComplexityRule(t *testing.T) {
	tests := []struct {
		name       string
		yaml       string
		body       string
		wantErrors []string
		wantWarns  []string
	}{
		{
			name: "no markers configured",
			body: "DB API UI",
		},
		{
			name: "below threshold",
			yaml: "issue:\n  complexity:\n    markers: [DB, API, UI]\n",
			body: "touches the db and the api",
		},
		{
			name:      "threshold reached warns",
			yaml:      "issue:\n  complexity:\n    markers: [DB, API, UI]\n",
			body:      "db schema, api route and ui screen",
			wantWarns: []string{"3 domain markers detected (threshold 3): DB, API, UI"},
		},
		{
			name:       "block action",
			yaml:       "issue:\n  complexity:\n    markers: [DB, API, UI, Auth]\n    split_threshold: 2\n    action: block\n",
			body:       "auth flow and DB tables",
			wantErrors: []string{"2 domain markers detected (threshold 2): DB, Auth"},
		},
		{
			name: "duplicate markers count once",
			yaml: "issue:\n  complexity:\n    markers: [DB, db, API]\n",
			body: "db and api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := NewComplexityRule(mustConfig(t, tt.yaml))
			f := rule.Evaluate(tt.body)
			checkFindings(t, f, tt.wantErrors, tt.wantWarns)
		})
	}
}
