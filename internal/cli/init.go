// Package cli provides CLI command implementations.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/fsutil"
)

// RunInit writes the default guardrails file, project-local with local set.
// An existing file is left untouched.
func RunInit(w io.Writer, local bool) error {
	path := config.GlobalPath()
	if local {
		path = config.LocalPath()
	}
	if path == "" {
		return fmt.Errorf("cannot resolve guardrails path")
	}
	return writeGuardrails(w, path)
}

func writeGuardrails(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "Guardrails already exist: %s\n", path)
		return nil
	}

	if err := fsutil.WriteFileAtomic(path, []byte(DefaultGuardrails), 0o644); err != nil {
		return fmt.Errorf("cannot write guardrails: %w", err)
	}

	fmt.Fprintf(w, "Created guardrails: %s\n", path)
	return nil
}

// DefaultGuardrails is the starter guardrails file.
const DefaultGuardrails = `# hookgate guardrails
commit:
  types: [feat, fix, docs, style, refactor, test, chore, ci, perf, build]
  max_length: 72
  no_period: true
  secret_patterns:
    - name: AWS Access Key
      pattern: "AKIA[0-9A-Z]{16}"
      action: block
      severity: critical
    - name: GitHub Token
      pattern: "gh[pousr]_[A-Za-z0-9]{36}"
      action: block
      severity: critical
    - name: Private Key
      pattern: "-----BEGIN [A-Z ]*PRIVATE KEY-----"
      action: block
      severity: critical
    - name: Generic Secret
      pattern: "(password|secret|api_key)\\s*[:=]\\s*['\"][^'\"]{8,}"
      action: warn
      severity: high

push:
  protected_branches: [main, master, "release/*"]

issue:
  body_method: body-file
  required_sections:
    - name: Background
      aliases: [背景]
      required: true
    - name: Acceptance criteria
      aliases: [受け入れ条件, 完了条件]
      required: true
  complexity:
    markers: [DB, API, UI, 認証, 決済]
    split_threshold: 3
    action: warn

pr:
  required_labels:
    - prefix: "type:"
      required: true
      message: "a type: label is required (type:requirements or type:implementation)"
    - prefix: "ci:"
      required: false
  required_sections:
    - name: Summary
      aliases: [概要]
      required: true
  type_specific:
    requirements:
      default_ci: "ci:skip"
      required_sections:
        - id: phase1_report
          name: Investigation report
          aliases: [調査レポート]
          required: true
        - id: phase2_usecases
          name: Use cases
          aliases: [ユースケース]
          required: true
          minimum_count: 3
        - id: phase3_quality
          name: Quality criteria
          aliases: [品質基準]
          required: true
        - id: phase4_db
          name: Database design
          aliases: [データベース設計]
          applies_to: DB変更
          required: true
        - id: phase4_api
          name: API design
          aliases: [API設計]
          applies_to: API変更
          required: true
        - id: phase4_ui
          name: UI design
          aliases: [UI設計]
          applies_to: UI変更
          required: true
        - id: phase5_tests
          name: Test design
          aliases: [テスト設計]
          required: true
    implementation:
      default_ci: "ci:full"
      required_sections:
        - name: Test plan
          aliases: [テスト計画]
          required: true

routing:
  marker_prefix: /tmp/claude-cmd-
  commands: [issue, req, dev]
  max_age: 5m

dod:
  default_level: silver
  base_ref: origin/main
  strict_timeout: 180s
  gate_timeout: 300s
  cache_ttl: 600s

dangerous_operations:
  - pattern: "rm\\s+-rf\\s+/(\\s|$)"
    message: recursive delete from the filesystem root
    action: block
  - pattern: "git\\s+reset\\s+--hard"
    message: discards uncommitted work
    action: warn
  - pattern: "git\\s+clean\\s+-[a-z]*f"
    message: deletes untracked files
    action: warn

quality:
  include: ["**/*.ts", "**/*.tsx"]
  exclude: ["**/node_modules/**", "**/*.d.ts"]
  language: typescript
  cache_ttl: 5m

session:
  issue_pattern: "issue-(\\d+)"

review:
  enabled: true
  fix_body_path: /tmp/fixed-pr-body.md
`
