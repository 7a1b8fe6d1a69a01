package config

import "time"

// AlwaysProtected returns the branches protected even without a
// guardrails file.
func AlwaysProtected() []string {
	return []string{"main", "master"}
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{
		Commit: CommitConfig{
			Types: []string{"feat", "fix", "docs", "style", "refactor", "test", "chore", "ci", "perf", "build"},
		},
		Push: PushConfig{
			ProtectedBranches: AlwaysProtected(),
		},
		Issue: IssueConfig{
			BodyMethod:               "body-file",
			ProhibitedBodyFileValues: []string{"-", "/dev/stdin", "/dev/fd/0"},
			Complexity: ComplexityConfig{
				SplitThreshold: 3,
				Action:         "warn",
				Message:        "Consider splitting into sub-issues for better tracking",
			},
		},
		PR: PRConfig{
			TypeSpecific: map[string]TypeConfig{},
			BranchTemplates: map[string]string{
				"requirements": "requirements.md",
				"plan":         "requirements.md",
				"design":       "requirements.md",
			},
			Scopes: defaultScopes(),
			GroupLabels: map[string]string{
				"phase1": "Phase 1: Investigation",
				"phase2": "Phase 2: Requirements and use cases",
				"phase3": "Phase 3: Quality criteria",
				"phase4": "Phase 4: Technical design",
				"phase5": "Phase 5: Test design",
				"common": "Common",
			},
			RowPattern:       `\|\s*\d+\s*\|`,
			IssueLinkPattern: `closes #\d+`,
		},
		Workflow: WorkflowConfig{
			IssueRefPatterns: []string{
				`closes?\s+#(\d+)`,
				`fixes?\s+#(\d+)`,
				`resolves?\s+#(\d+)`,
				`#(\d+)`,
			},
			RequirementsRefPatterns: []string{
				`要件定義PR[:\s]*#(\d+)`,
				`requirements?\s*PR[:\s]*#(\d+)`,
				`req\s*PR[:\s]*#(\d+)`,
			},
			NoRequirementsPatterns: []string{
				`\[x\]\s*要件定義不要`,
				`\[x\]\s*no.?req`,
				`\[x\]\s*バグ修正`,
				`\[x\]\s*bug ?fix`,
				`\[x\]\s*fix:`,
				`\[x\]\s*docs:`,
			},
			FeaturePatterns: []string{
				`\[x\]\s*feat:`,
				`\[x\]\s*新機能`,
				`\[x\]\s*new feature`,
			},
			Labels: Labels{
				InvestigationComplete: "investigation-complete",
				NeedsInvestigation:    "needs-investigation",
				ReadyToDevelop:        "ready-to-develop",
				Requirements:          "type:requirements",
			},
			WorktreePrefixes: []string{"feature/", "requirements/", "bugfix/", "hotfix/"},
		},
		Routing: RoutingConfig{
			MarkerPrefix: "/tmp/claude-cmd-",
			Commands:     []string{"issue", "req", "dev"},
			MaxAge:       5 * time.Minute,
		},
		DoD: DoDConfig{
			Bronze: Level{Requirements: []Requirement{
				{ID: "A1", Name: "Type Check", Command: "npx tsc --noEmit", Required: true},
				{ID: "A2", Name: "Lint", Command: "npm run lint", Required: true},
				{ID: "A3", Name: "Tests", Command: "npm run test:run -- --passWithNoTests", Required: true},
			}},
			Silver: Level{Requirements: []Requirement{
				{ID: "B1", Name: "Integration Tests", Command: "npm run test:integration", Required: true},
			}},
			Gold: Level{Requirements: []Requirement{
				{ID: "C1", Name: "E2E Tests", Command: "npm run test:e2e", Required: true},
				{ID: "C2", Name: "Performance", Command: "npx lighthouse-ci", Required: false},
				{ID: "C3", Name: "Security Audit", Command: "npm audit --audit-level=high", Required: true},
			}},
			DefaultLevel: "silver",
			BranchLevels: []BranchLevel{
				{Level: "gold", Patterns: []string{`-gold$`, `release/`}},
				{Level: "silver", Patterns: []string{`feature/`, `requirements/`}},
				{Level: "bronze", Patterns: []string{`bugfix/`, `hotfix/`, `fix/`}},
			},
			BaseRef:       "origin/main",
			StrictTimeout: 180 * time.Second,
			GateTimeout:   300 * time.Second,
			CacheTTL:      600 * time.Second,
		},
		SecurityPatterns: map[string][]SecurityPattern{
			"typescript": {
				{Pattern: "dangerouslySetInnerHTML", Severity: "high", Message: "XSS risk - use DOMPurify / sanitize"},
				{Pattern: "eval(", Severity: "critical", Message: "eval() is prohibited"},
				{Pattern: "document.write", Severity: "medium", Message: "document.write is deprecated"},
			},
		},
		Quality: QualityConfig{
			Include:          []string{"**/*.ts", "**/*.tsx"},
			Exclude:          []string{"**/node_modules/**", "**/*.d.ts"},
			Language:         "typescript",
			CacheTTL:         5 * time.Minute,
			TypeCheckTimeout: 90 * time.Second,
			LintTimeout:      60 * time.Second,
		},
		Approve: ApproveConfig{
			ReadonlyTools: []string{"Read", "Grep", "Glob", "LS", "WebSearch", "WebFetch"},
			SafeCommands: []string{
				"git status", "git log", "git diff", "git branch", "git show", "git remote", "git tag",
				"ls", "cat", "head", "tail", "wc", "file", "stat",
				"npm run test", "npm run lint", "npm run build", "npm run typecheck", "npm list",
				"node --version", "npx tsc --noEmit",
				"gh pr view", "gh pr list", "gh pr status", "gh issue view", "gh issue list",
				"gh repo view", "gh auth status",
				"python3 --version", "pip list", "pytest",
				"which", "type", "echo", "pwd", "whoami", "date",
			},
			MCPReadonly: []string{
				"mcp__filesystem__read_text_file",
				"mcp__filesystem__read_file",
				"mcp__filesystem__read_multiple_files",
				"mcp__filesystem__list_directory",
				"mcp__filesystem__list_directory_with_sizes",
				"mcp__filesystem__directory_tree",
				"mcp__filesystem__get_file_info",
				"mcp__filesystem__search_files",
				"mcp__filesystem__list_allowed_directories",
			},
			AgentTools: []string{"Task", "TodoWrite", "TaskOutput"},
		},
		Session: SessionConfig{
			IssuePattern: `issue-(\d+)`,
		},
		Review: ReviewConfig{
			Enabled: true,
			RequirementsPhases: []PhaseCheck{
				{Name: "Phase 1: Investigation", Pattern: `##\s*1\.|Phase\s*1|Investigation|調査レポート`},
				{Name: "Phase 2: Requirements and use cases", Pattern: `##\s*2\.|Phase\s*2|Use ?cases?|ユースケース`},
				{Name: "Phase 3: Quality criteria", Pattern: `##\s*3\.|Phase\s*3|Quality criteria|品質基準`},
				{Name: "Phase 4: Technical design", Pattern: `##\s*4\.|Phase\s*4|Technical design|技術設計`},
				{Name: "Phase 5: Test design", Pattern: `##\s*5\.|Phase\s*5|Test design|テスト設計`},
			},
			FixBodyPath: "/tmp/fixed-pr-body.md",
		},
	}

	cfg.compile()
	return cfg
}

func defaultScopes() []Scope {
	return []Scope{
		{
			ID:    "db",
			Label: "DB変更",
			Patterns: []string{
				`database design`, `データベース設計`, `DB変更`, `new table`, `新規テーブル`,
				`テーブル.*CREATE`, `CREATE TABLE`, `CRUD操作`, `RLS`, `migration`, `マイグレーション`,
			},
		},
		{
			ID:    "api",
			Label: "API変更",
			Patterns: []string{
				`API design`, `API設計`, `API変更`, `endpoint`, `エンドポイント`, `/api/`,
				`(POST|GET|PUT|PATCH|DELETE)\s+/`, `エラーハンドリング設計`,
			},
		},
		{
			ID:    "ui",
			Label: "UI変更",
			Patterns: []string{
				`UI design`, `UI設計`, `UI変更`, `screen list`, `画面一覧`, `画面遷移`,
				`component`, `コンポーネント`, `バリアント`, `data-testid`, `v0 Link`, `フロントエンド`,
			},
		},
	}
}
