// Package config loads the guardrails policy file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnavailable marks a guardrails file that is missing or unreadable.
// Callers keep running with Default() and skip config-driven checks.
var ErrUnavailable = errors.New("guardrails unavailable")

const (
	envPath       = "HOOKGATE_GUARDRAILS_PATH"
	envLegacyPath = "CLAUDE_GUARDRAILS_PATH"
)

// Config is the typed guardrails document.
type Config struct {
	Commit              CommitConfig                 `yaml:"commit"`
	Push                PushConfig                   `yaml:"push"`
	Issue               IssueConfig                  `yaml:"issue"`
	PR                  PRConfig                     `yaml:"pr"`
	Workflow            WorkflowConfig               `yaml:"workflow"`
	Routing             RoutingConfig                `yaml:"routing"`
	DoD                 DoDConfig                    `yaml:"dod"`
	DangerousOperations []PatternRule                `yaml:"dangerous_operations"`
	SecurityPatterns    map[string][]SecurityPattern `yaml:"security_patterns"`
	Quality             QualityConfig                `yaml:"quality"`
	Approve             ApproveConfig                `yaml:"approve"`
	Session             SessionConfig                `yaml:"session"`
	Review              ReviewConfig                 `yaml:"review"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
	// Problems lists entries dropped during validation.
	Problems []string `yaml:"-"`
}

// CommitConfig controls commit message checks.
type CommitConfig struct {
	Types          []string        `yaml:"types"`
	SecretPatterns []SecretPattern `yaml:"secret_patterns"`
	MaxLength      int             `yaml:"max_length"`
	SingleLine     bool            `yaml:"single_line"`
	NoPeriod       bool            `yaml:"no_period"`
}

// SecretPattern is a case-insensitive regex searched in commit messages and
// staged diffs.
type SecretPattern struct {
	Name     string `yaml:"name"`
	Pattern  string `yaml:"pattern"`
	Action   string `yaml:"action"`
	Severity string `yaml:"severity"`

	re *regexp.Regexp
}

// Regexp returns the compiled pattern, nil when it did not compile.
func (p SecretPattern) Regexp() *regexp.Regexp { return p.re }

// PushConfig controls push protection.
type PushConfig struct {
	ProtectedBranches []string `yaml:"protected_branches"`
}

// IssueConfig controls `gh issue create`.
type IssueConfig struct {
	BodyMethod               string           `yaml:"body_method"`
	ProhibitedBodyFileValues []string         `yaml:"prohibited_body_file_values"`
	RequiredSections         []Section        `yaml:"required_sections"`
	Complexity               ComplexityConfig `yaml:"complexity"`
}

// Section is a required heading of an issue or PR body.
type Section struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Aliases      []string `yaml:"aliases"`
	Description  string   `yaml:"description"`
	Pattern      string   `yaml:"pattern"`
	Required     bool     `yaml:"required"`
	MinimumCount int      `yaml:"minimum_count"`
	AppliesTo    string   `yaml:"applies_to"`
	Group        string   `yaml:"group"`

	re *regexp.Regexp
}

// Regexp returns the compiled section pattern, if any.
func (s Section) Regexp() *regexp.Regexp { return s.re }

// ComplexityConfig drives the split detector.
type ComplexityConfig struct {
	Markers        []string `yaml:"markers"`
	SplitThreshold int      `yaml:"split_threshold"`
	Action         string   `yaml:"action"`
	Message        string   `yaml:"message"`
}

// PRConfig controls `gh pr create`.
type PRConfig struct {
	RequiredLabels   []LabelRule           `yaml:"required_labels"`
	RequiredSections []Section             `yaml:"required_sections"`
	TypeSpecific     map[string]TypeConfig `yaml:"type_specific"`
	BranchTemplates  map[string]string     `yaml:"branch_templates"`
	Scopes           []Scope               `yaml:"scopes"`
	GroupLabels      map[string]string     `yaml:"group_labels"`
	RowPattern       string                `yaml:"row_pattern"`
	IssueLinkPattern string                `yaml:"issue_link_pattern"`

	rowRe       *regexp.Regexp
	issueLinkRe *regexp.Regexp
}

// RowRegexp counts table rows for minimum_count checks.
func (p PRConfig) RowRegexp() *regexp.Regexp { return p.rowRe }

// IssueLinkRegexp matches the issue link every PR should carry.
func (p PRConfig) IssueLinkRegexp() *regexp.Regexp { return p.issueLinkRe }

// LabelRule requires a label with the given prefix.
type LabelRule struct {
	Prefix   string `yaml:"prefix"`
	Required bool   `yaml:"required"`
	Message  string `yaml:"message"`
}

// TypeConfig holds the rules for one `type:` label value.
type TypeConfig struct {
	RequiredSections []Section `yaml:"required_sections"`
	DefaultCI        string    `yaml:"default_ci"`
}

// Scope is a change category detected from body keywords.
type Scope struct {
	ID       string   `yaml:"id"`
	Label    string   `yaml:"label"`
	Patterns []string `yaml:"patterns"`

	res []*regexp.Regexp
}

// Regexps returns the compiled scope patterns.
func (s Scope) Regexps() []*regexp.Regexp { return s.res }

// WorkflowConfig drives the issue → requirements → implementation chain.
type WorkflowConfig struct {
	IssueRefPatterns        []string `yaml:"issue_ref_patterns"`
	RequirementsRefPatterns []string `yaml:"requirements_ref_patterns"`
	NoRequirementsPatterns  []string `yaml:"no_requirements_patterns"`
	FeaturePatterns         []string `yaml:"feature_patterns"`
	Labels                  Labels   `yaml:"labels"`
	WorktreePrefixes        []string `yaml:"worktree_prefixes"`

	issueRe, reqRe, noReqRe, featureRe []*regexp.Regexp
}

// IssueRefRegexps returns compiled issue reference patterns.
func (w WorkflowConfig) IssueRefRegexps() []*regexp.Regexp { return w.issueRe }

// RequirementsRefRegexps returns compiled requirements PR reference patterns.
func (w WorkflowConfig) RequirementsRefRegexps() []*regexp.Regexp { return w.reqRe }

// NoRequirementsRegexps returns the "no requirements needed" checkbox patterns.
func (w WorkflowConfig) NoRequirementsRegexps() []*regexp.Regexp { return w.noReqRe }

// FeatureRegexps returns the "new feature" checkbox patterns.
func (w WorkflowConfig) FeatureRegexps() []*regexp.Regexp { return w.featureRe }

// Labels names the workflow labels.
type Labels struct {
	InvestigationComplete string `yaml:"investigation_complete"`
	NeedsInvestigation    string `yaml:"needs_investigation"`
	ReadyToDevelop        string `yaml:"ready_to_develop"`
	Requirements          string `yaml:"requirements"`
}

// RoutingConfig describes the marker files written by wrapper commands.
type RoutingConfig struct {
	MarkerPrefix string        `yaml:"marker_prefix"`
	Commands     []string      `yaml:"commands"`
	MaxAge       time.Duration `yaml:"max_age"`
}

// DoDConfig holds the Definition of Done levels.
type DoDConfig struct {
	Bronze        Level         `yaml:"bronze"`
	Silver        Level         `yaml:"silver"`
	Gold          Level         `yaml:"gold"`
	DefaultLevel  string        `yaml:"default_level"`
	BranchLevels  []BranchLevel `yaml:"branch_levels"`
	BaseRef       string        `yaml:"base_ref"`
	Strict        bool          `yaml:"strict"`
	StrictTimeout time.Duration `yaml:"strict_timeout"`
	GateTimeout   time.Duration `yaml:"gate_timeout"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	StatePath     string        `yaml:"state_path"`
}

// Level is one DoD tier.
type Level struct {
	Requirements []Requirement `yaml:"requirements"`
}

// Requirement is a DoD check. Commands are run without a shell.
type Requirement struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Command  string `yaml:"command"`
	Required bool   `yaml:"required"`
}

// Label returns Name or, failing that, the command.
func (r Requirement) Label() string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID != "" && r.Command == "" {
		return r.ID
	}
	return r.Command
}

// BranchLevel maps branch name patterns to a DoD level.
type BranchLevel struct {
	Level    string   `yaml:"level"`
	Patterns []string `yaml:"patterns"`

	res []*regexp.Regexp
}

// Regexps returns the compiled branch patterns.
func (b BranchLevel) Regexps() []*regexp.Regexp { return b.res }

// PatternRule is a regex over the raw command.
type PatternRule struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
	Action  string `yaml:"action"`

	re *regexp.Regexp
}

// Regexp returns the compiled rule pattern.
func (p PatternRule) Regexp() *regexp.Regexp { return p.re }

// SecurityPattern is a literal snippet flagged by the quality hook.
type SecurityPattern struct {
	Pattern  string `yaml:"pattern"`
	Severity string `yaml:"severity"`
	Message  string `yaml:"message"`
}

// QualityConfig controls the post-edit quality hook.
type QualityConfig struct {
	Include          []string      `yaml:"include"`
	Exclude          []string      `yaml:"exclude"`
	Language         string        `yaml:"language"`
	TypeCheckCommand string        `yaml:"type_check_command"`
	LintCommand      string        `yaml:"lint_command"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	TypeCheckTimeout time.Duration `yaml:"type_check_timeout"`
	LintTimeout      time.Duration `yaml:"lint_timeout"`
	CachePath        string        `yaml:"cache_path"`
}

// ApproveConfig lists what the permission hook may approve on its own.
type ApproveConfig struct {
	ReadonlyTools []string `yaml:"readonly_tools"`
	SafeCommands  []string `yaml:"safe_commands"`
	MCPReadonly   []string `yaml:"mcp_readonly"`
	AgentTools    []string `yaml:"agent_tools"`
}

// SessionConfig controls advisory issue locks.
type SessionConfig struct {
	LockDir      string `yaml:"lock_dir"`
	IssuePattern string `yaml:"issue_pattern"`

	issueRe *regexp.Regexp
}

// IssueRegexp extracts the issue number from a branch name.
func (s SessionConfig) IssueRegexp() *regexp.Regexp { return s.issueRe }

// ReviewConfig controls the post-creation PR review.
type ReviewConfig struct {
	Enabled            bool         `yaml:"enabled"`
	RequirementsPhases []PhaseCheck `yaml:"requirements_phases"`
	FixBodyPath        string       `yaml:"fix_body_path"`
}

// PhaseCheck is a heading expected in a requirements PR.
type PhaseCheck struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`

	re *regexp.Regexp
}

// Regexp returns the compiled heading pattern.
func (p PhaseCheck) Regexp() *regexp.Regexp { return p.re }

// Load resolves the guardrails path, decodes it over Default() and
// validates it. On failure it still returns a usable default config along
// with an error wrapping ErrUnavailable.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := Resolve(path)
	if resolved == "" {
		return cfg, fmt.Errorf("%w: no guardrails path", ErrUnavailable)
	}

	if err := cfg.loadFrom(resolved); err != nil {
		fallback := Default()
		fallback.Problems = append(fallback.Problems, err.Error())
		return fallback, fmt.Errorf("%w: %s: %v", ErrUnavailable, resolved, err)
	}

	return cfg, nil
}

// Resolve returns the guardrails path to read. An explicit path or
// environment value wins even if the file does not exist.
func Resolve(path string) string {
	for _, p := range []string{path, os.Getenv(envPath), os.Getenv(envLegacyPath)} {
		if p != "" {
			return absolute(p)
		}
	}

	if local := LocalPath(); local != "" {
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	return GlobalPath()
}

// loadFrom decodes a file onto the current config.
func (c *Config) loadFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := c.decode(data); err != nil {
		return err
	}

	c.Path = path
	return nil
}

// Parse decodes guardrails YAML over Default().
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	c.normalize()
	return nil
}

// normalize restores defaults that an explicit empty value would drop and
// compiles every pattern.
func (c *Config) normalize() {
	d := Default()

	c.Push.ProtectedBranches = appendUnique(AlwaysProtected(), c.Push.ProtectedBranches)
	if len(c.Commit.Types) == 0 {
		c.Commit.Types = d.Commit.Types
	}
	if len(c.Issue.ProhibitedBodyFileValues) == 0 {
		c.Issue.ProhibitedBodyFileValues = d.Issue.ProhibitedBodyFileValues
	}
	if c.Issue.BodyMethod == "" {
		c.Issue.BodyMethod = d.Issue.BodyMethod
	}
	if c.Issue.Complexity.SplitThreshold <= 0 {
		c.Issue.Complexity.SplitThreshold = d.Issue.Complexity.SplitThreshold
	}
	if len(c.PR.Scopes) == 0 {
		c.PR.Scopes = d.PR.Scopes
	}
	if c.PR.RowPattern == "" {
		c.PR.RowPattern = d.PR.RowPattern
	}
	if c.PR.IssueLinkPattern == "" {
		c.PR.IssueLinkPattern = d.PR.IssueLinkPattern
	}
	if len(c.Workflow.IssueRefPatterns) == 0 {
		c.Workflow.IssueRefPatterns = d.Workflow.IssueRefPatterns
	}
	if len(c.Workflow.RequirementsRefPatterns) == 0 {
		c.Workflow.RequirementsRefPatterns = d.Workflow.RequirementsRefPatterns
	}
	if len(c.Workflow.WorktreePrefixes) == 0 {
		c.Workflow.WorktreePrefixes = d.Workflow.WorktreePrefixes
	}
	c.Workflow.Labels = mergeLabels(c.Workflow.Labels, d.Workflow.Labels)
	if c.Routing.MarkerPrefix == "" {
		c.Routing.MarkerPrefix = d.Routing.MarkerPrefix
	}
	if len(c.Routing.Commands) == 0 {
		c.Routing.Commands = d.Routing.Commands
	}
	if c.Routing.MaxAge <= 0 {
		c.Routing.MaxAge = d.Routing.MaxAge
	}
	if c.DoD.DefaultLevel == "" {
		c.DoD.DefaultLevel = d.DoD.DefaultLevel
	}
	if c.DoD.StrictTimeout <= 0 {
		c.DoD.StrictTimeout = d.DoD.StrictTimeout
	}
	if c.DoD.GateTimeout <= 0 {
		c.DoD.GateTimeout = d.DoD.GateTimeout
	}
	if c.DoD.CacheTTL <= 0 {
		c.DoD.CacheTTL = d.DoD.CacheTTL
	}
	if c.Quality.CacheTTL <= 0 {
		c.Quality.CacheTTL = d.Quality.CacheTTL
	}
	if c.Quality.TypeCheckTimeout <= 0 {
		c.Quality.TypeCheckTimeout = d.Quality.TypeCheckTimeout
	}
	if c.Quality.LintTimeout <= 0 {
		c.Quality.LintTimeout = d.Quality.LintTimeout
	}
	if c.Session.IssuePattern == "" {
		c.Session.IssuePattern = d.Session.IssuePattern
	}

	c.compile()
}

// compile compiles every regex in place. Invalid entries are dropped and
// recorded in Problems.
func (c *Config) compile() {
	ci := func(where, pattern string) *regexp.Regexp {
		return c.compileOne(where, "(?i)"+pattern)
	}

	var secrets []SecretPattern
	for _, p := range c.Commit.SecretPatterns {
		if p.Pattern == "" {
			continue
		}
		if p.re = ci("commit.secret_patterns "+p.Name, p.Pattern); p.re != nil {
			secrets = append(secrets, p)
		}
	}
	c.Commit.SecretPatterns = secrets

	c.Issue.RequiredSections = c.compileSections("issue.required_sections", c.Issue.RequiredSections)
	c.PR.RequiredSections = c.compileSections("pr.required_sections", c.PR.RequiredSections)
	for name, tc := range c.PR.TypeSpecific {
		tc.RequiredSections = c.compileSections("pr.type_specific."+name, tc.RequiredSections)
		c.PR.TypeSpecific[name] = tc
	}
	for i := range c.PR.Scopes {
		c.PR.Scopes[i].res = c.compileAll("pr.scopes."+c.PR.Scopes[i].ID, c.PR.Scopes[i].Patterns, true)
	}
	c.PR.rowRe = c.compileOne("pr.row_pattern", c.PR.RowPattern)
	c.PR.issueLinkRe = ci("pr.issue_link_pattern", c.PR.IssueLinkPattern)

	c.Workflow.issueRe = c.compileAll("workflow.issue_ref_patterns", c.Workflow.IssueRefPatterns, true)
	c.Workflow.reqRe = c.compileAll("workflow.requirements_ref_patterns", c.Workflow.RequirementsRefPatterns, true)
	c.Workflow.noReqRe = c.compileAll("workflow.no_requirements_patterns", c.Workflow.NoRequirementsPatterns, true)
	c.Workflow.featureRe = c.compileAll("workflow.feature_patterns", c.Workflow.FeaturePatterns, true)

	for i := range c.DoD.BranchLevels {
		bl := &c.DoD.BranchLevels[i]
		bl.res = c.compileAll("dod.branch_levels."+bl.Level, bl.Patterns, false)
	}

	var ops []PatternRule
	for _, op := range c.DangerousOperations {
		if op.Pattern == "" {
			continue
		}
		if op.re = c.compileOne("dangerous_operations", op.Pattern); op.re != nil {
			ops = append(ops, op)
		}
	}
	c.DangerousOperations = ops

	c.Session.issueRe = ci("session.issue_pattern", c.Session.IssuePattern)

	var phases []PhaseCheck
	for _, ph := range c.Review.RequirementsPhases {
		if ph.re = ci("review.requirements_phases "+ph.Name, ph.Pattern); ph.re != nil {
			phases = append(phases, ph)
		}
	}
	c.Review.RequirementsPhases = phases
}

func (c *Config) compileSections(where string, sections []Section) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if s.Pattern != "" {
			s.re = c.compileOne(where+" "+s.Name, "(?i)"+s.Pattern)
		}
		out = append(out, s)
	}
	return out
}

func (c *Config) compileAll(where string, patterns []string, insensitive bool) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		if insensitive {
			p = "(?i)" + p
		}
		if re := c.compileOne(where, p); re != nil {
			out = append(out, re)
		}
	}
	return out
}

func (c *Config) compileOne(where, pattern string) *regexp.Regexp {
	if pattern == "" || pattern == "(?i)" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		c.Problems = append(c.Problems, fmt.Sprintf("%s: invalid pattern %q: %v", where, pattern, err))
		return nil
	}
	return re
}

// CommitTypes returns the allowed conventional commit types, taking the
// first word of entries such as "feat: new feature".
func (c *Config) CommitTypes() []string {
	var types []string
	for _, t := range c.Commit.Types {
		fields := strings.Fields(t)
		if len(fields) == 0 {
			continue
		}
		types = append(types, strings.TrimSuffix(fields[0], ":"))
	}
	return types
}

// Level returns the DoD level by case-insensitive name.
func (d DoDConfig) Level(name string) (Level, bool) {
	switch strings.ToLower(name) {
	case "bronze":
		return d.Bronze, true
	case "silver":
		return d.Silver, true
	case "gold":
		return d.Gold, true
	}
	return Level{}, false
}

// Find returns the requirement with the given id.
func (l Level) Find(id string) (Requirement, bool) {
	for _, r := range l.Requirements {
		if r.ID == id {
			return r, true
		}
	}
	return Requirement{}, false
}

func mergeLabels(l, d Labels) Labels {
	if l.InvestigationComplete == "" {
		l.InvestigationComplete = d.InvestigationComplete
	}
	if l.NeedsInvestigation == "" {
		l.NeedsInvestigation = d.NeedsInvestigation
	}
	if l.ReadyToDevelop == "" {
		l.ReadyToDevelop = d.ReadyToDevelop
	}
	if l.Requirements == "" {
		l.Requirements = d.Requirements
	}
	return l
}

func appendUnique(base, items []string) []string {
	seen := make(map[string]bool)
	for _, s := range base {
		seen[s] = true
	}
	result := base
	for _, s := range items {
		if s != "" && !seen[s] {
			result = append(result, s)
			seen[s] = true
		}
	}
	return result
}

func absolute(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GlobalPath returns the user-wide guardrails file path.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "cache", "claude-guardrails.yaml")
}

// LocalPath returns the project guardrails file path.
func LocalPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".claude", "guardrails.yaml")
}

// CacheDir returns the directory holding cache files.
func CacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "hookgate-cache")
	}
	return filepath.Join(home, ".claude", "cache")
}

// ExpandPath expands a leading ~ and makes p absolute.
func ExpandPath(p string) string {
	if p == "" {
		return ""
	}
	return absolute(p)
}
