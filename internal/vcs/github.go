package vcs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adrianpk/hookgate/internal/runner"
)

const ghTimeout = 10 * time.Second

// Label is an issue or PR label. gh emits objects; older tooling emitted
// bare strings, both decode.
type Label struct {
	Name string `json:"name"`
}

// UnmarshalJSON accepts `"name"` or `{"name": "..."}`.
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	l.Name = obj.Name
	return nil
}

// Issue is the subset of `gh issue view --json` used by the gate.
type Issue struct {
	Number int     `json:"number"`
	Title  string  `json:"title"`
	State  string  `json:"state"`
	Labels []Label `json:"labels"`
}

// HasLabel reports an exact label match.
func (i *Issue) HasLabel(name string) bool {
	return hasLabel(i.Labels, name, false)
}

// PullRequest is the subset of `gh pr view --json` used by the gate.
type PullRequest struct {
	Number         int     `json:"number"`
	Title          string  `json:"title"`
	State          string  `json:"state"`
	ReviewDecision string  `json:"reviewDecision"`
	Labels         []Label `json:"labels"`
	Body           string  `json:"body"`
	URL            string  `json:"url"`
}

// HasLabelPrefix reports whether any label starts with prefix.
func (p *PullRequest) HasLabelPrefix(prefix string) bool {
	return hasLabel(p.Labels, prefix, true)
}

// LabelNames returns the label names in order.
func (p *PullRequest) LabelNames() []string {
	names := make([]string, 0, len(p.Labels))
	for _, l := range p.Labels {
		names = append(names, l.Name)
	}
	return names
}

func hasLabel(labels []Label, name string, prefix bool) bool {
	for _, l := range labels {
		if prefix && strings.HasPrefix(l.Name, name) {
			return true
		}
		if !prefix && l.Name == name {
			return true
		}
	}
	return false
}

// GitHub queries issues and pull requests through the gh CLI.
type GitHub struct {
	Dir     string
	Timeout time.Duration
	Runner  runner.Runner
}

// NewGitHub returns a gh client.
func NewGitHub(dir string, r runner.Runner) *GitHub {
	if r == nil {
		r = runner.Exec{}
	}
	return &GitHub{Dir: dir, Timeout: ghTimeout, Runner: r}
}

func (g *GitHub) view(ctx context.Context, kind string, number int, repo, fields string, out any) error {
	args := []string{kind, "view", strconv.Itoa(number), "--json", fields}
	if repo != "" {
		args = append(args, "--repo", repo)
	}
	res := g.Runner.Run(ctx, runner.Command{
		Name:    "gh",
		Args:    args,
		Dir:     g.Dir,
		Timeout: g.Timeout,
	})
	if res.Err != nil {
		return fmt.Errorf("gh %s view %d: %w", kind, number, res.Err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("gh %s view %d: %w: %s", kind, number, ErrNotFound, res.Output())
	}
	if strings.TrimSpace(res.Stdout) == "" {
		return fmt.Errorf("gh %s view %d: %w: empty response", kind, number, ErrNotFound)
	}
	if err := json.Unmarshal([]byte(res.Stdout), out); err != nil {
		return fmt.Errorf("gh %s view %d: decode: %w", kind, number, err)
	}
	return nil
}

// Issue fetches issue metadata.
func (g *GitHub) Issue(ctx context.Context, number int) (*Issue, error) {
	var issue Issue
	if err := g.view(ctx, "issue", number, "", "number,title,labels,state", &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// PullRequest fetches PR metadata including its review decision.
func (g *GitHub) PullRequest(ctx context.Context, number int) (*PullRequest, error) {
	var pr PullRequest
	if err := g.view(ctx, "pr", number, "", "number,title,labels,state,reviewDecision", &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// PullRequestWithBody fetches body and labels of a PR, optionally in another
// repository (owner/name).
func (g *GitHub) PullRequestWithBody(ctx context.Context, number int, repo string) (*PullRequest, error) {
	var pr PullRequest
	if err := g.view(ctx, "pr", number, repo, "number,body,labels,state,url", &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}
