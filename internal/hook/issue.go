package hook

import (
	"context"

	"github.com/adrianpk/hookgate/internal/parser"
	"github.com/adrianpk/hookgate/internal/policy"
)

// bodyFileFindings applies the checks shared by issue and PR creation:
// inline bodies are prohibited, a body file is required and must be a real
// file written by an approved wrapper. It returns the usable body file
// path, or "" when the body cannot be read.
func (g *Gate) bodyFileFindings(cmd parser.Command, example string) (policy.Findings, string) {
	var f policy.Findings

	if parser.HasFlag(cmd.Tokens, "--body", "-b") {
		f.Error("--body is prohibited (inline bodies cannot be validated), use --body-file <path>")
		f.Hint("write the body to a file and pass --body-file <path>")
	}

	bodyFile, ok := parser.FlagValue(cmd.Tokens, "--body-file")
	if !ok {
		bodyFile, _ = parser.FlagValue(cmd.Tokens, "-F")
	}

	f.Add(g.Routing.EvaluateRouting(cmd, bodyFile))

	if bodyFile == "" {
		f.Error("--body-file is required")
		f.Hint("example: " + example)
		return f, ""
	}

	for _, v := range g.Config.Issue.ProhibitedBodyFileValues {
		if bodyFile == v {
			f.Error("--body-file " + bodyFile + " is prohibited (stdin-based), use a real file path")
			return f, ""
		}
	}

	return f, bodyFile
}

func (g *Gate) issueCreate(_ context.Context, in Input, cmd parser.Command) policy.Decision {
	issue := g.Config.Issue
	f, bodyFile := g.bodyFileFindings(cmd, "gh issue create --body-file /tmp/claude-cmd-issue.md")

	if g.degraded() {
		return decide("ISSUE VALIDATION FAILED", "ISSUE WARNING", f)
	}

	if issue.BodyMethod != "" && issue.BodyMethod != "body-file" {
		f.Error("unsupported issue.body_method: " + issue.BodyMethod + " (expected body-file)")
	}

	if bodyFile != "" {
		body, err := g.readBody(in, bodyFile)
		if err != nil {
			f.Error("body file not readable: " + bodyFile)
		} else {
			f.Add(policy.NewSectionValidator(g.Config).Validate(body, issue.RequiredSections))
			f.Add(policy.NewComplexityRule(g.Config).Evaluate(body))
		}
	}

	if len(f.Errors) > 0 {
		f.Hint("workflow: /investigate for the report, then /issue to create the issue")
	}
	return decide("ISSUE VALIDATION FAILED", "ISSUE WARNING", f)
}
