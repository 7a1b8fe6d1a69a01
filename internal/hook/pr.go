package hook

import (
	"context"

	"github.com/adrianpk/hookgate/internal/parser"
	"github.com/adrianpk/hookgate/internal/policy"
)

func (g *Gate) prCreate(ctx context.Context, in Input, cmd parser.Command) policy.Decision {
	prCfg := g.Config.PR
	f, bodyFile := g.bodyFileFindings(cmd, "gh pr create --label type:implementation --label ci:full --body-file /tmp/claude-cmd-dev.md")

	labels := append(parser.FlagValues(cmd.Tokens, "--label"), parser.FlagValues(cmd.Tokens, "-l")...)
	prType := policy.PRType(labels)
	title := func(prefix string) string {
		t := prType
		if t == "" {
			t = "unspecified"
		}
		return prefix + " [type:" + t + "]"
	}

	if g.degraded() {
		return decide(title("PR VALIDATION FAILED"), title("PR WARNING"), f)
	}

	branch, err := g.currentBranch(ctx)
	if err != nil {
		f.Warn("could not determine current branch: " + err.Error())
	} else {
		inWorktree, wtErr := g.inWorktree(ctx)
		f.Add(policy.NewWorktreeRule(g.Config).Evaluate(branch, inWorktree, wtErr))

		template, ok := parser.FlagValue(cmd.Tokens, "--template")
		if !ok {
			template, _ = parser.FlagValue(cmd.Tokens, "-T")
		}
		f.Add(policy.EvaluateTemplate(prCfg.BranchTemplates, branch, template))
	}

	f.Add(policy.EvaluateLabels(prCfg.RequiredLabels, labels))

	var body string
	if bodyFile != "" {
		body, err = g.readBody(in, bodyFile)
		if err != nil {
			f.Error("body file not readable: " + bodyFile)
		}
	}

	if body != "" {
		validator := policy.NewSectionValidator(g.Config)
		f.Add(validator.Validate(body, prCfg.RequiredSections))

		if re := prCfg.IssueLinkRegexp(); re != nil && !re.MatchString(body) {
			f.Warn("issue link not found (expected: closes #123)")
		}

		if prType != "" {
			if tc, ok := prCfg.TypeSpecific[prType]; ok && len(tc.RequiredSections) > 0 {
				f.Add(validator.Validate(body, tc.RequiredSections))
				f.Add(policy.SuggestCI(prCfg.TypeSpecific, prType, labels))
			}
		}

		chain := policy.NewChainValidator(g.Config, g.Tracker)
		switch prType {
		case "requirements":
			f.Add(chain.ValidateRequirements(ctx, body))
		case "implementation":
			f.Add(chain.ValidateImplementation(ctx, body))
		}
	}

	if len(f.Errors) > 0 {
		if prType == "requirements" {
			f.Hint("use /req for requirements PRs (template: .github/PULL_REQUEST_TEMPLATE/requirements.md)")
		} else {
			f.Hint("use /dev for implementation PRs")
		}
	}
	return decide(title("PR VALIDATION FAILED"), title("PR WARNING"), f)
}
