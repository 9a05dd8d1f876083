// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/content-engine/pkg/types"
)

// systemPrompt frames every call.
const systemPrompt = `You are a research and writing partner for a single author. You help turn a raw topic into a publishable piece. Be specific, cite concrete facts where you can, and never pad. When asked for JSON, respond with the JSON object only.`

var promptFuncs = template.FuncMap{
	"bullets": bullets,
	"blank":   func(s string) bool { return strings.TrimSpace(s) == "" },
}

var strategyBlock = `{{define "strategy"}}{{with .Strategy}}Strategy:
- Outcome goal: {{if blank .Outcome}}(not set){{else}}{{.Outcome}}{{end}}
- Audience role: {{if blank .Audience.Role}}(not set){{else}}{{.Audience.Role}}{{end}}
- Audience pain: {{if blank .Audience.Pain}}(not set){{else}}{{.Audience.Pain}}{{end}}
- Stance: {{if blank .Stance}}(not set){{else}}{{.Stance}}{{end}}
- Format: {{if blank .Format}}(not set){{else}}{{.Format}}{{end}}
{{end}}{{end}}`

var promptTemplates = map[Action]*template.Template{
	ActionDeepDive: mustPrompt("deep_dive", `Research the following topic for a piece of writing.

Topic: {{.Hook}}

{{template "strategy" .}}{{if not (blank .Context)}}
Additional direction from the author: {{.Context}}
{{end}}
Return objective findings (facts, data, examples, counterpoints) and strategic insights (angles, tensions, what the audience is missing). Do not repeat points the author already has:
{{bullets .Research}}{{bullets .Insights}}
Respond with a JSON object: {"research": ["..."], "insights": ["..."]}
`),
	ActionRefinePoint: mustPrompt("refine_point", `Rewrite one {{.PointList}} point for a piece about: {{.Hook}}

Current point:
{{.PointText}}

{{if not (blank .Context)}}{{.Context}}

{{end}}Keep the point self-contained and at most three sentences. Respond with a JSON object: {"text": "..."}
`),
	ActionOutline: mustPrompt("outline", `Propose an outline for a piece about: {{.Hook}}

{{template "strategy" .}}
Research findings:
{{bullets .Research}}
Strategic insights:
{{bullets .Insights}}{{if not (blank .Context)}}
Additional direction from the author: {{.Context}}
{{end}}
Each section is an instruction for the writer: what the section argues and which findings it uses. Respond with a JSON object: {"sections": ["..."]}
`),
	ActionDraft: mustPrompt("draft", `Write the full piece about: {{.Hook}}

{{template "strategy" .}}
Follow this approved outline, one section per item, in order:
{{bullets .Outline}}
Ground claims in these findings:
{{bullets .Research}}{{bullets .Insights}}{{if not (blank .Context)}}
Additional direction from the author: {{.Context}}
{{end}}
Respond with the piece in Markdown only, starting with a "# " title line.
`),
}

func mustPrompt(name, body string) *template.Template {
	t := template.Must(template.New(name).Funcs(promptFuncs).Parse(strategyBlock))
	return template.Must(t.Parse(body))
}

// RenderPrompt executes the template for action with the request.
func RenderPrompt(action Action, req Request) (Prompt, error) {
	tmpl, ok := promptTemplates[action]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown action %q", action)
	}
	data := struct {
		Request
		Strategy *types.StrategyProfile
	}{Request: req, Strategy: &req.Strategy}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Prompt{}, err
	}

	subject := req.Hook
	if action == ActionRefinePoint {
		subject = req.PointText
	}
	return Prompt{
		Action:  action,
		System:  systemPrompt,
		User:    buf.String(),
		Subject: subject,
	}, nil
}

// bullets renders points as a Markdown list with their notes indented.
func bullets(points []types.ResearchPoint) string {
	if len(points) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, p := range points {
		fmt.Fprintf(&b, "- %s\n", p.Text)
		for _, n := range p.Notes {
			fmt.Fprintf(&b, "  - author note: %s\n", n)
		}
	}
	return b.String()
}
