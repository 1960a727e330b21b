package generate

import (
	"fmt"
	"strings"

	"github.com/soochol/flowmart/internal/workflow"
)

const contentSystemPrompt = `You write marketplace listings for automation workflows.
Given a workflow summary, answer in exactly this format:

Title: <a short, benefit-focused title of at most 8 words>
Description: <two or three sentences explaining what the workflow does and who it helps>
Steps:
1. <first step>
2. <second step>
3. <third step>

Write 3 to 6 steps in plain language. Do not use markdown headings or emphasis.`

func categorySystemPrompt() string {
	labels := make([]string, len(Categories))
	for i, c := range Categories {
		labels[i] = string(c)
	}
	return "You classify automation workflows into marketplace categories.\n" +
		"Answer with exactly one of these labels and nothing else: " +
		strings.Join(labels, ", ") + "."
}

// contentPrompt describes the workflow for the listing completion.
func contentPrompt(req Request, g *workflow.Graph, a workflow.Analysis) string {
	var b strings.Builder

	name := firstNonEmpty(req.Title, g.Name)
	description := firstNonEmpty(req.Description, g.Description)
	if name != "" {
		fmt.Fprintf(&b, "Workflow name: %s\n", name)
	}
	if description != "" {
		fmt.Fprintf(&b, "Existing description: %s\n", description)
	}

	writeList(&b, "Node types", a.NodeTypes)
	writeList(&b, "Triggers", a.Triggers)
	writeList(&b, "Actions", a.Actions)
	if len(a.ExecutionOrder) > 0 {
		fmt.Fprintf(&b, "Approximate execution order: %s\n", strings.Join(a.ExecutionOrder, " -> "))
	}
	writeList(&b, "Connected tools", a.Tools)
	fmt.Fprintf(&b, "Total nodes: %d\n", a.NodeCount)
	fmt.Fprintf(&b, "Total connections: %d\n", a.ConnectionCount)
	fmt.Fprintf(&b, "Complexity: %s\n", a.Complexity)

	b.WriteString("\nWrite the title, description and steps for this workflow.")
	return b.String()
}

// categoryPrompt gives the classifier the node types and counts.
func categoryPrompt(g *workflow.Graph, a workflow.Analysis) string {
	var b strings.Builder
	if g.Name != "" {
		fmt.Fprintf(&b, "Workflow name: %s\n", g.Name)
	}
	writeList(&b, "Node types", a.NodeTypes)
	writeList(&b, "Connected tools", a.Tools)
	fmt.Fprintf(&b, "Total nodes: %d\n", a.NodeCount)
	fmt.Fprintf(&b, "Triggers: %d, actions: %d\n", len(a.Triggers), len(a.Actions))
	b.WriteString("\nWhich category fits best?")
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, ", "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
