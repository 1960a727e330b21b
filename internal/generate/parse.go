package generate

import (
	"regexp"
	"strings"

	"github.com/soochol/flowmart/internal/llmutil"
)

var (
	titleSection       = labeledSection("title")
	descriptionSection = labeledSection("description")
	stepsSection       = labeledSection("steps")

	// Numbered markers also split mid-line, but only between blanks so
	// "1.5 hours" stays whole.
	stepMarker     = regexp.MustCompile(`(?m)^[ \t]*(?:\d+[.)][ \t]+|[*\-•][ \t]*)|[ \t]+\d+[.)][ \t]+`)
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
)

// labeledSection matches "label:" and captures everything up to the next
// known label or the end of the text.
func labeledSection(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)(?:^|\n)[ \t]*` + label +
		`[ \t]*:[ \t]*(.*?)(?:\n[ \t]*(?:title|description|steps)[ \t]*:|\z)`)
}

// parseCompletion turns a free-text completion into listing fields. Labeled
// sections win; a paragraph heuristic fills what they miss; defaults fill
// the rest. Category is left unset.
func parseCompletion(text string) Content {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = llmutil.StripMarkdown(text)

	var c Content
	c.Title = llmutil.Unquote(firstLine(section(titleSection, text)))
	c.Description = collapse(section(descriptionSection, text))
	c.Steps = splitSteps(section(stepsSection, text))

	if c.Title == "" || c.Description == "" || len(c.Steps) == 0 {
		paragraphs := splitParagraphs(text)
		if len(paragraphs) >= 3 {
			if c.Title == "" {
				c.Title = llmutil.Unquote(firstLine(paragraphs[0]))
			}
			if c.Description == "" {
				c.Description = collapse(paragraphs[1])
			}
			if len(c.Steps) == 0 {
				c.Steps = splitSteps(strings.Join(paragraphs[2:], "\n"))
			}
		}
	}

	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Description == "" {
		c.Description = DefaultDescription
	}
	if len(c.Steps) == 0 {
		c.Steps = DefaultSteps()
	}
	return c
}

func section(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// splitSteps splits on numbered or bulleted markers. Text without any
// marker is split by line.
func splitSteps(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var parts []string
	if stepMarker.MatchString(s) {
		parts = stepMarker.Split(s, -1)
	} else {
		parts = strings.Split(s, "\n")
	}
	steps := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = collapse(p); p != "" {
			steps = append(steps, p)
		}
	}
	return steps
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// collapse joins lines and squeezes runs of whitespace.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
