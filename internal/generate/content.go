// Package generate writes marketplace listing content (title, description,
// steps, category) for a workflow using an LLM. Generation is best effort:
// every failure degrades to fixed default content.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	adkmodel "google.golang.org/adk/model"

	"github.com/soochol/flowmart/internal/llmutil"
	flowmodel "github.com/soochol/flowmart/internal/model"
	"github.com/soochol/flowmart/internal/workflow"
)

// Category is a marketplace category label.
type Category string

const (
	CategoryAI             Category = "ai"
	CategorySecOps         Category = "secops"
	CategorySales          Category = "sales"
	CategoryITOps          Category = "it_ops"
	CategoryMarketing      Category = "marketing"
	CategoryEngineering    Category = "engineering"
	CategoryDevOps         Category = "devops"
	CategoryBuildingBlocks Category = "building_blocks"
	CategoryDesign         Category = "design"
	CategoryFinance        Category = "finance"
	CategoryHR             Category = "hr"
	CategoryOther          Category = "other"
	CategoryProduct        Category = "product"
	CategorySupport        Category = "support"
)

// Categories is the closed set of valid labels.
var Categories = []Category{
	CategoryAI, CategorySecOps, CategorySales, CategoryITOps, CategoryMarketing,
	CategoryEngineering, CategoryDevOps, CategoryBuildingBlocks, CategoryDesign,
	CategoryFinance, CategoryHR, CategoryOther, CategoryProduct, CategorySupport,
}

// ParseCategory lower-cases and trims s; anything outside Categories is
// CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Categories, c) {
		return c
	}
	return CategoryOther
}

// Listing defaults shown when the model gives nothing usable.
const (
	DefaultTitle       = "Automated Workflow"
	DefaultDescription = "This workflow automates a sequence of tasks across your connected tools, reducing manual work and keeping your processes running smoothly."
)

// DefaultSteps returns the fallback step list.
func DefaultSteps() []string {
	return []string{
		"Trigger the workflow",
		"Process and transform the data",
		"Deliver the results to connected services",
	}
}

// Content is the generated listing text for one workflow.
type Content struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Category    Category `json:"category"`
}

// DefaultContent returns the complete fallback listing.
func DefaultContent() Content {
	return Content{
		Title:       DefaultTitle,
		Description: DefaultDescription,
		Steps:       DefaultSteps(),
		Category:    CategoryOther,
	}
}

// Request describes the workflow to write about. Title and Description are
// optional context from an existing listing.
type Request struct {
	Graph       *workflow.Graph
	Title       string
	Description string
}

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout bounds each LLM call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// Generator produces listing content with an LLM.
type Generator struct {
	llm     adkmodel.LLM
	model   string
	timeout time.Duration
}

// New creates a Generator that uses the given LLM and model name. A nil llm
// yields a Generator that always returns DefaultContent.
func New(llm adkmodel.LLM, model string, opts ...Option) *Generator {
	g := &Generator{llm: llm, model: model}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes listing content for req. It never fails: a provider error
// in either the content or the category call yields DefaultContent, and
// fields the model leaves empty fall back individually.
func (g *Generator) Generate(ctx context.Context, req Request) Content {
	if g == nil || g.llm == nil {
		return DefaultContent()
	}
	graph := req.Graph
	if graph == nil {
		graph = workflow.Normalize(nil)
	}
	analysis := workflow.Analyze(graph)

	ctx = flowmodel.WithLogFunc(ctx, func(msg string) { slog.Debug(msg) })

	var completion, categoryText string
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		completion, err = g.complete(egCtx, contentSystemPrompt, contentPrompt(req, graph, analysis))
		return err
	})
	eg.Go(func() error {
		var err error
		categoryText, err = g.complete(egCtx, categorySystemPrompt(), categoryPrompt(graph, analysis))
		return err
	})
	if err := eg.Wait(); err != nil {
		slog.Warn("content generation failed, using defaults", "workflow", graph.Name, "err", err)
		return DefaultContent()
	}

	content := parseCompletion(completion)
	content.Category = ParseCategory(categoryText)
	return content
}

// complete runs a single non-streaming completion and returns its text.
func (g *Generator) complete(ctx context.Context, system, user string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := &adkmodel.LLMRequest{
		Model: g.model,
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		},
		Contents: []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
	}

	var resp *adkmodel.LLMResponse
	for r, err := range g.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", fmt.Errorf("%s: %w", g.llm.Name(), err)
		}
		resp = r
	}
	return llmutil.ExtractText(resp), nil
}
