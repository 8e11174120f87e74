// Package review produces an advisory summary of a suspicious session for
// human moderators. It never feeds back into scoring or navigation.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/cultural-survey/backend/internal/quality"
)

// LLMClient is the interface both reviewer implementations satisfy.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// Review is the moderator-facing judgment for one flagged session.
type Review struct {
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"` // keep, discard, or manual_review
	Model          string `json:"model"`
}

type Reviewer struct {
	llm   LLMClient
	model string
}

func NewReviewer() *Reviewer {
	var llm LLMClient
	model := "mock"

	if os.Getenv("MOCK_REVIEWER") == "true" || os.Getenv("ANTHROPIC_API_KEY") == "" {
		llm = NewMockClient()
		log.Println("Reviewer using mock responses")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		llm = NewAPIClient(model)
		log.Println("Reviewer using Anthropic API:", model)
	}

	return &Reviewer{llm: llm, model: model}
}

const systemPrompt = `You review survey response histories flagged by automated quality checks.
Given the aggregate signals and a sample of answers, write a two or three sentence summary of what the respondent appears to be doing, then recommend one of: keep, discard, manual_review.
Respond with JSON only: {"summary": "...", "recommendation": "..."}`

// ReviewSession summarizes a flagged history. samples should already exclude
// attention-check responses.
func (r *Reviewer) ReviewSession(ctx context.Context, verdict quality.PatternVerdict, samples []string) (*Review, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Aggregate signals:\n")
	fmt.Fprintf(&b, "- none-response rate: %.1f%%\n", verdict.NoneRate)
	fmt.Fprintf(&b, "- gibberish rate: %.1f%%\n", verdict.GibberishRate)
	fmt.Fprintf(&b, "- fast-response rate: %.1f%%\n", verdict.FastRate)
	fmt.Fprintf(&b, "- primary issue: %s\n", verdict.PrimaryIssue)
	for _, w := range verdict.Warnings {
		fmt.Fprintf(&b, "- warning: %s\n", w)
	}
	b.WriteString("\nSample answers:\n")
	for i, sample := range samples {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, sample)
	}

	content, err := r.llm.Complete(ctx, systemPrompt, b.String())
	if err != nil {
		return nil, fmt.Errorf("review session: %w", err)
	}

	review, err := parseReview(content)
	if err != nil {
		return nil, fmt.Errorf("parse review: %w", err)
	}
	review.Model = r.model
	return review, nil
}

func parseReview(content string) (*Review, error) {
	// Models occasionally wrap the JSON in a code fence.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var review Review
	if err := json.Unmarshal([]byte(content[start:end+1]), &review); err != nil {
		return nil, err
	}
	if review.Summary == "" {
		return nil, fmt.Errorf("empty summary")
	}
	switch review.Recommendation {
	case "keep", "discard", "manual_review":
	default:
		review.Recommendation = "manual_review"
	}
	return &review, nil
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   1024,
		Temperature: param.NewOpt(0.2),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return "", err
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in API response")
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			time.Sleep(sleepDuration)
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	return `{"summary":"[Mock] The automated signals suggest low-effort responding; several answers are short or repeated. A reviewer should skim the full history before excluding the session.","recommendation":"manual_review"}`, nil
}
