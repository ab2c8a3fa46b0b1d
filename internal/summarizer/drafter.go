package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wellmind/practice-platform/pkg/logging"
)

const systemPrompt = `You are an assistant specialized in clinical psychology. Your role is to produce impartial, professional clinical summaries of therapy sessions.

GUIDELINES:
- Stay objective; avoid personal judgment or unfounded interpretation
- Use appropriate clinical terminology
- Include only clinically relevant information
- Preserve confidentiality; do not name third parties unnecessarily
- Identify observed patterns, symptoms and progress
- Focus on observable data and the patient's own reports
- When a prior summary exists, integrate the new information while keeping the chronology

EXPECTED STRUCTURE:
1. History and context (if applicable)
2. Main complaints and demands
3. Relevant clinical observations
4. Evolution compared with earlier sessions (if any)
5. Points of attention for upcoming sessions

Be concise but thorough. Quality over quantity.`

// Drafter turns raw session notes into an updated clinical summary through
// an LLM. It is optional infrastructure: callers must consult IsConfigured
// and treat every failure as non-fatal.
type Drafter struct {
	client    LLMClient
	model     string
	maxTokens int32
	timeout   time.Duration
	logger    *logging.Logger
}

// NewDrafter builds a drafter around an LLM client. A nil client yields an
// unconfigured drafter, which is a valid deployment mode.
func NewDrafter(client LLMClient, model string, maxTokens int, timeout time.Duration, logger *logging.Logger) *Drafter {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Drafter{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
		timeout:   timeout,
		logger:    logger.WithComponent("summarizer"),
	}
}

// IsConfigured reports whether a drafting backend is available.
func (d *Drafter) IsConfigured() bool {
	return d != nil && d.client != nil
}

// Draft produces an updated clinical summary from the session notes. The
// call is bounded by the drafter's timeout regardless of the caller's
// context.
func (d *Drafter) Draft(ctx context.Context, sessionNotes, patientName string, priorSummary *string) (string, error) {
	if !d.IsConfigured() {
		return "", errors.New("summarizer: no drafting backend configured")
	}
	if strings.TrimSpace(sessionNotes) == "" {
		return "", errors.New("summarizer: session notes are empty")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.client.Complete(ctx, LLMRequest{
		Model:       d.model,
		System:      []string{systemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: buildPrompt(sessionNotes, patientName, priorSummary)}},
		MaxTokens:   d.maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("summarizer: draft summary: %w", err)
	}
	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", errors.New("summarizer: model returned an empty summary")
	}
	return summary, nil
}

func buildPrompt(sessionNotes, patientName string, priorSummary *string) string {
	if priorSummary != nil && strings.TrimSpace(*priorSummary) != "" {
		return fmt.Sprintf(`Patient: %s

PREVIOUS CLINICAL SUMMARY:
%s

NOTES FROM THE CURRENT SESSION:
%s

Produce an UPDATED clinical summary that integrates the previous history with the new session. Keep the chronology and highlight how the presentation has evolved.`, patientName, *priorSummary, sessionNotes)
	}
	return fmt.Sprintf(`Patient: %s

SESSION NOTES:
%s

Produce a professional, impartial clinical summary of this first session, highlighting what matters most for the patient's follow-up.`, patientName, sessionNotes)
}
